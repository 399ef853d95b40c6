// Package renewal implements the renewal settings workflow: a panel where a
// user reviews consolidated billing subscriptions and edits their
// auto-renewal preferences.
//
// The panel lifecycle is an explicit state machine rather than a set of
// boolean flags, which makes its two central invariants mechanically
// enforceable:
//
//	closed -> loading -> loaded | load_error
//	loaded -> submitting -> loaded
//	any open state -> closed
//
// Reopening never leaks errors from a previous session, because entering
// the panel resets the error state, and the submit event only has a
// transition from loaded, so a second submission while one is in flight is
// rejected instead of queued.
//
// The two asynchronous operations, loading the subscription list and
// submitting the settings, resolve against a generation counter: closing
// the panel bumps the generation, and a resolution carrying a stale
// generation is discarded so it cannot corrupt the reset state.
package renewal
