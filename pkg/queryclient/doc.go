// Package queryclient is the portal's async data access facade: a small
// query cache in the shape of the fetch-with-cache libraries used by
// single-page frontends. Reads return the latest cached snapshot; a miss
// triggers the query's fetch function, deduplicated so concurrent readers of
// the same key share one backend call. Mutations happen outside this
// package; callers invalidate the affected keys after a successful write.
//
// Snapshots are stored as JSON through a pluggable Store, either in-process
// (bounded LRU) or Redis when portal replicas need to share one cache.
// One-off values known at startup, such as a pending purchase id carried
// over from checkout, are seeded explicitly with Client.Seed instead of
// living in ambient global state.
package queryclient
