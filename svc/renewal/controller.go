package renewal

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/renewkit/renewkit/pkg/async"
	"github.com/renewkit/renewkit/pkg/notify"
	"github.com/renewkit/renewkit/pkg/statemachine"
	"github.com/renewkit/renewkit/pkg/subs"
)

// Panel states.
const (
	StateClosed     = statemachine.State("closed")
	StateLoading    = statemachine.State("loading")
	StateLoaded     = statemachine.State("loaded")
	StateLoadError  = statemachine.State("load_error")
	StateSubmitting = statemachine.State("submitting")
)

const (
	eventOpen         = statemachine.Event("open")
	eventLoaded       = statemachine.Event("loaded")
	eventLoadFailed   = statemachine.Event("load_failed")
	eventSubmit       = statemachine.Event("submit")
	eventSubmitOK     = statemachine.Event("submit_ok")
	eventSubmitFailed = statemachine.Event("submit_failed")
	eventClose        = statemachine.Event("close")
)

const loadErrorMessage = "There was a problem loading your subscriptions. Please try again later."

func newPanelMachine() *statemachine.Machine {
	return statemachine.New(StateClosed,
		statemachine.Transition{From: StateClosed, Event: eventOpen, To: StateLoading},
		statemachine.Transition{From: StateLoading, Event: eventLoaded, To: StateLoaded},
		statemachine.Transition{From: StateLoading, Event: eventLoadFailed, To: StateLoadError},
		statemachine.Transition{From: StateLoaded, Event: eventSubmit, To: StateSubmitting},
		statemachine.Transition{From: StateSubmitting, Event: eventSubmitOK, To: StateLoaded},
		statemachine.Transition{From: StateSubmitting, Event: eventSubmitFailed, To: StateLoaded},
		statemachine.Transition{From: StateLoading, Event: eventClose, To: StateClosed},
		statemachine.Transition{From: StateLoaded, Event: eventClose, To: StateClosed},
		statemachine.Transition{From: StateLoadError, Event: eventClose, To: StateClosed},
		statemachine.Transition{From: StateSubmitting, Event: eventClose, To: StateClosed},
	)
}

// SubscriptionSource provides the current user's subscription records,
// typically a cached query over the contracts API.
type SubscriptionSource interface {
	UserSubscriptions(ctx context.Context) ([]subs.UserSubscription, error)
}

// UpdateResult carries the backend's in-band business error: the mutation
// can succeed at the transport level and still report a failure in Errors.
type UpdateResult struct {
	Errors string
}

// AutoRenewalUpdater persists auto-renewal preferences keyed by consolidated
// billing subscription id.
type AutoRenewalUpdater interface {
	SetAutoRenewal(ctx context.Context, settings map[string]bool) (UpdateResult, error)
}

// Controller drives one user's renewal settings panel. All methods are safe
// for concurrent use; a Controller is meant to live as long as the user's
// portal session.
type Controller struct {
	source  SubscriptionSource
	updater AutoRenewalUpdater
	logger  *slog.Logger

	mu      sync.Mutex
	machine *statemachine.Machine
	// generation is bumped on every open and close. Async resolutions carry
	// the generation they started under and are discarded on mismatch, so a
	// panel closed mid-flight can never be corrupted by a late response.
	generation uint64
	bundles    map[subs.Marketplace]*subs.BillingSubscriptions
	edits      map[string]bool
	loadErr    error
	submitErr  string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for fetch and submit failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a Controller. Panics on nil collaborators to fail
// fast during initialization.
func NewController(source SubscriptionSource, updater AutoRenewalUpdater, opts ...Option) *Controller {
	if source == nil {
		panic("renewal: SubscriptionSource is required")
	}
	if updater == nil {
		panic("renewal: AutoRenewalUpdater is required")
	}
	c := &Controller{
		source:  source,
		updater: updater,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		machine: newPanelMachine(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens the panel: it fetches the subscription list through the source
// (which serves a cached snapshot when one exists), consolidates it into
// billing subscriptions and seeds the edit state from their current
// auto-renewal flags. Any submit error from a previous session is cleared
// before anything else happens.
//
// A load failure leaves the panel open in the load_error state; the failure
// is also returned and surfaced via Notifications.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if _, err := c.machine.Fire(eventOpen); err != nil {
		c.mu.Unlock()
		return ErrAlreadyOpen
	}
	c.generation++
	generation := c.generation
	c.submitErr = ""
	c.loadErr = nil
	c.mu.Unlock()

	fetch := async.Go(ctx, func(ctx context.Context) ([]subs.UserSubscription, error) {
		return c.source.UserSubscriptions(ctx)
	})
	records, err := fetch.Await()

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return ErrClosedMidFlight
	}
	if err != nil {
		_, _ = c.machine.Fire(eventLoadFailed)
		c.loadErr = err
		c.logger.ErrorContext(ctx, "failed to load user subscriptions", slog.Any("error", err))
		return err
	}
	_, _ = c.machine.Fire(eventLoaded)
	c.bundles = subs.Consolidate(records)
	c.edits = initialEdits(c.bundles)
	return nil
}

// Close discards the panel's transient state: edit values, derived bundles
// and both error slots. The next Open starts clean.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.machine.Fire(eventClose); err != nil {
		return ErrNotOpen
	}
	c.generation++
	c.bundles = nil
	c.edits = nil
	c.loadErr = nil
	c.submitErr = ""
	return nil
}

// SetEdit records the user's desired auto-renewal value for a billing
// subscription. The panel stays interactive while a submission is in
// flight, so edits are accepted in both the loaded and submitting states;
// an in-flight submission keeps the payload it was started with.
func (c *Controller) SetEdit(bundleID string, autoRenew bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.machine.Current() {
	case StateLoaded, StateSubmitting:
	default:
		return ErrNotOpen
	}
	if _, ok := c.edits[bundleID]; !ok {
		return ErrUnknownBundle
	}
	c.edits[bundleID] = autoRenew
	return nil
}

// Submit sends the current edit state to the updater exactly as edited: a
// map of billing subscription ids to desired auto-renewal values. The
// submit event only has a transition from loaded, so a second call while a
// submission is in flight returns ErrSubmitInFlight without issuing another
// mutation.
//
// The returned future resolves when the backend responds. Its outcome is
// applied to the controller before the future resolves, and only if the
// panel has not been closed in the meantime.
func (c *Controller) Submit(ctx context.Context) (*async.Future[UpdateResult], error) {
	c.mu.Lock()
	if _, err := c.machine.Fire(eventSubmit); err != nil {
		current := c.machine.Current()
		c.mu.Unlock()
		if current == StateSubmitting {
			return nil, ErrSubmitInFlight
		}
		return nil, ErrNotOpen
	}
	payload := maps.Clone(c.edits)
	generation := c.generation
	c.mu.Unlock()

	// The future must resolve even when ctx is already cancelled, otherwise
	// the machine would be stuck in submitting, so the flight itself runs on
	// an uncancellable context and only the backend call honours ctx.
	flight := async.Go(context.WithoutCancel(ctx), func(context.Context) (UpdateResult, error) {
		result, err := c.updater.SetAutoRenewal(ctx, payload)
		c.applySubmit(ctx, generation, payload, result, err)
		return result, err
	})
	return flight, nil
}

func (c *Controller) applySubmit(ctx context.Context, generation uint64, payload map[string]bool, result UpdateResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		// The panel was closed, and possibly reopened, while the mutation
		// was in flight. Its edit state is gone and must not come back.
		return
	}

	switch {
	case err != nil:
		_, _ = c.machine.Fire(eventSubmitFailed)
		c.submitErr = err.Error()
		c.logger.ErrorContext(ctx, "failed to update auto-renewal settings", slog.Any("error", err))
	case result.Errors != "":
		_, _ = c.machine.Fire(eventSubmitFailed)
		c.submitErr = result.Errors
		c.logger.WarnContext(ctx, "auto-renewal update rejected", slog.String("errors", result.Errors))
	default:
		_, _ = c.machine.Fire(eventSubmitOK)
		c.submitErr = ""
		// Reflect the accepted values optimistically; the data facade
		// refreshes the underlying snapshot on its own schedule.
		for _, group := range c.bundles {
			for _, bundle := range []*subs.BillingSubscription{group.Monthly, group.Yearly} {
				if bundle == nil {
					continue
				}
				if status, ok := payload[bundle.ID]; ok {
					bundle.Status = status
				}
			}
		}
	}
}

// State returns the panel's current state.
func (c *Controller) State() statemachine.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// Bundles returns a deep copy of the open panel's consolidated billing
// subscriptions. The copy is detached from the controller: a submit
// resolving later updates only the controller's own bundles, never a
// snapshot already handed out.
func (c *Controller) Bundles() map[subs.Marketplace]*subs.BillingSubscriptions {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bundles == nil {
		return nil
	}
	bundles := make(map[subs.Marketplace]*subs.BillingSubscriptions, len(c.bundles))
	for marketplace, group := range c.bundles {
		bundles[marketplace] = group.Clone()
	}
	return bundles
}

// Edits returns a copy of the current edit state.
func (c *Controller) Edits() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.edits)
}

// Notifications returns the panel's visible notifications. Load and update
// failures carry distinct roles so they can be addressed independently.
func (c *Controller) Notifications() []notify.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	var notes []notify.Notification
	if c.loadErr != nil {
		notes = append(notes, notify.Error(notify.RoleLoadError, loadErrorMessage))
	}
	if c.submitErr != "" {
		notes = append(notes, notify.Error(notify.RoleUpdateError, c.submitErr))
	}
	return notes
}

func initialEdits(groups map[subs.Marketplace]*subs.BillingSubscriptions) map[string]bool {
	edits := make(map[string]bool)
	for _, group := range groups {
		for _, bundle := range []*subs.BillingSubscription{group.Monthly, group.Yearly} {
			if bundle != nil {
				edits[bundle.ID] = bundle.Status
			}
		}
	}
	return edits
}
