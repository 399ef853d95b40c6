// Package subscriptions is the routed HTTP surface of the renewal portal:
// the subscription list page and the renewal settings panel. Panel state
// lives server-side in a per-user controller; the frontend only posts
// events and receives re-rendered panel markup.
package subscriptions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/renewkit/renewkit/handler"
	"github.com/renewkit/renewkit/modules/subscriptions/templates"
	"github.com/renewkit/renewkit/pkg/cache"
	"github.com/renewkit/renewkit/pkg/contracts"
	"github.com/renewkit/renewkit/pkg/notify"
	"github.com/renewkit/renewkit/pkg/queryclient"
	"github.com/renewkit/renewkit/pkg/subs"
	"github.com/renewkit/renewkit/pkg/userid"
	"github.com/renewkit/renewkit/svc/renewal"
)

// Config holds the module's tunables.
type Config struct {
	// SessionCapacity bounds how many per-user panel controllers are kept
	// in memory at once; the least recently used one is evicted.
	SessionCapacity int `env:"PORTAL_SESSION_CAPACITY" envDefault:"1024"`
	// SessionTTL expires idle panel sessions.
	SessionTTL time.Duration `env:"PORTAL_SESSION_TTL" envDefault:"30m"`
}

// ContractsAPI is the slice of the contracts client the module needs.
type ContractsAPI interface {
	GetUserSubscriptions(ctx context.Context) ([]subs.UserSubscription, error)
	SetAutoRenewal(ctx context.Context, settings map[string]bool) (contracts.AutoRenewalResult, error)
}

// Service wires the contracts API, the query cache and per-user renewal
// controllers behind the portal routes.
type Service struct {
	cfg     Config
	api     ContractsAPI
	queries *queryclient.Client
	logger  *slog.Logger

	mu       sync.Mutex
	sessions *cache.LRU[uuid.UUID, *renewal.Controller]
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the subscriptions module. Panics on nil collaborators
// to fail fast during startup.
func NewService(cfg Config, api ContractsAPI, queries *queryclient.Client, opts ...Option) *Service {
	if api == nil {
		panic("subscriptions: ContractsAPI is required")
	}
	if queries == nil {
		panic("subscriptions: query client is required")
	}
	if cfg.SessionCapacity <= 0 {
		cfg.SessionCapacity = 1024
	}
	s := &Service{
		cfg:      cfg,
		api:      api,
		queries:  queries,
		logger:   slog.New(slog.DiscardHandler),
		sessions: cache.NewLRU[uuid.UUID, *renewal.Controller](cfg.SessionCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle mounts the module routes. Every route requires an authenticated
// user id.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(userid.Middleware)

	r.Get("/", handler.Wrap(s.logger, s.listPage))
	r.Route("/renewal", func(r chi.Router) {
		r.Post("/", handler.Wrap(s.logger, s.submit))
		r.Post("/open", handler.Wrap(s.logger, s.open))
		r.Post("/close", handler.Wrap(s.logger, s.closePanel))
	})
	return r
}

// subscriptionsQuery binds the user's cache slot to the contracts fetch.
// Queries are cheap handles; one is built per request.
func (s *Service) subscriptionsQuery(userID uuid.UUID) *queryclient.Query[[]subs.UserSubscription] {
	return queryclient.NewQuery(s.queries, "user-subscriptions:"+userID.String(),
		func(ctx context.Context) ([]subs.UserSubscription, error) {
			return s.api.GetUserSubscriptions(ctx)
		})
}

// controller returns the user's panel controller, creating one on first use.
func (s *Service) controller(userID uuid.UUID) *renewal.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctrl, ok := s.sessions.Get(userID); ok {
		return ctrl
	}
	query := s.subscriptionsQuery(userID)
	ctrl := renewal.NewController(
		querySource{query: query},
		&queryUpdater{api: s.api, query: query},
		renewal.WithLogger(s.logger),
	)
	s.sessions.SetTTL(userID, ctrl, s.cfg.SessionTTL)
	return ctrl
}

func (s *Service) listPage(r *http.Request) handler.Response {
	ctx := r.Context()
	id, _ := userid.FromContext(ctx)
	ctrl := s.controller(id)

	var notes []notify.Notification
	records, err := s.subscriptionsQuery(id).Get(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load subscription list", slog.Any("error", err))
		notes = append(notes, notify.Error(notify.RoleLoadError,
			"There was a problem loading your subscriptions. Please try again later."))
	}

	return handler.Templ(templates.Page(buildCards(records), notificationViews(notes), buildPanel(ctrl)))
}

func (s *Service) open(r *http.Request) handler.Response {
	ctx := r.Context()
	id, _ := userid.FromContext(ctx)
	ctrl := s.controller(id)

	if err := ctrl.Open(ctx); err != nil && !errors.Is(err, renewal.ErrAlreadyOpen) {
		// Load failures and mid-flight closes are already reflected in the
		// controller's state; the re-rendered panel carries them.
		s.logger.WarnContext(ctx, "renewal panel open did not complete", slog.Any("error", err))
	}
	return s.panelResponse(ctrl)
}

func (s *Service) closePanel(r *http.Request) handler.Response {
	ctx := r.Context()
	id, _ := userid.FromContext(ctx)
	ctrl := s.controller(id)

	if err := ctrl.Close(); err != nil {
		s.logger.DebugContext(ctx, "renewal panel close ignored", slog.Any("error", err))
	}
	return s.panelResponse(ctrl)
}

// submit applies the posted toggle values to the edit state and submits it.
// Unchecked checkboxes are absent from the form, so absence means false for
// every bundle the panel knows about.
func (s *Service) submit(r *http.Request) handler.Response {
	ctx := r.Context()
	id, _ := userid.FromContext(ctx)
	ctrl := s.controller(id)

	if err := r.ParseForm(); err != nil {
		return handler.JSONError("bad_request", err, handler.WithJSONStatus(http.StatusBadRequest))
	}
	for bundleID := range ctrl.Edits() {
		if err := ctrl.SetEdit(bundleID, r.PostForm.Has("renew-"+bundleID)); err != nil {
			s.logger.DebugContext(ctx, "edit rejected",
				slog.String("bundle_id", bundleID), slog.Any("error", err))
		}
	}

	flight, err := ctrl.Submit(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "renewal submit rejected", slog.Any("error", err))
		return s.panelResponse(ctrl)
	}
	// The controller applies the outcome before the future resolves, so the
	// panel rendered below already reflects it.
	if _, err := flight.Await(); err != nil {
		s.logger.ErrorContext(ctx, "renewal submit failed", slog.Any("error", err))
	}
	return s.panelResponse(ctrl)
}

func (s *Service) panelResponse(ctrl *renewal.Controller) handler.Response {
	return handler.Templ(
		templates.RenewalPanel(buildPanel(ctrl)),
		handler.WithTarget("#renewal-panel"),
	)
}

// querySource serves the controller's fetches from the cached query.
type querySource struct {
	query *queryclient.Query[[]subs.UserSubscription]
}

func (s querySource) UserSubscriptions(ctx context.Context) ([]subs.UserSubscription, error) {
	return s.query.Get(ctx)
}

// queryUpdater forwards mutations to the contracts API and drops the cached
// snapshot once the backend accepted the change, so the next read refetches.
type queryUpdater struct {
	api   ContractsAPI
	query *queryclient.Query[[]subs.UserSubscription]
}

func (u *queryUpdater) SetAutoRenewal(ctx context.Context, settings map[string]bool) (renewal.UpdateResult, error) {
	result, err := u.api.SetAutoRenewal(ctx, settings)
	if err != nil {
		return renewal.UpdateResult{}, err
	}
	if result.Errors == "" {
		if err := u.query.Invalidate(ctx); err != nil {
			return renewal.UpdateResult{}, err
		}
	}
	return renewal.UpdateResult{Errors: result.Errors}, nil
}
