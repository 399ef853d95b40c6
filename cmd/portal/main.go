// The portal binary serves the subscription management UI: the subscription
// list and the renewal settings panel, backed by the contracts API.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/renewkit/renewkit/modules/subscriptions"
	"github.com/renewkit/renewkit/pkg/config"
	"github.com/renewkit/renewkit/pkg/contracts"
	"github.com/renewkit/renewkit/pkg/httpserver"
	"github.com/renewkit/renewkit/pkg/logger"
	"github.com/renewkit/renewkit/pkg/queryclient"
	"github.com/renewkit/renewkit/pkg/redis"
	"github.com/renewkit/renewkit/pkg/requestid"
)

type appConfig struct {
	Logger    logger.Config
	Server    httpserver.Config
	Contracts contracts.Config
	Module    subscriptions.Config

	// CacheBackend selects where query snapshots live: "memory" for a
	// single replica, "redis" to share snapshots across replicas.
	CacheBackend  string        `env:"PORTAL_CACHE_BACKEND" envDefault:"memory"`
	CacheCapacity int           `env:"PORTAL_CACHE_CAPACITY" envDefault:"4096"`
	CacheTTL      time.Duration `env:"PORTAL_CACHE_TTL" envDefault:"5m"`
	Redis         redis.Config

	// PendingPurchaseID is handed over from checkout and seeded into the
	// query cache at startup so the UI can poll the purchase's status.
	PendingPurchaseID string `env:"PORTAL_PENDING_PURCHASE_ID"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(cfg.Logger, logger.WithService("portal"))

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("portal exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	queries := queryclient.New(store, queryclient.WithTTL(cfg.CacheTTL))

	if cfg.PendingPurchaseID != "" {
		if err := queries.Seed(ctx, "pending-purchase-id", cfg.PendingPurchaseID); err != nil {
			return err
		}
		log.InfoContext(ctx, "seeded pending purchase id")
	}

	api, err := contracts.NewClient(cfg.Contracts)
	if err != nil {
		return err
	}

	module := subscriptions.NewService(cfg.Module, api, queries, subscriptions.WithLogger(log))

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(requestid.Middleware)
	mux.Mount("/subscriptions", module.Handle())

	return httpserver.New(cfg.Server, log).Run(ctx, mux)
}

func newStore(ctx context.Context, cfg appConfig) (queryclient.Store, error) {
	if cfg.CacheBackend == "redis" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return queryclient.NewRedisStore(client, "portal:"), nil
	}
	return queryclient.NewMemoryStore(cfg.CacheCapacity), nil
}
