// Package httpserver wraps net/http with graceful shutdown on context
// cancellation or termination signals.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	ErrStart    = errors.New("httpserver: failed to start")
	ErrShutdown = errors.New("httpserver: failed to shut down cleanly")
)

// Config holds environment-driven server settings.
type Config struct {
	Addr            string        `env:"PORTAL_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"PORTAL_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"PORTAL_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"PORTAL_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"PORTAL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Server is an http.Server with lifecycle management.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// New returns a Server for the given config. A nil logger disables logging.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, logger: logger}
}

// Run serves handler until the context is cancelled or SIGINT/SIGTERM
// arrives, then shuts down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http server listening", slog.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return errors.Join(ErrStart, err)
	case <-ctx.Done():
	case sig := <-stop:
		s.logger.InfoContext(ctx, "shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(ErrShutdown, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	s.logger.Info("http server stopped")
	return nil
}
