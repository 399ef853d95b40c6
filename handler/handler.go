// Package handler contains the portal's HTTP plumbing: handlers return a
// Response value that knows how to render itself, either as plain HTML or as
// a Datastar SSE patch when the request comes from the Datastar frontend
// runtime.
package handler

import (
	"log/slog"
	"net/http"
)

// Response renders itself to the response writer; implementations set their
// own status code and headers.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Func is a portal HTTP handler. Returning nil renders 204 No Content.
type Func func(r *http.Request) Response

// Wrap turns a Func into an http.HandlerFunc. Render failures are logged
// and answered with a bare 500; by that point part of the body may already
// be written, so no fancier recovery is attempted.
func Wrap(logger *slog.Logger, fn Func) http.HandlerFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := fn(r)
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := resp.Render(w, r); err != nil {
			logger.ErrorContext(r.Context(), "response rendering failed",
				slog.String("path", r.URL.Path), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
