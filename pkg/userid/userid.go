// Package userid resolves the authenticated user's id from the X-User-ID
// header set by the fronting auth proxy and carries it through the request
// context. The portal itself does no authentication; a request without a
// parseable user id is rejected before any handler runs.
package userid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header carries the authenticated user's id, set by the auth proxy.
const Header = "X-User-ID"

type contextKey struct{}

// WithContext stores the user id in the context.
func WithContext(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the user id and whether one is set.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	return id, ok
}

// Middleware extracts the user id from the header into the context and
// answers 401 when the header is missing or not a UUID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(Header))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}
