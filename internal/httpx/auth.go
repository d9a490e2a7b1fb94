package httpx

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/rs/zerolog"
	"net/http"
)

// Identity headers set by the upstream auth gateway.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

type identityKey struct{}

func identityFrom(ctx context.Context) (orders.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(orders.Identity)
	return id, ok
}

// requireUser trusts the gateway headers; a request without a user id is
// rejected.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := orders.Identity{
			ID:   r.Header.Get(HeaderUserID),
			Name: r.Header.Get(HeaderUserName),
			Role: r.Header.Get(HeaderUserRole),
		}
		if user.ID == "" {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", user.ID)
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, user)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := identityFrom(r.Context())
		if !ok || !user.IsAdmin() {
			writeMessage(w, http.StatusUnauthorized, "Not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}
