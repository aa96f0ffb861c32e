package middleware

import (
	"net/http"

	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/pkg/logger"
)

// UserContext adds the authenticated caller to the request logger. It must
// run after authentication.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := internal.IdentityFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", identity.UserID, "role", identity.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
