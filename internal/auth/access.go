package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/frahmantamala/power-data-portal/internal/transport"
)

// Access is the minimum caller level a route requires.
type Access int

const (
	Public Access = iota
	Authenticated
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "user"
	case AdminOnly:
		return "admin"
	}
	return "unknown"
}

type IdentifierAPI interface {
	Identify(ctx context.Context, token string) (user.Identity, error)
}

// Guard enforces access levels. A missing or invalid token is 401, a role
// below the requirement is 403.
type Guard struct {
	*transport.BaseHandler
	identifier IdentifierAPI
}

func NewGuard(baseHandler *transport.BaseHandler, identifier IdentifierAPI) *Guard {
	return &Guard{BaseHandler: baseHandler, identifier: identifier}
}

// Authenticate resolves the bearer token and stores the identity in the
// request context.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.identifier.Identify(r.Context(), transport.BearerToken(r))
		if err != nil {
			g.Logger.Warn("authentication failed", "error", err, "path", r.URL.Path)
			g.HandleServiceError(w, err)
			return
		}
		ctx := internal.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Authenticate.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := internal.IdentityFromContext(r.Context())
		if !ok {
			g.HandleServiceError(w, internal.ErrMissingToken)
			return
		}
		if !identity.IsAdmin() {
			g.Logger.Warn("access denied: admin required",
				"user_id", identity.UserID,
				"role", identity.Role,
				"path", r.URL.Path)
			g.HandleServiceError(w, internal.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chain returns the middleware stack for an access level.
func (g *Guard) Chain(access Access) []func(http.Handler) http.Handler {
	switch access {
	case Authenticated:
		return []func(http.Handler) http.Handler{g.Authenticate}
	case AdminOnly:
		return []func(http.Handler) http.Handler{g.Authenticate, g.RequireAdmin}
	}
	return nil
}
