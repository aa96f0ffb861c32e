package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/power-data-portal/api"
	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/auth"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	"github.com/frahmantamala/power-data-portal/internal/history"
	"github.com/frahmantamala/power-data-portal/internal/transport"
	"github.com/frahmantamala/power-data-portal/internal/transport/middleware"
	"github.com/frahmantamala/power-data-portal/internal/transport/swagger"
	"github.com/frahmantamala/power-data-portal/internal/user"
	"github.com/frahmantamala/power-data-portal/internal/workflow"
	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
)

// Route is one entry of the access policy table.
type Route struct {
	Method  string
	Pattern string
	Access  auth.Access
	// Limited routes go through the Redis rate limiter.
	Limited bool
	Handler http.HandlerFunc
}

type Handlers struct {
	Health    *HealthHandler
	Auth      *auth.Handler
	Users     *user.Handler
	Equipment *equipment.Handler
	Workflow  *workflow.Handler
	History   *history.Handler
}

type Options struct {
	AllowedOrigins string
	RateLimit      internal.RateLimitConfig
	// Redis may be nil; rate limiting is then a passthrough.
	Redis  redis.Scripter
	Logger *slog.Logger
}

// Routes returns the policy table under /api. Equipment routes resolve
// {dataType} against the closed kind registry, so static routes registered
// here take precedence over a kind of the same name.
func Routes(base *transport.BaseHandler, h Handlers) []Route {
	kind := func(build func(equipment.Descriptor) http.HandlerFunc) http.HandlerFunc {
		return equipment.ForKind(base, build)
	}

	return []Route{
		{http.MethodGet, "/ping", auth.Public, false, h.Health.Ping},
		{http.MethodGet, "/health", auth.Public, false, h.Health.Check},

		{http.MethodPost, "/login", auth.Public, true, h.Auth.Login},
		{http.MethodPost, "/requestLogin", auth.Public, true, h.Auth.Register},
		{http.MethodPost, "/forgot-password", auth.Public, true, h.Auth.ForgotPassword},
		{http.MethodPost, "/reset-password", auth.Public, true, h.Auth.ResetPassword},
		{http.MethodGet, "/user/profile", auth.Authenticated, false, h.Auth.Profile},
		{http.MethodPut, "/user/change-password", auth.Authenticated, false, h.Auth.ChangePassword},

		{http.MethodGet, "/users", auth.AdminOnly, false, h.Users.List},
		{http.MethodPatch, "/users/{id}", auth.AdminOnly, false, h.Users.Update},
		{http.MethodDelete, "/users/{id}", auth.AdminOnly, false, h.Users.Delete},

		{http.MethodGet, "/pending-requests", auth.AdminOnly, false, h.Workflow.ListRequests},
		{http.MethodPatch, "/update-request/{id}", auth.AdminOnly, false, h.Workflow.Decide},
		{http.MethodDelete, "/update-request/{id}", auth.AdminOnly, false, h.Workflow.Discard},

		{http.MethodGet, "/history", auth.AdminOnly, false, h.History.List},
		{http.MethodDelete, "/history/{id}", auth.AdminOnly, false, h.History.Delete},

		{http.MethodGet, "/data-types", auth.Authenticated, false, h.Equipment.DataTypes},
		{http.MethodGet, "/{dataType}", auth.Authenticated, false, kind(h.Equipment.List)},
		{http.MethodPost, "/{dataType}", auth.Authenticated, false, kind(h.Workflow.Submit)},
		{http.MethodGet, "/{dataType}/{id}", auth.Authenticated, false, kind(h.Equipment.Get)},
		{http.MethodPut, "/{dataType}/{id}", auth.AdminOnly, false, kind(h.Equipment.Update)},
		{http.MethodPatch, "/{dataType}/{id}", auth.AdminOnly, false, kind(h.Equipment.Update)},
		{http.MethodDelete, "/{dataType}/{id}", auth.AdminOnly, false, kind(h.Equipment.Delete)},
	}
}

func RegisterAllRoutes(router *chi.Mux, guard *auth.Guard, base *transport.BaseHandler, h Handlers, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = base.Logger
	}
	limiter := middleware.RateLimit(opts.RateLimit, opts.Redis, logger)

	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		for _, rt := range Routes(base, h) {
			var chain []func(http.Handler) http.Handler
			if rt.Limited {
				chain = append(chain, limiter)
			}
			if rt.Access != auth.Public {
				chain = append(chain, guard.Chain(rt.Access)...)
				chain = append(chain, middleware.UserContext)
			}
			r.With(chain...).Method(rt.Method, rt.Pattern, rt.Handler)
		}
	})
}
