package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rahal-app/rahal-backend/internal/ratelimit"
)

// Limits are the per-IP limiters for the privileged endpoints.
type Limits struct {
	Promote *ratelimit.Limiter
	Sync    *ratelimit.Limiter
}

// DefaultLimits caps promotion at 5 and claim sync at 10 calls per minute.
func DefaultLimits(opts ...ratelimit.Option) Limits {
	named := func(name string) []ratelimit.Option {
		return append([]ratelimit.Option{ratelimit.WithName(name)}, opts...)
	}
	return Limits{
		Promote: ratelimit.New(5, time.Minute, named("admin_bootstrap")...),
		Sync:    ratelimit.New(10, time.Minute, named("admin_claims_sync")...),
	}
}

// SetupRoutes mounts the admin API. Privileged calls are rate limited before
// the bearer token is even looked at; the profile lookup needs an admin
// session.
func SetupRoutes(h *Handler, limits Limits, session, requireAdmin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.With(ratelimit.Middleware(limits.Promote)).Post("/bootstrap", h.PromoteHandler)
	r.With(ratelimit.Middleware(limits.Sync)).Post("/claims/sync", h.SyncClaimsHandler)

	r.Group(func(r chi.Router) {
		r.Use(session, requireAdmin)
		r.Get("/profiles/{uid}", h.GetProfileHandler)
	})

	return r
}
