package challenge

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rahal-app/rahal-backend/internal/ratelimit"
)

// Limits are the per-IP limiters for starting and confirming challenges.
type Limits struct {
	Start   *ratelimit.Limiter
	Confirm *ratelimit.Limiter
}

// DefaultLimits allows 5 starts and 10 confirmations per minute per IP.
func DefaultLimits(opts ...ratelimit.Option) Limits {
	named := func(name string) []ratelimit.Option {
		return append([]ratelimit.Option{ratelimit.WithName(name)}, opts...)
	}
	return Limits{
		Start:   ratelimit.New(5, time.Minute, named("challenge_start")...),
		Confirm: ratelimit.New(10, time.Minute, named("challenge_confirm")...),
	}
}

func SetupRoutes(h *Handler, limits Limits) http.Handler {
	r := chi.NewRouter()

	r.With(ratelimit.Middleware(limits.Start)).Post("/", h.StartHandler)
	r.With(ratelimit.Middleware(limits.Confirm)).Post("/confirm", h.ConfirmHandler)

	return r
}
