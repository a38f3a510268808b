// Package app assembles the HTTP surface from its parts.
package app

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/admin"
	"github.com/rahal-app/rahal-backend/internal/auth"
	"github.com/rahal-app/rahal-backend/internal/challenge"
	"github.com/rahal-app/rahal-backend/internal/config"
	"github.com/rahal-app/rahal-backend/internal/gate"
	"github.com/rahal-app/rahal-backend/internal/guard"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/metrics"
	"github.com/rahal-app/rahal-backend/internal/middleware"
	"github.com/rahal-app/rahal-backend/internal/profile"
	"github.com/rahal-app/rahal-backend/internal/ratelimit"
	"github.com/rahal-app/rahal-backend/internal/views"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Config     config.Config
	Logger     *zap.Logger
	Provider   identity.Provider
	Profiles   profile.Store
	Challenges challenge.Store
	Sender     challenge.Sender
	GateRules  config.GateRules
	// Registry receives the process metrics. A nil Registry disables them.
	Registry *prometheus.Registry
	// ChallengeOptions are appended to the challenge service defaults.
	ChallengeOptions []challenge.Option
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

// NewRouter wires every package into one handler.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config

	var m *metrics.Metrics
	if d.Registry != nil {
		m = metrics.New(d.Registry)
	}
	limitOpts := []ratelimit.Option{ratelimit.WithMetrics(m)}

	roles := profile.NewResolver(d.Profiles)
	sessions := auth.SessionInfo{Provider: d.Provider}

	authSvc := auth.NewService(d.Provider, roles, log.Named("auth"), !cfg.IsProduction())
	authHandler := auth.NewHandler(authSvc, auth.CookieConfig{Secure: cfg.IsProduction()}, log.Named("auth"), m)

	challengeOpts := append([]challenge.Option{challenge.WithMetrics(m)}, d.ChallengeOptions...)
	challengeSvc := challenge.NewService(d.Challenges, d.Sender, d.Provider, log.Named("challenge"), challengeOpts...)
	challengeHandler := challenge.NewHandler(challengeSvc, log.Named("challenge"))

	profileHandler := profile.NewHandler(profile.NewService(d.Profiles, log.Named("profile")), log.Named("profile"))

	adminSvc := admin.NewService(d.Profiles, d.Provider, cfg.AdminEmails, log.Named("admin"))
	adminHandler := admin.NewHandler(adminSvc, authSvc, d.Profiles, log.Named("admin"), m)

	rules := d.GateRules
	if len(rules.Rules) == 0 {
		rules = config.DefaultGateRules()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(gate.New(rules).Middleware)

	r.Get("/", RootHandler)
	r.Get("/healthz", RootHandler)
	if d.Registry != nil {
		r.Handle("/metrics", metrics.Handler(d.Registry))
	}

	requireSession := middleware.SessionMiddleware(sessions)
	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth/challenge", challenge.SetupRoutes(challengeHandler, challenge.DefaultLimits(limitOpts...)))
		r.Mount("/auth", auth.SetupRoutes(authHandler))
		r.Mount("/profile", profile.SetupRoutes(profileHandler, requireSession))
		r.Mount("/admin", admin.SetupRoutes(adminHandler, admin.DefaultLimits(limitOpts...),
			requireSession, middleware.AdminMiddleware(roles)))
	})

	var bypass config.AllowList
	if cfg.AdminSetupMode {
		bypass = cfg.AdminEmails
	}
	views.Register(r, middleware.OptionalSession(sessions), guard.ProfileViewerLoader{Roles: roles}, bypass, log.Named("guard"))

	return r
}
