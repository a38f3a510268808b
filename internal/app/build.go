package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/auth"
	"github.com/rahal-app/rahal-backend/internal/challenge"
	"github.com/rahal-app/rahal-backend/internal/config"
	"github.com/rahal-app/rahal-backend/internal/db"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/profile"
)

// Build connects the backing services named by cfg and returns the router
// dependencies. Without DATABASE_URL or REDIS_URL the in-memory stores are
// used. The returned func releases every connection.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (Deps, func(), error) {
		cleanup()
		return Deps{}, func() {}, err
	}

	d := Deps{Config: cfg, Logger: log}

	var accounts identity.AccountStore
	if cfg.DatabaseURL != "" {
		gdb, err := db.Connect(cfg.DatabaseURL, log)
		if err != nil {
			return fail(err)
		}
		if sqlDB, err := gdb.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		if err := auth.Init(gdb); err != nil {
			return fail(err)
		}
		if err := profile.Init(gdb); err != nil {
			return fail(err)
		}
		accounts = identity.NewGormAccountStore(gdb)
		d.Profiles = profile.NewGormStore(gdb)
	} else {
		accounts = identity.NewMemoryAccountStore()
		d.Profiles = profile.NewMemoryStore()
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("app: parse REDIS_URL: %w", err))
		}
		client := redis.NewClient(opts)
		closers = append(closers, func() { _ = client.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return fail(fmt.Errorf("app: ping redis: %w", err))
		}
		d.Challenges = challenge.NewRedisStore(client, "")
	} else {
		d.Challenges = challenge.NewMemoryStore()
	}

	provider, err := newProvider(cfg, accounts)
	if err != nil {
		return fail(err)
	}
	d.Provider = provider

	switch {
	case cfg.OTPWebhookURL != "":
		d.Sender = challenge.NewWebhookSender(cfg.OTPWebhookURL)
	case cfg.IsProduction():
		return fail(config.ErrMissingOTPWebhook)
	default:
		d.Sender = challenge.LogSender{Logger: log.Named("otp")}
	}

	rules, err := config.LoadGateRules(cfg.GateRulesFile)
	if err != nil {
		return fail(err)
	}
	d.GateRules = rules

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	d.Registry = reg

	return d, cleanup, nil
}

func newProvider(cfg config.Config, accounts identity.AccountStore) (*identity.JWTProvider, error) {
	if path := cfg.Identity.ServiceAccountPath; path != "" {
		sa, err := identity.LoadServiceAccount(path)
		if err != nil {
			return nil, err
		}
		return identity.NewJWTProvider(sa.Config(cfg.Identity.Issuer, cfg.Identity.Audience), accounts)
	}

	issuer, audience := cfg.Identity.Issuer, cfg.Identity.Audience
	if issuer == "" {
		issuer = "rahal-dev"
	}
	if audience == "" {
		audience = "rahal"
	}
	return identity.NewJWTProvider(identity.Config{
		SigningMethod: identity.MethodHS256,
		PrivateKey:    []byte(cfg.Identity.SigningSecret),
		Issuer:        issuer,
		Audience:      audience,
	}, accounts)
}
