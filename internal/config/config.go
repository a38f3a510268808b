// Package config loads server configuration from the environment.
//
// Environment variables:
//   - APP_ENV: "production" or "development" (default: development)
//   - PORT: listen port (default: 5050)
//   - DATABASE_URL: Postgres DSN (required in production)
//   - REDIS_URL: Redis URL for pending sign-in challenges (optional)
//   - CORS_ALLOWED_ORIGINS: comma-separated origins
//   - IDENTITY_SERVICE_ACCOUNT: path to the identity-provider credential file
//   - IDENTITY_SIGNING_SECRET: HS256 secret, development only
//   - IDENTITY_ISSUER, IDENTITY_AUDIENCE: token issuer and audience overrides
//   - ADMIN_EMAILS or NEXT_PUBLIC_ADMIN_EMAILS: admin allow-list (first non-empty wins)
//   - ADMIN_SETUP_MODE: enables the admin bootstrap bypass (default: false)
//   - GATE_RULES_FILE: YAML admission rules (default: embedded rules)
//   - OTP_WEBHOOK_URL: relay for sign-in codes (required in production; otherwise codes are logged)
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

const DefaultPort = "5050"

var (
	ErrMissingDatabaseURL         = errors.New("config: DATABASE_URL is required in production")
	ErrMissingIdentityCredentials = errors.New("config: IDENTITY_SERVICE_ACCOUNT or IDENTITY_SIGNING_SECRET is required")
	ErrSigningSecretInProduction  = errors.New("config: IDENTITY_SIGNING_SECRET is not allowed in production")
	ErrMissingOTPWebhook          = errors.New("config: OTP_WEBHOOK_URL is required in production")
)

// AdminEmailVars are the accepted allow-list variable names, in priority order.
var AdminEmailVars = []string{"ADMIN_EMAILS", "NEXT_PUBLIC_ADMIN_EMAILS"}

type IdentityConfig struct {
	ServiceAccountPath string
	SigningSecret      string
	Issuer             string
	Audience           string
}

type Config struct {
	Env            Env
	Port           string
	DatabaseURL    string
	RedisURL       string
	AllowedOrigins []string
	Identity       IdentityConfig
	AdminEmails    AllowList
	AdminSetupMode bool
	GateRulesFile  string
	OTPWebhookURL  string

	warnings []string
}

// Load reads the process environment.
func Load() Config {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv.
func LoadFrom(getenv func(string) string) Config {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	cfg := Config{
		Env:           EnvDevelopment,
		Port:          get("PORT"),
		DatabaseURL:   get("DATABASE_URL"),
		RedisURL:      get("REDIS_URL"),
		GateRulesFile: get("GATE_RULES_FILE"),
		OTPWebhookURL: get("OTP_WEBHOOK_URL"),
		Identity: IdentityConfig{
			ServiceAccountPath: get("IDENTITY_SERVICE_ACCOUNT"),
			SigningSecret:      get("IDENTITY_SIGNING_SECRET"),
			Issuer:             get("IDENTITY_ISSUER"),
			Audience:           get("IDENTITY_AUDIENCE"),
		},
	}
	if strings.EqualFold(get("APP_ENV"), string(EnvProduction)) {
		cfg.Env = EnvProduction
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	cfg.AllowedOrigins = splitList(get("CORS_ALLOWED_ORIGINS"))

	for _, name := range AdminEmailVars {
		if raw := get(name); raw != "" {
			cfg.AdminEmails = ParseAllowList(raw)
			break
		}
	}
	if cfg.AdminEmails.Empty() {
		cfg.warnings = append(cfg.warnings, "admin allow-list is empty: admin bootstrap will refuse every caller")
	}

	if raw := get("ADMIN_SETUP_MODE"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			cfg.warnings = append(cfg.warnings, "ADMIN_SETUP_MODE is not a boolean, treating as disabled")
		}
		cfg.AdminSetupMode = enabled
	}
	if cfg.AdminSetupMode {
		msg := "ADMIN_SETUP_MODE is enabled: allow-listed emails bypass the admin role guard"
		if cfg.IsProduction() {
			msg += " IN PRODUCTION; disable it once the first admin exists"
		}
		cfg.warnings = append(cfg.warnings, msg)
	}

	if cfg.DatabaseURL == "" && !cfg.IsProduction() {
		cfg.warnings = append(cfg.warnings, "DATABASE_URL is empty: profiles and accounts are kept in memory")
	}
	return cfg
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// Validate reports configuration that makes the server unusable.
func (c Config) Validate() error {
	if c.IsProduction() && c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Identity.ServiceAccountPath == "" && c.Identity.SigningSecret == "" {
		return ErrMissingIdentityCredentials
	}
	if c.IsProduction() && c.Identity.SigningSecret != "" {
		return ErrSigningSecretInProduction
	}
	// Without a relay, sign-in codes would only reach the logs.
	if c.IsProduction() && c.OTPWebhookURL == "" {
		return ErrMissingOTPWebhook
	}
	return nil
}

// Warnings lists non-fatal problems to log at startup.
func (c Config) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
