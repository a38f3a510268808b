package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFromDefaults(t *testing.T) {
	cfg := LoadFrom(envFrom(nil))

	if cfg.Env != EnvDevelopment || cfg.Port != DefaultPort {
		t.Errorf("unexpected defaults: env=%s port=%s", cfg.Env, cfg.Port)
	}
	if cfg.AdminSetupMode {
		t.Error("admin setup mode must default to disabled")
	}
	if !cfg.AdminEmails.Empty() {
		t.Error("allow-list should be empty")
	}
}

func TestAdminEmailsFirstNonEmptyWins(t *testing.T) {
	cfg := LoadFrom(envFrom(map[string]string{
		"ADMIN_EMAILS":             "  ",
		"NEXT_PUBLIC_ADMIN_EMAILS": "Ops@Rahal.app, second@rahal.app",
	}))
	if cfg.AdminEmails.Len() != 2 || !cfg.AdminEmails.Contains("ops@rahal.app") {
		t.Errorf("expected fallback variable to be used, got %d entries", cfg.AdminEmails.Len())
	}

	cfg = LoadFrom(envFrom(map[string]string{
		"ADMIN_EMAILS":             "first@rahal.app",
		"NEXT_PUBLIC_ADMIN_EMAILS": "second@rahal.app",
	}))
	if !cfg.AdminEmails.Contains("first@rahal.app") || cfg.AdminEmails.Contains("second@rahal.app") {
		t.Error("ADMIN_EMAILS should take precedence")
	}
}

func TestAllowListNormalizes(t *testing.T) {
	al := ParseAllowList(" Admin@Rahal.App ,,")
	if !al.Contains("  admin@rahal.app") {
		t.Error("expected normalized match")
	}
	if al.Contains("") {
		t.Error("empty email must never match")
	}
	var zero AllowList
	if zero.Contains("admin@rahal.app") || !zero.Empty() {
		t.Error("zero allow-list must be empty")
	}
}

func TestAdminSetupModeWarnsInProduction(t *testing.T) {
	cfg := LoadFrom(envFrom(map[string]string{
		"APP_ENV":          "production",
		"ADMIN_SETUP_MODE": "true",
		"ADMIN_EMAILS":     "a@rahal.app",
		"DATABASE_URL":     "postgres://x",
	}))
	if !cfg.AdminSetupMode {
		t.Fatal("expected setup mode enabled")
	}
	found := false
	for _, w := range cfg.Warnings() {
		if strings.Contains(w, "IN PRODUCTION") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected production warning, got %v", cfg.Warnings())
	}

	cfg = LoadFrom(envFrom(map[string]string{"ADMIN_SETUP_MODE": "yes please"}))
	if cfg.AdminSetupMode {
		t.Error("unparseable flag must stay disabled")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want error
	}{
		{map[string]string{}, ErrMissingIdentityCredentials},
		{map[string]string{"IDENTITY_SIGNING_SECRET": "s"}, nil},
		{map[string]string{"APP_ENV": "production", "IDENTITY_SERVICE_ACCOUNT": "/sa.json"}, ErrMissingDatabaseURL},
		{map[string]string{"APP_ENV": "production", "DATABASE_URL": "postgres://x", "IDENTITY_SIGNING_SECRET": "s"}, ErrSigningSecretInProduction},
		{map[string]string{"APP_ENV": "production", "DATABASE_URL": "postgres://x", "IDENTITY_SERVICE_ACCOUNT": "/sa.json"}, ErrMissingOTPWebhook},
		{map[string]string{"APP_ENV": "production", "DATABASE_URL": "postgres://x", "IDENTITY_SERVICE_ACCOUNT": "/sa.json", "OTP_WEBHOOK_URL": "https://relay.rahal.app/otp"}, nil},
	}
	for i, tc := range cases {
		if err := LoadFrom(envFrom(tc.env)).Validate(); !errors.Is(err, tc.want) {
			t.Errorf("case %d: Validate() = %v, want %v", i, err, tc.want)
		}
	}
}

func TestDefaultGateRules(t *testing.T) {
	rules := DefaultGateRules()
	if rules.MarkerCookie != "__rahal_session" {
		t.Errorf("marker cookie = %q", rules.MarkerCookie)
	}
	logins := map[string]string{}
	for _, r := range rules.Rules {
		logins[r.Prefix] = r.Login
	}
	want := map[string]string{"/app": "/login", "/portal": "/login", "/admin": "/admin/login"}
	for prefix, login := range want {
		if logins[prefix] != login {
			t.Errorf("prefix %s -> %q, want %q", prefix, logins[prefix], login)
		}
	}
}

func TestParseGateRulesRejectsLoops(t *testing.T) {
	raw := []byte("marker_cookie: m\nrules:\n  - prefix: /admin\n    login: /admin/login\n")
	if _, err := ParseGateRules(raw); err == nil {
		t.Fatal("expected self-gated login to be rejected")
	}

	raw = []byte("marker_cookie: m\nrules:\n  - prefix: /\n    login: /login\n")
	if _, err := ParseGateRules(raw); err == nil {
		t.Fatal("expected root prefix to be rejected")
	}
}

func TestLoadGateRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "marker_cookie: m\nrules:\n  - prefix: /trips/\n    login: /signin\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadGateRules(path)
	if err != nil {
		t.Fatalf("LoadGateRules: %v", err)
	}
	if len(rules.Rules) != 1 || rules.Rules[0].Prefix != "/trips" {
		t.Errorf("unexpected rules: %+v", rules)
	}
}
