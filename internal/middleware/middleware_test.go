package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/middleware"
	"github.com/rahal-app/rahal-backend/internal/profile"
	"github.com/rahal-app/rahal-backend/internal/utils"
)

// mockVerifier implements middleware.SessionVerifier without an identity provider.
type mockVerifier struct {
	token *identity.Token
	err   error
}

func (m mockVerifier) VerifySession(ctx context.Context, cookie string) (*identity.Token, error) {
	return m.token, m.err
}

// mockResolver implements middleware.RoleResolver without a profile store.
type mockResolver struct {
	role profile.Role
	ok   bool
	err  error
}

func (m mockResolver) ResolveRole(ctx context.Context, uid string) (profile.Role, bool, error) {
	return m.role, m.ok, m.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// callWithCookie wraps a 200-OK inner handler in mw, optionally setting one
// cookie on the request, and returns the recorded response.
func callWithCookie(t *testing.T, mw func(http.Handler) http.Handler, cookieName, cookieValue string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if cookieName != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: cookieValue})
	}
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	return rec
}

func TestSessionMiddleware_MissingCookie(t *testing.T) {
	mw := middleware.SessionMiddleware(mockVerifier{token: &identity.Token{UID: "u"}})

	rec := callWithCookie(t, mw, "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// The role and marker cookies are hints and never authenticate a request.
func TestSessionMiddleware_HintCookiesAreNotCredentials(t *testing.T) {
	mw := middleware.SessionMiddleware(mockVerifier{token: &identity.Token{UID: "u"}})

	for _, name := range []string{utils.RoleCookieName, utils.MarkerCookieName} {
		if rec := callWithCookie(t, mw, name, "admin"); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestSessionMiddleware_VerifierError(t *testing.T) {
	mw := middleware.SessionMiddleware(mockVerifier{err: errors.New("token expired at 12:00")})

	rec := callWithCookie(t, mw, utils.SessionCookieName, "expired")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "expired") {
		t.Errorf("verification detail leaked: %q", rec.Body.String())
	}
}

func TestSessionMiddleware_ValidSession(t *testing.T) {
	const wantUserID = "test-user-123"
	mw := middleware.SessionMiddleware(mockVerifier{token: &identity.Token{UID: wantUserID}})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok || gotUserID != wantUserID {
			http.Error(w, "wrong userID in context: "+gotUserID, http.StatusInternalServerError)
			return
		}
		if _, ok := utils.GetTokenFromContext(r.Context()); !ok {
			http.Error(w, "token not in context", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: "valid"})
	rec := httptest.NewRecorder()
	mw(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

func TestOptionalSession(t *testing.T) {
	var sawUser bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawUser = utils.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	bad := middleware.OptionalSession(mockVerifier{err: errors.New("bad")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: "x"})
	rec := httptest.NewRecorder()
	bad(inner).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sawUser {
		t.Errorf("invalid session should pass through anonymously: code=%d user=%v", rec.Code, sawUser)
	}

	good := middleware.OptionalSession(mockVerifier{token: &identity.Token{UID: "u"}})
	rec = httptest.NewRecorder()
	good(inner).ServeHTTP(rec, req)
	if !sawUser {
		t.Error("valid session should be attached")
	}
}

// AdminMiddleware returns 401 when SessionMiddleware did not run.
func TestAdminMiddleware_MissingUserID(t *testing.T) {
	mw := middleware.AdminMiddleware(mockResolver{role: profile.RoleAdmin, ok: true})

	rec := callWithCookie(t, mw, "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAdminMiddleware_Roles(t *testing.T) {
	tests := []struct {
		name     string
		resolver mockResolver
		want     int
	}{
		{"admin", mockResolver{role: profile.RoleAdmin, ok: true}, http.StatusOK},
		{"super admin", mockResolver{role: profile.RoleSuperAdmin, ok: true}, http.StatusOK},
		{"traveler", mockResolver{role: profile.RoleTraveler, ok: true}, http.StatusForbidden},
		{"no role", mockResolver{}, http.StatusForbidden},
		{"store error", mockResolver{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req = req.WithContext(utils.WithToken(req.Context(), &identity.Token{UID: "u"}))
			rec := httptest.NewRecorder()
			middleware.AdminMiddleware(tt.resolver)(okHandler).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	mw := middleware.CORSMiddleware([]string{"https://rahal.app"})

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/session", nil)
	req.Header.Set("Origin", "https://rahal.app")
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://rahal.app" {
		t.Error("allowed origin not echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be echoed")
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mw := middleware.RequestLogger(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	mw(okHandler).ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/healthz" || fields["status"] != int64(http.StatusOK) {
		t.Errorf("unexpected fields: %v", fields)
	}
}
