package views

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/config"
	"github.com/rahal-app/rahal-backend/internal/guard"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/profile"
	"github.com/rahal-app/rahal-backend/internal/utils"
)

type roleMap map[string]profile.Role

func (m roleMap) ResolveRole(_ context.Context, uid string) (profile.Role, bool, error) {
	r, ok := m[uid]
	return r, ok, nil
}

// sessionFor injects a token for the uid named in the X-Test-User header.
func sessionFor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := r.Header.Get("X-Test-User"); uid != "" {
			tok := &identity.Token{UID: uid, Email: uid + "@rahal.app", EmailVerified: true}
			r = r.WithContext(utils.WithToken(r.Context(), tok))
		}
		next.ServeHTTP(w, r)
	})
}

func newRouter(bypass string) http.Handler {
	r := chi.NewRouter()
	roles := roleMap{
		"traveler": profile.RoleTraveler,
		"owner":    profile.RoleCampaignOwner,
		"admin":    profile.RoleAdmin,
	}
	Register(r, sessionFor, guard.ProfileViewerLoader{Roles: roles}, config.ParseAllowList(bypass), zap.NewNop())
	return r
}

func get(h http.Handler, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAreas(t *testing.T) {
	h := newRouter("")

	tests := []struct {
		path, user string
		code       int
		location   string
	}{
		{"/app/discover", "traveler", http.StatusOK, ""},
		{"/app", "traveler", http.StatusOK, ""},
		{"/admin/dashboard", "traveler", http.StatusSeeOther, "/app/discover"},
		{"/portal/dashboard", "owner", http.StatusOK, ""},
		{"/app/discover", "owner", http.StatusSeeOther, "/portal/dashboard"},
		{"/admin/dashboard", "admin", http.StatusOK, ""},
		{"/portal/dashboard", "admin", http.StatusSeeOther, "/admin/dashboard"},
		{"/admin/dashboard", "", http.StatusSeeOther, "/admin/login?next=%2Fadmin%2Fdashboard"},
		{"/app/discover", "stranger", http.StatusSeeOther, "/login?next=%2Fapp%2Fdiscover"},
	}
	for _, tt := range tests {
		rec := get(h, tt.path, tt.user)
		if rec.Code != tt.code {
			t.Errorf("%s as %q: expected %d, got %d", tt.path, tt.user, tt.code, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != tt.location {
			t.Errorf("%s as %q: Location = %q, want %q", tt.path, tt.user, loc, tt.location)
		}
	}
}

func TestAdminBootstrapBypassOnlyForAdminArea(t *testing.T) {
	h := newRouter("newbie@rahal.app")

	rec := get(h, "/admin/setup", "newbie")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected bypass render, got %d", rec.Code)
	}
	var p page
	_ = json.Unmarshal(rec.Body.Bytes(), &p)
	if !p.Bypass || p.UID != "newbie" {
		t.Errorf("page = %+v", p)
	}

	if rec := get(h, "/portal/dashboard", "newbie"); rec.Code != http.StatusSeeOther {
		t.Errorf("portal must not be bypassed, got %d", rec.Code)
	}
}

func TestLoginPages(t *testing.T) {
	h := newRouter("")
	for _, path := range []string{"/login?next=%2Fapp%2Fdiscover", "/admin/login"} {
		if rec := get(h, path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"/app/discover":        "/app/discover",
		"/app/trips?id=3":      "/app/trips?id=3",
		"":                     "",
		"https://evil.example": "",
		"//evil.example":       "",
		"/\\evil.example":      "",
		"app":                  "",
	}
	for in, want := range tests {
		if got := SafeNext(in); got != want {
			t.Errorf("SafeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
