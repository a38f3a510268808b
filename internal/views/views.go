// Package views serves the role-guarded page routes. Page bodies are rendered
// by the web client; the server decides admission and returns the view
// descriptor.
package views

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/config"
	"github.com/rahal-app/rahal-backend/internal/guard"
	"github.com/rahal-app/rahal-backend/internal/httputil"
	"github.com/rahal-app/rahal-backend/internal/profile"
)

// Area is a group of views admitting the same roles.
type Area struct {
	Prefix string
	Roles  []profile.Role
	Login  string
}

var Areas = []Area{
	{Prefix: "/app", Roles: []profile.Role{profile.RoleTraveler}, Login: profile.LoginRoute},
	{Prefix: "/portal", Roles: []profile.Role{profile.RoleCampaignOwner, profile.RoleCampaignStaff}, Login: profile.LoginRoute},
	{Prefix: "/admin", Roles: []profile.Role{profile.RoleAdmin, profile.RoleSuperAdmin}, Login: "/admin/login"},
}

type page struct {
	View   string `json:"view"`
	UID    string `json:"uid,omitempty"`
	Role   string `json:"role,omitempty"`
	Next   string `json:"next,omitempty"`
	Bypass bool   `json:"bootstrap,omitempty"`
}

// Register mounts the login pages and every guarded area on r. session should
// be middleware.OptionalSession; bypass is the admin bootstrap allow-list and
// may be empty.
func Register(r chi.Router, session func(http.Handler) http.Handler, loader guard.ViewerLoader, bypass config.AllowList, logger *zap.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Get("/login", LoginHandler)
		r.Get("/admin/login", LoginHandler)

		for _, a := range Areas {
			g := guard.New(a.Roles, guard.WithLoginPath(a.Login), guard.WithAdminBypass(bypass))
			r.Group(func(r chi.Router) {
				r.Use(guard.Middleware(g, loader, logger))
				r.Get(a.Prefix, PageHandler)
				r.Get(a.Prefix+"/*", PageHandler)
			})
		}
	})
}

func PageHandler(w http.ResponseWriter, r *http.Request) {
	p := page{View: r.URL.Path}
	if v, ok := guard.ViewerFromContext(r.Context()); ok && v != nil {
		p.UID = v.UID
		p.Role = string(v.Role)
		p.Bypass = !v.HasRole
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, p)
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, page{
		View: r.URL.Path,
		Next: SafeNext(r.URL.Query().Get("next")),
	})
}

// SafeNext returns next if it is a same-site path, else "".
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
