// Package guard restricts a view to an explicit set of roles. It is the
// authoritative role check: the role is read from the profile store, never
// from the session_role hint cookie.
//
// Middleware applies the guard to server-rendered requests. Watcher is the
// render-loop helper for clients that re-evaluate the guard on every render
// and must act on a redirect only once.
package guard

import (
	"github.com/rahal-app/rahal-backend/internal/config"
	"github.com/rahal-app/rahal-backend/internal/profile"
)

type Outcome int

const (
	// Loading renders a neutral placeholder and never redirects.
	Loading Outcome = iota
	Render
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Viewer is an authenticated caller. Role is only meaningful when HasRole is
// true.
type Viewer struct {
	UID           string
	Email         string
	EmailVerified bool
	Role          profile.Role
	HasRole       bool
}

// State is the guard's input. A nil Viewer means no authenticated caller.
type State struct {
	Loading bool
	Viewer  *Viewer
}

type Decision struct {
	Outcome  Outcome
	Location string
	// Bypass is set when the view renders through the admin bootstrap
	// allow-list rather than a stored role.
	Bypass bool
}

type Guard struct {
	allowed     map[profile.Role]struct{}
	admitsAdmin bool
	bypass      *config.AllowList
	loginPath   string
}

type Option func(*Guard)

// WithAdminBypass lets allow-listed, verified emails into views that admit
// the admin role before any role is stored. It has no effect on other views.
func WithAdminBypass(list config.AllowList) Option {
	return func(g *Guard) {
		if !list.Empty() {
			g.bypass = &list
		}
	}
}

func WithLoginPath(path string) Option {
	return func(g *Guard) { g.loginPath = path }
}

func New(allowed []profile.Role, opts ...Option) *Guard {
	g := &Guard{
		allowed:   make(map[profile.Role]struct{}, len(allowed)),
		loginPath: profile.LoginRoute,
	}
	for _, r := range allowed {
		if !r.Valid() {
			continue
		}
		g.allowed[r] = struct{}{}
		if r == profile.RoleAdmin {
			g.admitsAdmin = true
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) LoginPath() string { return g.loginPath }

// Decide maps the current state to an outcome. Unauthorized viewers go to
// their own role's home route; viewers without a usable role go to login.
func (g *Guard) Decide(s State) Decision {
	if s.Loading {
		return Decision{Outcome: Loading}
	}
	v := s.Viewer
	if v == nil {
		return Decision{Outcome: Redirect, Location: g.loginPath}
	}
	if v.HasRole {
		if _, ok := g.allowed[v.Role]; ok {
			return Decision{Outcome: Render}
		}
	}
	if g.bypassed(v) {
		return Decision{Outcome: Render, Bypass: true}
	}
	if v.HasRole && v.Role.Valid() {
		return Decision{Outcome: Redirect, Location: v.Role.HomeRoute()}
	}
	return Decision{Outcome: Redirect, Location: g.loginPath}
}

func (g *Guard) bypassed(v *Viewer) bool {
	return g.bypass != nil && g.admitsAdmin && v.EmailVerified && g.bypass.Contains(v.Email)
}
