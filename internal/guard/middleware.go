package guard

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/middleware"
	"github.com/rahal-app/rahal-backend/internal/utils"
)

// ViewerLoader resolves the viewer for a verified session token.
type ViewerLoader interface {
	LoadViewer(ctx context.Context, tok *identity.Token) (*Viewer, error)
}

// ProfileViewerLoader reads the viewer's role from the profile store.
type ProfileViewerLoader struct {
	Roles middleware.RoleResolver
}

func (l ProfileViewerLoader) LoadViewer(ctx context.Context, tok *identity.Token) (*Viewer, error) {
	role, ok, err := l.Roles.ResolveRole(ctx, tok.UID)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		UID:           tok.UID,
		Email:         tok.Email,
		EmailVerified: tok.EmailVerified,
		Role:          role,
		HasRole:       ok,
	}, nil
}

type viewerKey struct{}

// ViewerFromContext returns the viewer admitted by Middleware.
func ViewerFromContext(ctx context.Context) (*Viewer, bool) {
	v, ok := ctx.Value(viewerKey{}).(*Viewer)
	return v, ok
}

// Middleware is the server-rendered form of the guard. It expects
// middleware.OptionalSession upstream and answers redirects with 303.
func Middleware(g *Guard, loader ViewerLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var viewer *Viewer
			if tok, ok := utils.GetTokenFromContext(r.Context()); ok {
				v, err := loader.LoadViewer(r.Context(), tok)
				if err != nil {
					logger.Error("guard: viewer lookup failed", zap.String("uid", tok.UID), zap.Error(err))
					autherr.Write(w, err)
					return
				}
				viewer = v
			}

			d := g.Decide(State{Viewer: viewer})
			switch d.Outcome {
			case Render:
				if d.Bypass {
					logger.Warn("guard: admin bootstrap bypass used", zap.String("uid", viewer.UID), zap.String("path", r.URL.Path))
				}
				ctx := context.WithValue(r.Context(), viewerKey{}, viewer)
				next.ServeHTTP(w, r.WithContext(ctx))
			case Redirect:
				if d.Location == r.URL.Path {
					// A role whose home is this very view is not allowed here.
					logger.Error("guard: redirect would loop", zap.String("path", r.URL.Path))
					autherr.Write(w, autherr.ErrForbidden)
					return
				}
				location := d.Location
				if location == g.LoginPath() {
					location += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
				}
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, location, http.StatusSeeOther)
			}
		})
	}
}
