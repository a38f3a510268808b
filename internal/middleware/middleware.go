package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/profile"
	"github.com/rahal-app/rahal-backend/internal/utils"
)

// SessionVerifier checks a session artifact taken from the session cookie.
type SessionVerifier interface {
	VerifySession(ctx context.Context, cookie string) (*identity.Token, error)
}

// RoleResolver reads a subject's authoritative role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, uid string) (profile.Role, bool, error)
}

// SessionMiddleware requires a valid session cookie and stores the verified
// token on the request context.
func SessionMiddleware(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(utils.SessionCookieName)
			if err != nil || cookie.Value == "" {
				autherr.Write(w, autherr.ErrMissingToken)
				return
			}

			tok, err := verifier.VerifySession(r.Context(), cookie.Value)
			if err != nil {
				autherr.Write(w, autherr.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithToken(r.Context(), tok)))
		})
	}
}

// OptionalSession attaches the verified token when the session cookie is
// valid and otherwise lets the request through unauthenticated.
func OptionalSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(utils.SessionCookieName); err == nil && cookie.Value != "" {
				if tok, err := verifier.VerifySession(r.Context(), cookie.Value); err == nil {
					r = r.WithContext(utils.WithToken(r.Context(), tok))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware echoes the Origin back only when it is on allowed.
func CORSMiddleware(allowed []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		origins[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := origins[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			w.Header().Set("Access-Control-Expose-Headers", "Retry-After")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware admits only subjects whose stored role is in the admin set.
// It must run after SessionMiddleware.
func AdminMiddleware(resolver RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				autherr.Write(w, autherr.ErrMissingToken)
				return
			}

			role, ok, err := resolver.ResolveRole(r.Context(), userID)
			if err != nil {
				autherr.Write(w, err)
				return
			}
			if !ok || !role.IsAdmin() {
				autherr.Write(w, autherr.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
