package auth

import (
	"context"

	"github.com/rahal-app/rahal-backend/internal/identity"
)

// SessionInfo verifies session cookies against the identity provider for
// middleware.SessionMiddleware.
type SessionInfo struct {
	Provider identity.Provider
}

func (si SessionInfo) VerifySession(ctx context.Context, cookie string) (*identity.Token, error) {
	return si.Provider.VerifySessionCookie(ctx, cookie)
}
