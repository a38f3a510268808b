package auth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/middleware"
)

// Service bridges identity tokens into sessions and verified callers.
type Service struct {
	provider identity.Provider
	roles    middleware.RoleResolver
	logger   *zap.Logger
	// verbose logs provider failure reasons; off in production.
	verbose bool
}

func NewService(provider identity.Provider, roles middleware.RoleResolver, logger *zap.Logger, verbose bool) *Service {
	return &Service{provider: provider, roles: roles, logger: logger, verbose: verbose}
}

// CreateSession verifies idToken and exchanges it for a session artifact.
// Every verification, minting or lookup failure is ErrSessionCreationFailed.
func (s *Service) CreateSession(ctx context.Context, idToken string) (*SessionResult, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, autherr.ErrMissingCredential
	}

	tok, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, s.failed("verify identity token", err)
	}
	session, err := s.provider.CreateSessionCookie(ctx, idToken, SessionLifetime)
	if err != nil {
		return nil, s.failed("mint session", err)
	}
	role, ok, err := s.roles.ResolveRole(ctx, tok.UID)
	if err != nil {
		return nil, s.failed("resolve role", err)
	}
	if !ok {
		role = ""
	}

	return &SessionResult{
		UID:       tok.UID,
		Session:   session,
		Role:      role,
		ExpiresIn: SessionLifetime,
	}, nil
}

// VerifyBearer verifies the identity token in an Authorization header.
func (s *Service) VerifyBearer(ctx context.Context, header string) (*identity.Token, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	tok, err := s.provider.VerifyIDToken(ctx, raw)
	if err != nil {
		if s.verbose {
			s.logger.Debug("bearer token rejected", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %w", autherr.ErrInvalidToken, err)
	}
	return tok, nil
}

func (s *Service) failed(step string, err error) error {
	if s.verbose {
		s.logger.Warn("session creation failed", zap.String("step", step), zap.Error(err))
	} else {
		s.logger.Warn("session creation failed", zap.String("step", step))
	}
	return fmt.Errorf("%w: %s: %w", autherr.ErrSessionCreationFailed, step, err)
}
