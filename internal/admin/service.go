// Package admin implements the allow-listed privileged promotion path and the
// re-derivation of platform claims from the stored role.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/config"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/profile"
)

// Platform claim names written to the provider account.
const (
	ClaimPlatformRole = "platformRole"
	ClaimAdmin        = "admin"
)

type Service struct {
	profiles profile.Store
	provider identity.Provider
	allow    config.AllowList
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(profiles profile.Store, provider identity.Provider, allow config.AllowList, logger *zap.Logger) *Service {
	return &Service{
		profiles: profiles,
		provider: provider,
		allow:    allow,
		logger:   logger,
		now:      time.Now,
	}
}

// Promote grants admin to an allow-listed caller, keeping super_admin if the
// profile already has it. Claims are written before the profile and restored
// if the profile write fails, so a failed call leaves the stored role as it
// was.
func (s *Service) Promote(ctx context.Context, tok *identity.Token) (profile.Role, error) {
	if s.allow.Empty() {
		s.logger.Error("admin allow-list is not configured; refusing promotion",
			zap.Strings("vars", config.AdminEmailVars))
		return "", fmt.Errorf("%w: %w", autherr.ErrForbidden, autherr.ErrNotConfigured)
	}
	if !tok.EmailVerified || !s.allow.Contains(tok.Email) {
		s.logger.Warn("promotion refused", zap.String("uid", tok.UID))
		return "", autherr.ErrForbidden
	}

	now := s.now().UTC()
	p, err := s.profiles.Get(ctx, tok.UID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		p = &profile.Profile{
			UserID:            tok.UID,
			Email:             tok.Email,
			Phone:             tok.Phone,
			Verified:          true,
			Active:            true,
			PreferredLanguage: profile.DefaultLanguage,
			CreatedAt:         now,
		}
	case err != nil:
		return "", err
	}

	role := profile.RoleAdmin
	if p.Role == string(profile.RoleSuperAdmin) {
		role = profile.RoleSuperAdmin
	}

	prior, err := s.applyClaims(ctx, tok.UID, role)
	if err != nil {
		return "", err
	}

	p.Role = string(role)
	if p.Email == "" {
		p.Email = tok.Email
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := s.profiles.Save(ctx, p); err != nil {
		if rerr := s.provider.SetCustomUserClaims(ctx, tok.UID, prior); rerr != nil {
			s.logger.Error("restoring claims after failed promotion",
				zap.String("uid", tok.UID), zap.Error(rerr))
		}
		return "", fmt.Errorf("admin: save profile %s: %w", tok.UID, err)
	}

	s.logger.Info("privileged role granted", zap.String("uid", tok.UID), zap.String("role", string(role)))
	return role, nil
}

// SyncClaims rewrites the platform claims from the stored role. It is
// idempotent and only serves subjects already in the admin role set.
func (s *Service) SyncClaims(ctx context.Context, tok *identity.Token) (profile.Role, error) {
	p, err := s.profiles.Get(ctx, tok.UID)
	if errors.Is(err, profile.ErrNotFound) {
		return "", autherr.ErrProfileNotFound
	}
	if err != nil {
		return "", err
	}
	role, ok := p.ResolvedRole()
	if !ok || !role.IsAdmin() {
		return "", autherr.ErrForbidden
	}
	if _, err := s.applyClaims(ctx, tok.UID, role); err != nil {
		return "", err
	}
	return role, nil
}

// applyClaims merges the platform claims into the account's existing claims
// and returns the claims it replaced.
func (s *Service) applyClaims(ctx context.Context, uid string, role profile.Role) (map[string]any, error) {
	rec, err := s.provider.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("admin: load account %s: %w", uid, err)
	}
	prior := identity.CopyClaims(rec.CustomClaims)
	claims := identity.CopyClaims(rec.CustomClaims)
	claims[ClaimPlatformRole] = string(role)
	claims[ClaimAdmin] = true
	if err := s.provider.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return nil, fmt.Errorf("admin: set claims %s: %w", uid, err)
	}
	return prior, nil
}
