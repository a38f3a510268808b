// Package identity is the boundary to the identity provider: it verifies
// short-lived identity tokens, exchanges them for long-lived session
// artifacts, and stores per-account custom claims.
//
// Signing and verification are delegated to golang-jwt; nothing here
// hand-rolls cryptography.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidToken           = errors.New("identity: invalid token")
	ErrUserNotFound           = errors.New("identity: user not found")
	ErrInvalidSessionDuration = errors.New("identity: session duration out of range")
	ErrClaimsTooLarge         = errors.New("identity: custom claims too large")
	ErrReservedClaim          = errors.New("identity: reserved claim name")
)

// Session artifact lifetime bounds.
const (
	MinSessionDuration = 5 * time.Minute
	MaxSessionDuration = 14 * 24 * time.Hour
)

// Token is a verified identity assertion, either an ID token or a session
// artifact.
type Token struct {
	UID           string
	Email         string
	EmailVerified bool
	Phone         string
	AuthTime      time.Time
	IssuedAt      time.Time
	ExpiresAt     time.Time
	Claims        map[string]any
}

// Identity is what a sign-in method proved about a subject.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Phone         string
}

// UserRecord is the provider-side account.
type UserRecord struct {
	UID           string
	Email         string
	EmailVerified bool
	Phone         string
	CustomClaims  map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Provider is the identity-provider facility used by the session, admin and
// challenge layers.
type Provider interface {
	VerifyIDToken(ctx context.Context, raw string) (*Token, error)
	CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, cookie string) (*Token, error)
	IssueIDToken(ctx context.Context, id Identity) (string, error)
	GetUser(ctx context.Context, uid string) (*UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error
}

// AccountStore persists provider accounts and their custom claims.
type AccountStore interface {
	Get(ctx context.Context, uid string) (*UserRecord, error)
	// Upsert creates the account or refreshes its contact fields. Custom
	// claims are left untouched.
	Upsert(ctx context.Context, id Identity) (*UserRecord, error)
	// SetClaims replaces the account's custom claims.
	SetClaims(ctx context.Context, uid string, claims map[string]any) error
}

// CopyClaims returns a shallow copy of claims, never nil.
func CopyClaims(claims map[string]any) map[string]any {
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}
