// Package identitytest provides an in-memory identity provider for tests.
package identitytest

import (
	"context"
	"testing"

	"github.com/rahal-app/rahal-backend/internal/identity"
)

const (
	Secret   = "identitytest-secret-identitytest!"
	Issuer   = "rahal-test"
	Audience = "rahal"
)

// NewProvider returns an HS256 provider over a fresh memory account store.
func NewProvider(t testing.TB) (*identity.JWTProvider, *identity.MemoryAccountStore) {
	t.Helper()
	store := identity.NewMemoryAccountStore()
	p, err := identity.NewJWTProvider(identity.Config{
		SigningMethod: identity.MethodHS256,
		PrivateKey:    []byte(Secret),
		Issuer:        Issuer,
		Audience:      Audience,
	}, store)
	if err != nil {
		t.Fatalf("identitytest: %v", err)
	}
	return p, store
}

// IDToken issues an ID token for id or fails the test.
func IDToken(t testing.TB, p identity.Provider, id identity.Identity) string {
	t.Helper()
	raw, err := p.IssueIDToken(context.Background(), id)
	if err != nil {
		t.Fatalf("identitytest: issue id token: %v", err)
	}
	return raw
}
