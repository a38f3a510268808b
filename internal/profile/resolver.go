package profile

import (
	"context"
	"errors"
)

// Resolver reads a subject's role from the profile store. It never derives a
// role from token claims.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveRole returns the stored role. A missing profile, an empty role or an
// unknown role all report ok=false with a nil error; store failures are
// returned as errors.
func (r *Resolver) ResolveRole(ctx context.Context, uid string) (Role, bool, error) {
	p, err := r.store.Get(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role, ok := p.ResolvedRole()
	return role, ok, nil
}
