package domain

import (
	"context"

	"spiritual_growth_service/pkg/token"
)

// RoleResolver resolves a user identifier to its platform role at
// authenticate time. The member service implements this; the hub never
// infers privilege from the identifier itself.
type RoleResolver interface {
	Resolve(ctx context.Context, userID string) (token.RoleType, error)
}

// RoleResolverFunc adapts a function to RoleResolver.
type RoleResolverFunc func(ctx context.Context, userID string) (token.RoleType, error)

// Resolve call the wrapped function
func (f RoleResolverFunc) Resolve(ctx context.Context, userID string) (token.RoleType, error) {
	return f(ctx, userID)
}
