package composables

import (
	"context"
	"errors"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/pkg/constants"
)

var (
	ErrUnauthorized = errors.New("user not authenticated")
	ErrNoMembership = errors.New("no membership in context")
)

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

// UseUser returns the authenticated user or ErrUnauthorized.
func UseUser(ctx context.Context) (*user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(*user.User)
	if !ok || u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// WithMembership stores the acting user's membership in the current tenant.
func WithMembership(ctx context.Context, m *membership.Membership) context.Context {
	return context.WithValue(ctx, constants.MembershipKey, m)
}

func UseMembership(ctx context.Context) (*membership.Membership, error) {
	m, ok := ctx.Value(constants.MembershipKey).(*membership.Membership)
	if !ok || m == nil {
		return nil, ErrNoMembership
	}
	return m, nil
}
