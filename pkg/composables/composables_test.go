package composables

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
)

func TestUsePoolMissing(t *testing.T) {
	t.Parallel()

	_, err := UsePool(context.Background())
	require.ErrorIs(t, err, ErrNoPool)

	_, err = UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoPool)

	err = InTx(context.Background(), func(context.Context) error {
		t.Fatal("must not run without a pool")
		return nil
	})
	require.ErrorIs(t, err, ErrNoPool)
}

func TestUserAndMembership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := UseUser(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = UseMembership(ctx)
	require.ErrorIs(t, err, ErrNoMembership)

	u := user.New("Ana", "ana@example.com", user.WithID(3))
	m := membership.New(3, membership.RoleAdmin, membership.WithTenantID(1))
	ctx = WithMembership(WithUser(ctx, u), m)

	gotUser, err := UseUser(ctx)
	require.NoError(t, err)
	assert.Same(t, u, gotUser)

	gotMembership, err := UseMembership(ctx)
	require.NoError(t, err)
	assert.Same(t, m, gotMembership)
}

func TestUseLoggerFallback(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, UseLogger(context.Background()))
}
