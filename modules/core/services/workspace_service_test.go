package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
)

func TestWorkspaceService_ListForUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.addTenant(t, "Alpha")
	beta := f.addTenant(t, "Beta")
	f.addTenant(t, "Gamma")

	ana := f.addMember(t, beta, "Ana", "ana@example.com", membership.RoleMember)
	f.addMember(t, alpha, "Ana", "ana@example.com", membership.RoleAdmin)

	workspaces, err := f.workspaceService.ListForUser(ctx, ana.User.ID())
	require.NoError(t, err)
	require.Len(t, workspaces, 2)
	assert.Equal(t, "Alpha", workspaces[0].Tenant.Name())
	assert.Equal(t, membership.RoleAdmin, workspaces[0].Role)
	assert.Equal(t, "Beta", workspaces[1].Tenant.Name())
	assert.Nil(t, SoleActive(workspaces))

	none, err := f.workspaceService.ListForUser(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSoleActive(t *testing.T) {
	t.Parallel()

	active := tenant.New("A", tenant.WithID(1))
	inactive := tenant.New("B", tenant.WithID(2), tenant.WithStatus(tenant.StatusInactive))

	got := SoleActive([]Workspace{{Tenant: active}, {Tenant: inactive}})
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID())
	assert.Nil(t, SoleActive([]Workspace{{Tenant: inactive}}))
}

func TestWorkspaceService_Membership(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alpha := f.addTenant(t, "Alpha")
	beta := f.addTenant(t, "Beta")
	ana := f.addMember(t, alpha, "Ana", "ana@example.com", membership.RoleModerator)

	m, err := f.workspaceService.Membership(requestCtx(t, alpha), ana.User.ID())
	require.NoError(t, err)
	assert.Equal(t, membership.RoleModerator, m.Role())

	_, err = f.workspaceService.Membership(requestCtx(t, beta), ana.User.ID())
	require.ErrorIs(t, err, membership.ErrNotFound)

	_, err = f.workspaceService.Membership(requestCtx(t, nil), ana.User.ID())
	require.ErrorIs(t, err, membership.ErrNotFound)
}
