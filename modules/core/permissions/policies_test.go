package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/pkg/authz"
)

func TestUserPolicy_Manage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := NewUserPolicy(authz.MustNew(authz.ModeEnforce, nil))

	admin := membership.New(1, membership.RoleAdmin, membership.WithTenantID(1))
	mod := membership.New(2, membership.RoleModerator, membership.WithTenantID(1))
	member := membership.New(3, membership.RoleMember, membership.WithTenantID(1))
	otherMod := membership.New(4, membership.RoleModerator, membership.WithTenantID(1))

	assert.True(t, p.Manage(ctx, admin, authz.ActionUpdate, otherMod))
	assert.True(t, p.Manage(ctx, mod, authz.ActionUpdate, member))
	assert.False(t, p.Manage(ctx, mod, authz.ActionDelete, otherMod))
	assert.False(t, p.Manage(ctx, mod, authz.ActionDelete, admin))
	assert.False(t, p.Manage(ctx, member, authz.ActionView, member))

	assert.True(t, p.ViewAny(ctx, mod))
	assert.False(t, p.ViewAny(ctx, member))
	assert.False(t, p.Create(ctx, nil))
}

func TestWorkspacePolicy(t *testing.T) {
	t.Parallel()

	p := NewWorkspacePolicy(authz.MustNew(authz.ModeEnforce, nil))
	assert.True(t, p.Update(context.Background(), membership.New(1, membership.RoleAdmin)))
	assert.False(t, p.Update(context.Background(), membership.New(1, membership.RoleModerator)))
	inactive := membership.New(1, membership.RoleAdmin, membership.WithStatus(membership.StatusInactive))
	assert.False(t, p.Update(context.Background(), inactive))
}
