package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
)

type inviteRecorder struct {
	mu     sync.Mutex
	events []*user.InvitedEvent
}

func (r *inviteRecorder) handle(_ context.Context, e *user.InvitedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *inviteRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestUserService_InviteCreatesAndAttaches(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	rec := &inviteRecorder{}
	f.bus.Subscribe(rec.handle)

	alpha := f.addTenant(t, "Alpha")
	beta := f.addTenant(t, "Beta")

	first := f.addMember(t, alpha, "Ana", "ana@example.com", membership.RoleModerator)
	assert.NotEmpty(t, first.User.HashID())
	assert.Equal(t, alpha.ID(), first.Membership.TenantID())
	assert.Equal(t, membership.RoleModerator, first.Membership.Role())
	assert.Equal(t, 1, rec.count())

	// same email in another tenant attaches the existing account
	second := f.addMember(t, beta, "Ana Other", "ANA@example.com", membership.RoleMember)
	assert.Equal(t, first.User.ID(), second.User.ID())
	assert.Equal(t, beta.ID(), second.Membership.TenantID())
	assert.Equal(t, 2, rec.count())

	// inviting again into the same tenant creates nothing and sends nothing
	ctx := requestCtx(t, alpha)
	admin := membership.New(99, membership.RoleAdmin, membership.WithTenantID(alpha.ID()))
	again, err := f.userService.Invite(ctx, admin, InviteInput{Name: "Ana", Email: "ana@example.com", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, membership.RoleModerator, again.Membership.Role())
	assert.Equal(t, 2, rec.count())
}

func TestUserService_InviteWithoutTenantFailsClosed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	admin := membership.New(1, membership.RoleAdmin)
	_, err := f.userService.Invite(requestCtx(t, nil), admin, InviteInput{Name: "A", Email: "a@example.com", Role: "member"})
	require.Error(t, err)

	u, err := f.users.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	items, err := f.memberships.ListActiveForUser(context.Background(), bypassForTest(), u.ID())
	require.NoError(t, err)
	assert.Empty(t, items, "no membership may be written without a tenant")
}

func TestUserService_ModeratorInvitesOnlyMembers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alpha := f.addTenant(t, "Alpha")
	mod := f.addMember(t, alpha, "Mod", "mod@example.com", membership.RoleModerator)

	ctx := requestCtx(t, alpha)
	assert.Equal(t, []membership.Role{membership.RoleMember}, f.userService.AvailableRoles(mod.Membership))

	m, err := f.userService.Invite(ctx, mod.Membership, InviteInput{Name: "X", Email: "x@example.com", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, membership.RoleMember, m.Membership.Role())

	member := f.addMember(t, alpha, "Mem", "mem@example.com", membership.RoleMember)
	_, err = f.userService.Invite(ctx, member.Membership, InviteInput{Name: "Y", Email: "y@example.com"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUserService_ListMembersIsTenantScoped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alpha := f.addTenant(t, "Alpha")
	beta := f.addTenant(t, "Beta")

	admin := f.addMember(t, alpha, "Admin", "admin@example.com", membership.RoleAdmin)
	f.addMember(t, alpha, "Mod", "mod@example.com", membership.RoleModerator)
	f.addMember(t, alpha, "Mem", "mem@example.com", membership.RoleMember)
	f.addMember(t, beta, "Outsider", "out@example.com", membership.RoleMember)

	ctx := requestCtx(t, alpha)
	members, err := f.userService.ListMembers(ctx, admin.Membership)
	require.NoError(t, err)
	var names []string
	for _, m := range members {
		names = append(names, m.User.Name())
	}
	assert.Equal(t, []string{"Mem", "Mod"}, names)

	mod, err := f.userService.Get(ctx, admin.Membership, members[1].User.HashID())
	require.NoError(t, err)
	modMembers, err := f.userService.ListMembers(ctx, mod.Membership)
	require.NoError(t, err)
	require.Len(t, modMembers, 1)
	assert.Equal(t, "Mem", modMembers[0].User.Name())

	// the outsider's hash id does not resolve inside alpha
	outsider, err := f.users.GetByEmail(context.Background(), "out@example.com")
	require.NoError(t, err)
	_, err = f.userService.Get(ctx, admin.Membership, outsider.HashID())
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserService_UpdateAndRevoke(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alpha := f.addTenant(t, "Alpha")
	admin := f.addMember(t, alpha, "Admin", "admin@example.com", membership.RoleAdmin)
	mod := f.addMember(t, alpha, "Mod", "mod@example.com", membership.RoleModerator)
	mem := f.addMember(t, alpha, "Mem", "mem@example.com", membership.RoleMember)
	ctx := requestCtx(t, alpha)

	updated, err := f.userService.Update(ctx, admin.Membership, mem, UpdateUserInput{
		Name: "Member One", Email: "one@example.com", Password: "new-pass", Role: "moderator",
	})
	require.NoError(t, err)
	assert.Equal(t, "Member One", updated.User.Name())
	assert.True(t, updated.User.CheckPassword("new-pass"))
	assert.Equal(t, membership.RoleModerator, updated.Membership.Role())

	_, err = f.userService.Update(ctx, admin.Membership, updated, UpdateUserInput{
		Name: "Member One", Email: "mod@example.com", Role: "moderator",
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	require.ErrorIs(t, f.userService.Revoke(ctx, mod.Membership, admin), ErrForbidden)
	require.NoError(t, f.userService.Revoke(ctx, admin.Membership, mod))

	role, err := f.userService.Role(ctx, mod.User.ID())
	require.NoError(t, err)
	assert.Equal(t, membership.Role(""), role)

	ok, err := f.userService.HasRole(ctx, admin.User.ID(), membership.RoleAdmin, membership.RoleModerator)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserService_ResendInvite(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alpha := f.addTenant(t, "Alpha")
	admin := f.addMember(t, alpha, "Admin", "admin@example.com", membership.RoleAdmin)
	ctx := requestCtx(t, alpha)

	// a fresh invite consumed the single slot for this tenant and user
	mem := f.addMember(t, alpha, "Mem", "mem@example.com", membership.RoleMember)
	err := f.userService.ResendInvite(ctx, admin.Membership, mem)
	var throttled *InviteThrottledError
	require.ErrorAs(t, err, &throttled)
	assert.LessOrEqual(t, throttled.RetryAfter, time.Minute)

	mem.User.MarkVerified(time.Now())
	require.ErrorIs(t, f.userService.ResendInvite(ctx, admin.Membership, mem), ErrAlreadyVerified)
}

func TestInviteThrottleKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "set-password:7:42", InviteThrottleKey(7, 42))
	assert.Equal(t, "set-password:global:42", InviteThrottleKey(0, 42))
}
