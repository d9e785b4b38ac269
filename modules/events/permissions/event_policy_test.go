package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/pkg/authz"
)

func newPolicy(now time.Time) *EventPolicy {
	p := NewEventPolicy(authz.MustNew(authz.ModeEnforce, nil))
	p.now = func() time.Time { return now }
	return p
}

func member(role membership.Role) *membership.Membership {
	return membership.New(1, role, membership.WithTenantID(7))
}

func TestEventPolicy_Roles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPolicy(time.Now())
	e := event.New("Launch", time.Now(), event.WithTenantID(7))

	cases := []struct {
		role                            membership.Role
		viewAny, create, update, delete bool
	}{
		{membership.RoleAdmin, true, true, true, true},
		{membership.RoleModerator, true, false, true, false},
		{membership.RoleMember, false, false, false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			actor := member(tc.role)
			assert.Equal(t, tc.viewAny, p.ViewAny(ctx, actor))
			assert.Equal(t, tc.create, p.Create(ctx, actor))
			assert.Equal(t, tc.update, p.Update(ctx, actor, e))
			assert.Equal(t, tc.delete, p.Delete(ctx, actor, e))
		})
	}

	assert.False(t, p.ViewAny(ctx, nil))
	inactive := membership.New(1, membership.RoleAdmin, membership.WithTenantID(7), membership.WithStatus(membership.StatusInactive))
	assert.False(t, p.Create(ctx, inactive))
}

func TestEventPolicy_OtherTenant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPolicy(time.Now())
	e := event.New("Launch", time.Now(), event.WithTenantID(8))

	assert.False(t, p.Update(ctx, member(membership.RoleAdmin), e))
	assert.False(t, p.Delete(ctx, member(membership.RoleAdmin), e))
}

func TestEventPolicy_View(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPolicy(time.Now())

	listed := event.New("Open", time.Now(), event.WithStatus(event.StatusPublished), event.WithPublic(true), event.WithCreatedBy(3))
	draft := event.New("Draft", time.Now(), event.WithPublic(true), event.WithCreatedBy(3))

	assert.True(t, p.View(ctx, 0, listed))
	assert.False(t, p.View(ctx, 0, draft))
	assert.False(t, p.View(ctx, 4, draft))
	assert.True(t, p.View(ctx, 3, draft))
}

func TestEventPolicy_AddPhotosAfterEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	p := newPolicy(now)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	ended := event.New("Done", now.Add(-3*time.Hour), event.WithTenantID(7), event.WithEndsAt(&past))
	running := event.New("Live", now.Add(-3*time.Hour), event.WithTenantID(7), event.WithEndsAt(&future))
	open := event.New("Open", now.Add(-3*time.Hour), event.WithTenantID(7))

	assert.True(t, p.AddPhotos(ctx, member(membership.RoleModerator), ended))
	assert.False(t, p.AddPhotos(ctx, member(membership.RoleMember), ended))
	assert.False(t, p.AddPhotos(ctx, member(membership.RoleAdmin), running))
	assert.False(t, p.AddPhotos(ctx, member(membership.RoleAdmin), open))
}
