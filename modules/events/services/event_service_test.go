package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

func TestEventService_CreateSlugSequence(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	var slugs []string
	for range 3 {
		e, err := f.eventSvc.Create(ctx, admin, tn, input("Summer Party", f.now), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.TenantID())
		assert.Equal(t, int64(10), e.CreatedBy())
		assert.NotEmpty(t, e.HashID())
		slugs = append(slugs, e.Slug())
	}
	assert.Equal(t, []string{"summer-party", "summer-party-1", "summer-party-2"}, slugs)
}

func TestEventService_SlugsArePerTenant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a, b := newTenant(1, tenant.PlanEnterprise), newTenant(2, tenant.PlanEnterprise)

	ea, err := f.eventSvc.Create(tenantCtx(t, a), actor(a, 10, membership.RoleAdmin), a, input("Alpha", f.now), nil)
	require.NoError(t, err)
	eb, err := f.eventSvc.Create(tenantCtx(t, b), actor(b, 20, membership.RoleAdmin), b, input("Alpha", f.now), nil)
	require.NoError(t, err)

	assert.Equal(t, "alpha", ea.Slug())
	assert.Equal(t, "alpha", eb.Slug())
	assert.NotEqual(t, ea.HashID(), eb.HashID())
}

func TestEventService_CreateFallbackSlug(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	e, err := f.eventSvc.Create(tenantCtx(t, tn), actor(tn, 10, membership.RoleAdmin), tn, input("!!!", f.now), nil)
	require.NoError(t, err)
	assert.Equal(t, "event", e.Slug())
}

func TestEventService_CreateWithoutTenantContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	_, err := f.eventSvc.Create(tenantCtx(t, nil), actor(tn, 10, membership.RoleAdmin), tn, input("Alpha", f.now), nil)
	require.ErrorIs(t, err, tenancy.ErrNoTenantContext)

	n, err := f.events.Count(t.Context(), tenancy.Bypass(t.Context(), "test"), &event.FindParams{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEventService_CreateRetriesLostSlug(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	f.events.BeforeCreate = func(e *event.Event) {
		f.events.Insert(event.New("Alpha", f.now, event.WithTenantID(tn.ID()), event.WithSlug(e.Slug())))
	}

	e, err := f.eventSvc.Create(tenantCtx(t, tn), actor(tn, 10, membership.RoleAdmin), tn, input("Alpha", f.now), nil)
	require.NoError(t, err)
	assert.Equal(t, "alpha-1", e.Slug())
}

func TestEventService_CreatePlanLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanFree)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	// Created last month, so it does not count.
	f.events.Insert(event.New("Old", f.now, event.WithTenantID(1), event.WithSlug("old"),
		event.WithCreatedAt(f.now.AddDate(0, -1, 0))))

	_, err := f.eventSvc.Create(ctx, admin, tn, input("First", f.now), nil)
	require.NoError(t, err)
	_, err = f.eventSvc.Create(ctx, admin, tn, input("Second", f.now), nil)
	require.ErrorIs(t, err, ErrPlanLimitReached)
}

func TestEventService_CreateValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	before := f.now.Add(-time.Hour)
	zero := 0
	in := input(" ", f.now)
	in.EndsAt = &before
	in.Capacity = &zero

	_, err := f.eventSvc.Create(ctx, admin, tn, in, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "ends_at")
	assert.Contains(t, verr.Fields, "capacity")

	in = input("Alpha", f.now)
	in.Status = "archived"
	_, err = f.eventSvc.Create(ctx, admin, tn, in, nil)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")
}

func TestEventService_CreateForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	_, err := f.eventSvc.Create(tenantCtx(t, tn), actor(tn, 10, membership.RoleModerator), tn, input("Alpha", f.now), nil)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEventService_CreateWithMainPhoto(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	e, err := f.eventSvc.Create(tenantCtx(t, tn), actor(tn, 10, membership.RoleAdmin), tn, input("Alpha", f.now), pngReader(t))
	require.NoError(t, err)

	main := e.MainPhoto()
	assert.Contains(t, main.Original, "events/1/main/main-")
	for _, p := range []string{main.Original, main.Medium, main.Thumb} {
		ok, err := afero.Exists(f.fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}

func TestEventService_UpdateSlug(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	e, err := f.eventSvc.Create(ctx, admin, tn, input("Alpha", f.now), nil)
	require.NoError(t, err)
	_, err = f.eventSvc.Create(ctx, admin, tn, input("Beta", f.now), nil)
	require.NoError(t, err)

	in := input("Alpha", f.now)
	in.Location = "Main hall"
	same, err := f.eventSvc.Update(ctx, admin, e, in)
	require.NoError(t, err)
	assert.Equal(t, "alpha", same.Slug(), "unchanged title keeps its slug")
	assert.Equal(t, "Main hall", same.Location())

	renamed, err := f.eventSvc.Update(ctx, admin, same, input("Beta", f.now))
	require.NoError(t, err)
	assert.Equal(t, "beta-1", renamed.Slug())

	back, err := f.eventSvc.Update(ctx, admin, renamed, input("Alpha", f.now))
	require.NoError(t, err)
	assert.Equal(t, "alpha", back.Slug(), "own row does not collide")
}

func TestEventService_CrossTenantIsolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a, b := newTenant(1, tenant.PlanEnterprise), newTenant(2, tenant.PlanEnterprise)
	ctxA, ctxB := tenantCtx(t, a), tenantCtx(t, b)

	e, err := f.eventSvc.Create(ctxA, actor(a, 10, membership.RoleAdmin), a, input("Alpha", f.now), nil)
	require.NoError(t, err)

	_, err = f.eventSvc.GetByHashID(ctxB, e.HashID())
	require.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.eventSvc.GetByHashID(tenantCtx(t, nil), e.HashID())
	require.ErrorIs(t, err, ErrEventNotFound, "no tenant context sees nothing")

	items, total, err := f.eventSvc.ListPublic(ctxB, Page{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)

	err = f.eventSvc.Delete(ctxB, actor(b, 20, membership.RoleAdmin), e)
	require.ErrorIs(t, err, ErrForbidden)

	got, err := f.eventSvc.GetByHashID(ctxA, e.HashID())
	require.NoError(t, err)
	assert.Equal(t, e.ID(), got.ID())
}

func TestEventService_GetVisible(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)

	in := input("Draft", f.now)
	in.Status = "draft"
	e, err := f.eventSvc.Create(ctx, actor(tn, 10, membership.RoleAdmin), tn, in, nil)
	require.NoError(t, err)

	_, err = f.eventSvc.GetVisible(ctx, 0, e.HashID())
	require.ErrorIs(t, err, ErrEventNotFound)
	got, err := f.eventSvc.GetVisible(ctx, 10, e.HashID())
	require.NoError(t, err)
	assert.Equal(t, e.ID(), got.ID())
}

func TestEventService_Lists(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)
	moderator := actor(tn, 11, membership.RoleModerator)

	for i, title := range []string{"One", "Two", "Three"} {
		_, err := f.eventSvc.Create(ctx, admin, tn, input(title, f.now.AddDate(0, 0, i)), nil)
		require.NoError(t, err)
	}
	hidden := input("Hidden", f.now)
	hidden.IsPublic = false
	_, err := f.eventSvc.Create(ctx, admin, tn, hidden, nil)
	require.NoError(t, err)

	mine, total, err := f.eventSvc.ListByCreator(ctx, admin, Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, mine, 2)
	assert.Equal(t, "Three", mine[0].Title())

	none, total, err := f.eventSvc.ListByCreator(ctx, moderator, Page{})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Zero(t, total)

	public, total, err := f.eventSvc.ListPublic(ctx, Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, public, 1)
	assert.Equal(t, "Three", public[0].Title())
}

func TestEventService_Dashboard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	from, to := DashboardWindow(f.now)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 7, 31, 23, 59, 59, 999999999, time.UTC), to)

	inside, err := f.eventSvc.Create(ctx, admin, tn, input("Inside", f.now), nil)
	require.NoError(t, err)
	_, err = f.eventSvc.Create(ctx, admin, tn, input("Too late", to.Add(time.Hour)), nil)
	require.NoError(t, err)

	_, err = f.rsvpService.Submit(ctx, inside, RSVPInput{
		Name: "Ana", Email: "ana@example.com", CommunicationPreference: "email", NotificationsScope: "event_only",
	})
	require.NoError(t, err)

	entries, err := f.eventSvc.Dashboard(ctx, admin)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inside.ID(), entries[0].Event.ID())
	assert.Equal(t, 1, entries[0].RSVPCount)

	_, err = f.eventSvc.Dashboard(ctx, actor(tn, 12, membership.RoleMember))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEventService_DeleteRemovesFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	e, err := f.eventSvc.Create(ctx, admin, tn, input("Alpha", f.now), pngReader(t))
	require.NoError(t, err)
	require.NoError(t, f.eventSvc.Delete(ctx, admin, e))

	ok, err := afero.Exists(f.fs, e.MainPhoto().Original)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = f.eventSvc.GetByHashID(ctx, e.HashID())
	require.ErrorIs(t, err, ErrEventNotFound)
}

func failingTx(runFirst bool) func(context.Context, func(context.Context) error) error {
	return func(ctx context.Context, fn func(context.Context) error) error {
		if runFirst {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return errors.New("db down")
	}
}

func TestEventService_DeleteKeepsFilesWhenRowSurvives(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	e, err := f.eventSvc.Create(ctx, admin, tn, input("Alpha", f.now), pngReader(t))
	require.NoError(t, err)
	main := e.MainPhoto()

	f.eventSvc.inTx = failingTx(false)
	require.Error(t, f.eventSvc.Delete(ctx, admin, e))

	_, err = f.eventSvc.GetByHashID(ctx, e.HashID())
	require.NoError(t, err)
	for _, p := range []string{main.Original, main.Medium, main.Thumb} {
		ok, err := afero.Exists(f.fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}

func TestEventService_UpdateFailureLeavesEventUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tn := newTenant(1, tenant.PlanEnterprise)
	ctx := tenantCtx(t, tn)
	admin := actor(tn, 10, membership.RoleAdmin)

	e, err := f.eventSvc.Create(ctx, admin, tn, input("Alpha", f.now), nil)
	require.NoError(t, err)

	f.eventSvc.inTx = failingTx(true)
	in := input("Beta", f.now)
	in.Location = "Main hall"
	_, err = f.eventSvc.Update(ctx, admin, e, in)
	require.Error(t, err)

	assert.Equal(t, "Alpha", e.Title())
	assert.Equal(t, "alpha", e.Slug())
	assert.Empty(t, e.Location())
}
