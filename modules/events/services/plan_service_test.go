package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
)

func TestPlanService_Quota(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	plus := newTenant(1, tenant.PlanPlus)
	other := newTenant(2, tenant.PlanPlus)

	f.events.Insert(event.New("A", f.now, event.WithTenantID(1), event.WithCreatedAt(f.now)))
	f.events.Insert(event.New("B", f.now, event.WithTenantID(1), event.WithCreatedAt(f.now.AddDate(0, 0, -14))))
	f.events.Insert(event.New("Old", f.now, event.WithTenantID(1), event.WithCreatedAt(f.now.AddDate(0, -1, 0))))
	f.events.Insert(event.New("Other", f.now, event.WithTenantID(2), event.WithCreatedAt(f.now)))

	q, err := f.plans.Quota(t.Context(), plus)
	require.NoError(t, err)
	assert.Equal(t, Quota{Plan: tenant.PlanPlus, Label: "Plus", Used: 2, Limit: 10, Remaining: 8, CanCreate: true}, q)

	used, err := f.plans.EventsCreatedThisMonth(t.Context(), other)
	require.NoError(t, err)
	assert.Equal(t, 1, used)

	remaining, err := f.plans.RemainingEventsThisMonth(t.Context(), newTenant(3, tenant.PlanEnterprise))
	require.NoError(t, err)
	assert.Equal(t, tenant.Unlimited, remaining)

	ok, err := f.plans.CanCreateEvent(t.Context(), newTenant(1, tenant.PlanFree))
	require.NoError(t, err)
	assert.False(t, ok)
}
