package services

import (
	"context"
	"time"

	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// Quota summarizes a tenant's monthly event allowance.
type Quota struct {
	Plan      tenant.Plan
	Label     string
	Used      int
	Limit     int
	Remaining int
	CanCreate bool
}

// PlanService counts events against the tenant's plan limits.
type PlanService struct {
	events event.Repository
	now    func() time.Time
}

func NewPlanService(events event.Repository) *PlanService {
	return &PlanService{events: events, now: time.Now}
}

// EventsCreatedThisMonth counts t's events created since the start of the
// current calendar month. It scopes to t explicitly rather than to the
// request's tenant.
func (s *PlanService) EventsCreatedThisMonth(ctx context.Context, t *tenant.Tenant) (int, error) {
	from, to := monthBounds(s.now())
	return s.events.CountCreatedBetween(ctx, tenancy.ForTenant(t.ID()), from, to)
}

func (s *PlanService) Quota(ctx context.Context, t *tenant.Tenant) (Quota, error) {
	used, err := s.EventsCreatedThisMonth(ctx, t)
	if err != nil {
		return Quota{}, err
	}
	plan := t.Plan()
	limit := plan.Limits().EventsPerMonth
	return Quota{
		Plan:      plan,
		Label:     plan.Label(),
		Used:      used,
		Limit:     limit,
		Remaining: tenant.Remaining(limit, used),
		CanCreate: tenant.Allows(limit, used),
	}, nil
}

func (s *PlanService) CanCreateEvent(ctx context.Context, t *tenant.Tenant) (bool, error) {
	q, err := s.Quota(ctx, t)
	return q.CanCreate, err
}

func (s *PlanService) RemainingEventsThisMonth(ctx context.Context, t *tenant.Tenant) (int, error) {
	q, err := s.Quota(ctx, t)
	return q.Remaining, err
}

// monthBounds returns [first day of now's month, first day of next month).
func monthBounds(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}
