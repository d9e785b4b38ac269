// Package permissions decides who may see and change events.
package permissions

import (
	"context"
	"time"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/pkg/authz"
)

type EventPolicy struct {
	authz *authz.Service
	now   func() time.Time
}

func NewEventPolicy(svc *authz.Service) *EventPolicy {
	return &EventPolicy{authz: svc, now: time.Now}
}

func (p *EventPolicy) can(ctx context.Context, actor *membership.Membership, action string) bool {
	if actor == nil || !actor.IsActive() {
		return false
	}
	return p.authz.Allowed(ctx, authz.Request{
		Role:   string(actor.Role()),
		Object: authz.ObjectEvents,
		Action: action,
	})
}

func (p *EventPolicy) ViewAny(ctx context.Context, actor *membership.Membership) bool {
	return p.can(ctx, actor, authz.ActionViewAny)
}

// View allows anyone to see listed events and the creator to see their own.
// userID is 0 for guests.
func (p *EventPolicy) View(_ context.Context, userID int64, e *event.Event) bool {
	if e.IsListed() {
		return true
	}
	return userID > 0 && e.CreatedBy() == userID
}

func (p *EventPolicy) Create(ctx context.Context, actor *membership.Membership) bool {
	return p.can(ctx, actor, authz.ActionCreate)
}

func (p *EventPolicy) Update(ctx context.Context, actor *membership.Membership, e *event.Event) bool {
	return p.owns(actor, e) && p.can(ctx, actor, authz.ActionUpdate)
}

func (p *EventPolicy) Delete(ctx context.Context, actor *membership.Membership, e *event.Event) bool {
	return p.owns(actor, e) && p.can(ctx, actor, authz.ActionDelete)
}

// AddPhotos only opens once the event has ended.
func (p *EventPolicy) AddPhotos(ctx context.Context, actor *membership.Membership, e *event.Event) bool {
	if !p.owns(actor, e) || !e.HasEnded(p.now()) {
		return false
	}
	return p.can(ctx, actor, authz.ActionAddPhotos)
}

func (p *EventPolicy) owns(actor *membership.Membership, e *event.Event) bool {
	return actor != nil && e != nil && actor.TenantID() == e.TenantID()
}
