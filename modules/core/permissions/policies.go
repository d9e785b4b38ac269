// Package permissions layers attribute checks on top of the role policies.
package permissions

import (
	"context"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/pkg/authz"
)

// UserPolicy guards workspace member management.
type UserPolicy struct {
	authz *authz.Service
}

func NewUserPolicy(svc *authz.Service) *UserPolicy {
	return &UserPolicy{authz: svc}
}

func (p *UserPolicy) can(ctx context.Context, actor *membership.Membership, action string) bool {
	if actor == nil || !actor.IsActive() {
		return false
	}
	return p.authz.Allowed(ctx, authz.Request{
		Role:   string(actor.Role()),
		Object: authz.ObjectUsers,
		Action: action,
	})
}

func (p *UserPolicy) ViewAny(ctx context.Context, actor *membership.Membership) bool {
	return p.can(ctx, actor, authz.ActionViewAny)
}

func (p *UserPolicy) Create(ctx context.Context, actor *membership.Membership) bool {
	return p.can(ctx, actor, authz.ActionCreate)
}

// Manage covers view, update and delete of one member. Moderators may only
// touch plain members.
func (p *UserPolicy) Manage(ctx context.Context, actor *membership.Membership, action string, target *membership.Membership) bool {
	if !p.can(ctx, actor, action) {
		return false
	}
	if actor.Role() == membership.RoleAdmin {
		return true
	}
	return target != nil && target.Role() == membership.RoleMember
}

// WorkspacePolicy guards workspace settings.
type WorkspacePolicy struct {
	authz *authz.Service
}

func NewWorkspacePolicy(svc *authz.Service) *WorkspacePolicy {
	return &WorkspacePolicy{authz: svc}
}

func (p *WorkspacePolicy) Update(ctx context.Context, actor *membership.Membership) bool {
	if actor == nil || !actor.IsActive() {
		return false
	}
	return p.authz.Allowed(ctx, authz.Request{
		Role:   string(actor.Role()),
		Object: authz.ObjectWorkspace,
		Action: authz.ActionUpdate,
	})
}
