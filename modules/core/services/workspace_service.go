package services

import (
	"context"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// Workspace is one tenant the user belongs to together with their role.
type Workspace struct {
	Tenant *tenant.Tenant
	Role   membership.Role
}

type WorkspaceService struct {
	tenants     tenant.Repository
	memberships membership.Repository
}

func NewWorkspaceService(tenants tenant.Repository, memberships membership.Repository) *WorkspaceService {
	return &WorkspaceService{tenants: tenants, memberships: memberships}
}

// ListForUser returns every workspace where userID has an active membership.
// It runs before any tenant is chosen, so it reads across tenants.
func (s *WorkspaceService) ListForUser(ctx context.Context, userID int64) ([]Workspace, error) {
	scope := tenancy.Bypass(ctx, "workspace picker")
	items, err := s.memberships.ListActiveForUser(ctx, scope, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	roles := make(map[int64]membership.Role, len(items))
	ids := make([]int64, 0, len(items))
	for _, m := range items {
		roles[m.TenantID()] = m.Role()
		ids = append(ids, m.TenantID())
	}
	tenants, err := s.tenants.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Workspace, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, Workspace{Tenant: t, Role: roles[t.ID()]})
	}
	return out, nil
}

// SoleActive returns the only active workspace, or nil when there are zero
// or several.
func SoleActive(workspaces []Workspace) *tenant.Tenant {
	var found *tenant.Tenant
	for _, w := range workspaces {
		if !w.Tenant.IsActive() {
			continue
		}
		if found != nil {
			return nil
		}
		found = w.Tenant
	}
	return found
}

// Membership returns the user's active membership in the request's tenant.
func (s *WorkspaceService) Membership(ctx context.Context, userID int64) (*membership.Membership, error) {
	m, err := s.memberships.Get(ctx, tenancy.FromContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, membership.ErrNotFound
	}
	return m, nil
}
