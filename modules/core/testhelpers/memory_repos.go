// Package testhelpers provides in-memory repositories for service tests.
// Tenant-owned fakes apply tenancy.Scope the same way the SQL repositories do.
package testhelpers

import (
	"context"
	"sort"
	"sync"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// PassthroughTx runs fn with ctx unchanged.
func PassthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func uniqueViolation(constraint string) error {
	return &repo.UniqueViolationError{Constraint: constraint, Err: repo.ErrUniqueViolation}
}

type TenantRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*tenant.Tenant
	// BeforeCreate runs after the uniqueness pre-check and before the insert,
	// so tests can plant a concurrent row.
	BeforeCreate func(t *tenant.Tenant)
}

func NewTenantRepository() *TenantRepository {
	return &TenantRepository{rows: map[int64]*tenant.Tenant{}}
}

func cloneTenant(t *tenant.Tenant, id int64) *tenant.Tenant {
	return tenant.New(
		t.Name(),
		tenant.WithID(id),
		tenant.WithSlug(t.Slug()),
		tenant.WithPlan(t.Plan()),
		tenant.WithStatus(t.Status()),
		tenant.WithTrialEndsAt(t.TrialEndsAt()),
		tenant.WithLogo(t.Logo()),
		tenant.WithCreatedAt(t.CreatedAt()),
		tenant.WithUpdatedAt(t.UpdatedAt()),
	)
}

// Insert stores t directly, bypassing hooks.
func (r *TenantRepository) Insert(t *tenant.Tenant) *tenant.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	out := cloneTenant(t, r.nextID)
	r.rows[out.ID()] = out
	return out
}

func (r *TenantRepository) GetByID(_ context.Context, id int64) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	return cloneTenant(t, t.ID()), nil
}

func (r *TenantRepository) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.rows {
		if t.Slug() == slug {
			return cloneTenant(t, t.ID()), nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *TenantRepository) GetByIDs(_ context.Context, ids []int64) ([]*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*tenant.Tenant
	for _, id := range ids {
		if t, ok := r.rows[id]; ok {
			out = append(out, cloneTenant(t, id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (r *TenantRepository) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slugTaken(slug, excludeID), nil
}

func (r *TenantRepository) slugTaken(slug string, excludeID int64) bool {
	for id, t := range r.rows {
		if id != excludeID && t.Slug() == slug {
			return true
		}
	}
	return false
}

func (r *TenantRepository) Create(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	if r.BeforeCreate != nil {
		hook := r.BeforeCreate
		r.BeforeCreate = nil
		hook(t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(t.Slug(), 0) {
		return nil, uniqueViolation(persistence.TenantSlugConstraint)
	}
	r.nextID++
	out := cloneTenant(t, r.nextID)
	r.rows[out.ID()] = out
	return cloneTenant(out, out.ID()), nil
}

func (r *TenantRepository) Update(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[t.ID()]; !ok {
		return nil, tenant.ErrNotFound
	}
	if r.slugTaken(t.Slug(), t.ID()) {
		return nil, uniqueViolation(persistence.TenantSlugConstraint)
	}
	r.rows[t.ID()] = cloneTenant(t, t.ID())
	return cloneTenant(t, t.ID()), nil
}

type UserRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{rows: map[int64]*user.User{}}
}

func cloneUser(u *user.User, id int64) *user.User {
	return user.New(
		u.Name(),
		u.Email(),
		user.WithID(id),
		user.WithHashID(u.HashID()),
		user.WithPasswordHash(u.PasswordHash()),
		user.WithEmailVerifiedAt(u.EmailVerifiedAt()),
		user.WithCreatedAt(u.CreatedAt()),
		user.WithUpdatedAt(u.UpdatedAt()),
	)
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u, id), nil
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []int64) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, id := range ids {
		if u, ok := r.rows[id]; ok {
			out = append(out, cloneUser(u, id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email user.Email) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.rows {
		if u.Email() == email {
			return cloneUser(u, id), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) GetByHashID(_ context.Context, hashID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.rows {
		if u.HashID() == hashID {
			return cloneUser(u, id), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) conflict(u *user.User, selfID int64) error {
	for id, other := range r.rows {
		if id == selfID {
			continue
		}
		if other.Email() == u.Email() {
			return uniqueViolation(persistence.UserEmailConstraint)
		}
		if u.HashID() != "" && other.HashID() == u.HashID() {
			return uniqueViolation(persistence.UserHashIDConstraint)
		}
	}
	return nil
}

func (r *UserRepository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(u, 0); err != nil {
		return nil, err
	}
	r.nextID++
	r.rows[r.nextID] = cloneUser(u, r.nextID)
	return cloneUser(u, r.nextID), nil
}

func (r *UserRepository) Update(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID()]; !ok {
		return nil, user.ErrNotFound
	}
	if err := r.conflict(u, u.ID()); err != nil {
		return nil, err
	}
	r.rows[u.ID()] = cloneUser(u, u.ID())
	return cloneUser(u, u.ID()), nil
}

type membershipKey struct {
	tenantID int64
	userID   int64
}

type MembershipRepository struct {
	mu   sync.Mutex
	rows map[membershipKey]*membership.Membership
}

func NewMembershipRepository() *MembershipRepository {
	return &MembershipRepository{rows: map[membershipKey]*membership.Membership{}}
}

func cloneMembership(m *membership.Membership) *membership.Membership {
	return membership.New(
		m.UserID(),
		m.Role(),
		membership.WithTenantID(m.TenantID()),
		membership.WithStatus(m.Status()),
		membership.WithCreatedAt(m.CreatedAt()),
		membership.WithUpdatedAt(m.UpdatedAt()),
	)
}

func (r *MembershipRepository) visible(scope tenancy.Scope, keep func(*membership.Membership) bool) []*membership.Membership {
	var out []*membership.Membership
	for _, m := range r.rows {
		if scope.Allows(m.TenantID()) && keep(m) {
			out = append(out, cloneMembership(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TenantID() != out[j].TenantID() {
			return out[i].TenantID() < out[j].TenantID()
		}
		return out[i].UserID() < out[j].UserID()
	})
	return out
}

func (r *MembershipRepository) Get(_ context.Context, scope tenancy.Scope, userID int64) (*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := r.visible(scope, func(m *membership.Membership) bool { return m.UserID() == userID })
	if len(found) == 0 {
		return nil, membership.ErrNotFound
	}
	return found[0], nil
}

func (r *MembershipRepository) ListActive(_ context.Context, scope tenancy.Scope, roles ...membership.Role) ([]*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible(scope, func(m *membership.Membership) bool {
		return m.IsActive() && (len(roles) == 0 || m.HasRole(roles...))
	}), nil
}

func (r *MembershipRepository) CountActiveByRole(ctx context.Context, scope tenancy.Scope, role membership.Role) (int, error) {
	items, err := r.ListActive(ctx, scope, role)
	return len(items), err
}

func (r *MembershipRepository) Create(_ context.Context, scope tenancy.Scope, m *membership.Membership) error {
	if err := scope.Stamp(m); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey{m.TenantID(), m.UserID()}
	if _, ok := r.rows[key]; ok {
		return uniqueViolation(persistence.MembershipPKConstraint)
	}
	r.rows[key] = cloneMembership(m)
	return nil
}

func (r *MembershipRepository) Update(_ context.Context, scope tenancy.Scope, m *membership.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := membershipKey{m.TenantID(), m.UserID()}
	if _, ok := r.rows[key]; !ok || !scope.Allows(m.TenantID()) {
		return membership.ErrNotFound
	}
	r.rows[key] = cloneMembership(m)
	return nil
}

func (r *MembershipRepository) Delete(_ context.Context, scope tenancy.Scope, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := false
	for key, m := range r.rows {
		if key.userID == userID && scope.Allows(m.TenantID()) {
			delete(r.rows, key)
			deleted = true
		}
	}
	if !deleted {
		return membership.ErrNotFound
	}
	return nil
}

func (r *MembershipRepository) ListActiveForUser(_ context.Context, scope tenancy.Scope, userID int64) ([]*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible(scope, func(m *membership.Membership) bool {
		return m.UserID() == userID && m.IsActive()
	}), nil
}
