package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/slug"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

const tenantSlugFallback = "workspace"

type TenantService struct {
	repo   tenant.Repository
	images *imaging.Store
	inTx   composables.TxFunc
}

func NewTenantService(repo tenant.Repository, images *imaging.Store, inTx composables.TxFunc) *TenantService {
	return &TenantService{repo: repo, images: images, inTx: inTx}
}

func (s *TenantService) GetByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *TenantService) GetByIDs(ctx context.Context, ids []int64) ([]*tenant.Tenant, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// FindTenant backs tenancy.Context. Unknown ids resolve to a nil tenant.
func (s *TenantService) FindTenant(ctx context.Context, id int64) (tenancy.Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, tenant.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Current returns the request's tenant.
func (s *TenantService) Current(ctx context.Context) (*tenant.Tenant, error) {
	cur, err := tenancy.UseContext(ctx).Get(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := cur.(*tenant.Tenant)
	if !ok || t == nil {
		return nil, ErrNoCurrentTenant
	}
	return t, nil
}

func (s *TenantService) slugExists(excludeID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate, excludeID)
	}
}

// Create stores a new tenant with a globally unique slug derived from its
// name. A slug lost to a concurrent insert is recomputed in a new
// transaction.
func (s *TenantService) Create(ctx context.Context, name string, opts ...tenant.Option) (*tenant.Tenant, error) {
	var created *tenant.Tenant
	err := repo.RetryOnUnique(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			var err error
			created, err = s.create(txCtx, name, opts...)
			return err
		})
	}, persistence.TenantSlugConstraint)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return created, nil
}

func (s *TenantService) create(ctx context.Context, name string, opts ...tenant.Option) (*tenant.Tenant, error) {
	candidate, err := slug.Unique(ctx, name, tenantSlugFallback, s.slugExists(0))
	if err != nil {
		return nil, err
	}
	t := tenant.New(name, opts...)
	t.SetSlug(candidate)
	return s.repo.Create(ctx, t)
}

// UpdateProfile renames t and regenerates its slug, ignoring t's own row.
// t itself is left untouched; the saved tenant is returned and replaces the
// request's current tenant when it is the same one.
func (s *TenantService) UpdateProfile(ctx context.Context, t *tenant.Tenant, name string) (*tenant.Tenant, error) {
	var updated *tenant.Tenant
	err := repo.RetryOnUnique(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			candidate, err := slug.Unique(txCtx, name, tenantSlugFallback, s.slugExists(t.ID()))
			if err != nil {
				return err
			}
			next := t.Copy()
			next.SetName(name)
			next.SetSlug(candidate)
			updated, err = s.repo.Update(txCtx, next)
			return err
		})
	}, persistence.TenantSlugConstraint)
	if err != nil {
		return nil, err
	}
	s.refreshCurrent(ctx, updated)
	return updated, nil
}

func (s *TenantService) refreshCurrent(ctx context.Context, t *tenant.Tenant) {
	tc := tenancy.UseContext(ctx)
	if id, ok := tc.ID(ctx); ok && id == t.ID() {
		_ = tc.Set(ctx, t)
	}
}

// UpdateLogo stores new logo variants under tenants/<id>/logo and removes
// the previous files once the row points at the new ones.
func (s *TenantService) UpdateLogo(ctx context.Context, t *tenant.Tenant, r io.Reader) (*tenant.Tenant, error) {
	dir := fmt.Sprintf("tenants/%d/logo", t.ID())
	paths, err := s.images.Save(ctx, r, dir, t.Name())
	if err != nil {
		return nil, err
	}
	old := t.Logo()
	next := t.Copy()
	next.SetLogo(tenant.Logo{Original: paths.Original, Medium: paths.Medium, Thumb: paths.Thumb})

	var updated *tenant.Tenant
	err = s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.repo.Update(txCtx, next)
		return err
	})
	if err != nil {
		s.images.Delete(paths)
		return nil, err
	}
	s.images.Delete(imaging.Paths{Original: old.Original, Medium: old.Medium, Thumb: old.Thumb})
	s.refreshCurrent(ctx, updated)
	return updated, nil
}
