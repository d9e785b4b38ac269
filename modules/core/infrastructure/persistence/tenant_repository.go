package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"

	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence/models"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/repo"
)

// Unique constraints guarding generated identifiers.
const (
	TenantSlugConstraint   = "tenants_slug_key"
	UserEmailConstraint    = "users_email_key"
	UserHashIDConstraint   = "users_hash_id_key"
	MembershipPKConstraint = "tenant_users_pkey"
)

var tenantColumns = []string{
	"tenants.id", "tenants.name", "tenants.slug", "tenants.plan", "tenants.status", "tenants.trial_ends_at",
	"tenants.logo_path", "tenants.logo_medium_path", "tenants.logo_thumb_path",
	"tenants.created_at", "tenants.updated_at",
}

type TenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &TenantRepository{}
}

func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	return r.getOne(ctx, sq.Eq{"tenants.id": id})
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.getOne(ctx, sq.Eq{"tenants.slug": slug})
}

func (r *TenantRepository) GetByIDs(ctx context.Context, ids []int64) ([]*tenant.Tenant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryTenants(ctx, repo.Builder.Select(tenantColumns...).
		From("tenants").
		Where(sq.Eq{"tenants.id": ids}).
		OrderBy("tenants.name"))
}

func (r *TenantRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	sub := repo.Builder.Select("1").From("tenants").Where(sq.Eq{"slug": slug})
	if excludeID > 0 {
		sub = sub.Where(sq.NotEq{"id": excludeID})
	}
	row, err := repo.QueryRow(ctx, tx, sub.Prefix("SELECT EXISTS (").Suffix(")"))
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check tenant slug")
	}
	return exists, nil
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBTenant(t)
	row, err := repo.QueryRow(ctx, tx, repo.Builder.Insert("tenants").
		Columns("name", "slug", "plan", "status", "trial_ends_at",
			"logo_path", "logo_medium_path", "logo_thumb_path", "created_at", "updated_at").
		Values(m.Name, m.Slug, m.Plan, m.Status, m.TrialEndsAt,
			m.LogoPath, m.LogoMediumPath, m.LogoThumbPath, m.CreatedAt, m.UpdatedAt).
		Suffix("RETURNING id"))
	if err != nil {
		return nil, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, repo.MapError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBTenant(t)
	tag, err := repo.Exec(ctx, tx, repo.Builder.Update("tenants").
		SetMap(map[string]any{
			"name":             m.Name,
			"slug":             m.Slug,
			"plan":             m.Plan,
			"status":           m.Status,
			"trial_ends_at":    m.TrialEndsAt,
			"logo_path":        m.LogoPath,
			"logo_medium_path": m.LogoMediumPath,
			"logo_thumb_path":  m.LogoThumbPath,
			"updated_at":       m.UpdatedAt,
		}).
		Where(sq.Eq{"id": m.ID}))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, tenant.ErrNotFound
	}
	return r.GetByID(ctx, m.ID)
}

func (r *TenantRepository) getOne(ctx context.Context, where sq.Sqlizer) (*tenant.Tenant, error) {
	tenants, err := r.queryTenants(ctx, repo.Builder.Select(tenantColumns...).From("tenants").Where(where).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, tenant.ErrNotFound
	}
	return tenants[0], nil
}

func (r *TenantRepository) queryTenants(ctx context.Context, q sq.SelectBuilder) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := repo.Query(ctx, tx, q)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Slug,
			&t.Plan,
			&t.Status,
			&t.TrialEndsAt,
			&t.LogoPath,
			&t.LogoMediumPath,
			&t.LogoThumbPath,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant row")
		}
		tenants = append(tenants, toDomainTenant(&t))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return tenants, nil
}
