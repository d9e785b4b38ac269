package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence/models"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

const membershipTable = "tenant_users"

var membershipColumns = []string{
	"tenant_users.tenant_id", "tenant_users.user_id", "tenant_users.role", "tenant_users.status",
	"tenant_users.created_at", "tenant_users.updated_at",
}

// MembershipRepository stores tenant_users rows. Every statement goes through
// the caller's tenancy.Scope.
type MembershipRepository struct{}

func NewMembershipRepository() membership.Repository {
	return &MembershipRepository{}
}

func (r *MembershipRepository) Get(ctx context.Context, scope tenancy.Scope, userID int64) (*membership.Membership, error) {
	items, err := r.query(ctx, scope, repo.Builder.Select(membershipColumns...).
		From(membershipTable).
		Where(sq.Eq{"tenant_users.user_id": userID}).
		OrderBy("tenant_users.tenant_id").
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, membership.ErrNotFound
	}
	return items[0], nil
}

func (r *MembershipRepository) ListActive(ctx context.Context, scope tenancy.Scope, roles ...membership.Role) ([]*membership.Membership, error) {
	q := repo.Builder.Select(membershipColumns...).
		From(membershipTable).
		Where(sq.Eq{"tenant_users.status": string(membership.StatusActive)}).
		OrderBy("tenant_users.created_at", "tenant_users.user_id")
	if len(roles) > 0 {
		q = q.Where(sq.Eq{"tenant_users.role": roleStrings(roles)})
	}
	return r.query(ctx, scope, q)
}

func (r *MembershipRepository) CountActiveByRole(ctx context.Context, scope tenancy.Scope, role membership.Role) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	q := scope.Select(repo.Builder.Select("COUNT(*)").
		From(membershipTable).
		Where(sq.Eq{
			"tenant_users.status": string(membership.StatusActive),
			"tenant_users.role":   string(role),
		}), membershipTable)
	row, err := repo.QueryRow(ctx, tx, q)
	if err != nil {
		return 0, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count memberships")
	}
	return count, nil
}

func (r *MembershipRepository) Create(ctx context.Context, scope tenancy.Scope, m *membership.Membership) error {
	if err := scope.Stamp(m); err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	_, err = repo.Exec(ctx, tx, repo.Builder.Insert(membershipTable).
		Columns("tenant_id", "user_id", "role", "status", "created_at", "updated_at").
		Values(m.TenantID(), m.UserID(), string(m.Role()), string(m.Status()), m.CreatedAt(), m.UpdatedAt()))
	if err != nil {
		return errors.Wrap(err, "failed to insert membership")
	}
	return nil
}

func (r *MembershipRepository) Update(ctx context.Context, scope tenancy.Scope, m *membership.Membership) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	q := scope.Update(repo.Builder.Update(membershipTable).
		SetMap(map[string]any{
			"role":       string(m.Role()),
			"status":     string(m.Status()),
			"updated_at": m.UpdatedAt(),
		}).
		Where(sq.Eq{"tenant_users.tenant_id": m.TenantID(), "tenant_users.user_id": m.UserID()}), membershipTable)
	tag, err := repo.Exec(ctx, tx, q)
	if err != nil {
		return errors.Wrap(err, "failed to update membership")
	}
	if tag.RowsAffected() == 0 {
		return membership.ErrNotFound
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, scope tenancy.Scope, userID int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	q := scope.Delete(repo.Builder.Delete(membershipTable).
		Where(sq.Eq{"tenant_users.user_id": userID}), membershipTable)
	tag, err := repo.Exec(ctx, tx, q)
	if err != nil {
		return errors.Wrap(err, "failed to delete membership")
	}
	if tag.RowsAffected() == 0 {
		return membership.ErrNotFound
	}
	return nil
}

func (r *MembershipRepository) ListActiveForUser(ctx context.Context, scope tenancy.Scope, userID int64) ([]*membership.Membership, error) {
	return r.query(ctx, scope, repo.Builder.Select(membershipColumns...).
		From(membershipTable).
		Join("tenants ON tenants.id = tenant_users.tenant_id").
		Where(sq.Eq{
			"tenant_users.user_id": userID,
			"tenant_users.status":  string(membership.StatusActive),
		}).
		OrderBy("tenants.name"))
}

func (r *MembershipRepository) query(ctx context.Context, scope tenancy.Scope, q sq.SelectBuilder) ([]*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := repo.Query(ctx, tx, scope.Select(q, membershipTable))
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var out []*membership.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.TenantID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan membership")
		}
		out = append(out, toDomainMembership(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return out, nil
}

func roleStrings(roles []membership.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
