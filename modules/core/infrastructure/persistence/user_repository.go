package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence/models"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/repo"
)

var userColumns = []string{
	"u.id", "u.hash_id", "u.name", "u.email", "u.password", "u.email_verified_at", "u.created_at", "u.updated_at",
}

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, sq.Eq{"u.id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email user.Email) (*user.User, error) {
	return r.getOne(ctx, sq.Eq{"u.email": email.String()})
}

func (r *UserRepository) GetByHashID(ctx context.Context, hashID string) (*user.User, error) {
	return r.getOne(ctx, sq.Eq{"u.hash_id": hashID})
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryUsers(ctx, repo.Builder.Select(userColumns...).
		From("users u").
		Where(sq.Eq{"u.id": ids}).
		OrderBy("u.name", "u.id"))
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBUser(u)
	row, err := repo.QueryRow(ctx, tx, repo.Builder.Insert("users").
		Columns("hash_id", "name", "email", "password", "email_verified_at", "created_at", "updated_at").
		Values(m.HashID, m.Name, m.Email, m.Password, m.EmailVerifiedAt, m.CreatedAt, m.UpdatedAt).
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

func (r *UserRepository) Update(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBUser(u)
	tag, err := repo.Exec(ctx, tx, repo.Builder.Update("users").
		SetMap(map[string]any{
			"hash_id":           m.HashID,
			"name":              m.Name,
			"email":             m.Email,
			"password":          m.Password,
			"email_verified_at": m.EmailVerifiedAt,
			"updated_at":        m.UpdatedAt,
		}).
		Where(sq.Eq{"id": m.ID}))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, user.ErrNotFound
	}
	return r.GetByID(ctx, m.ID)
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Sqlizer) (*user.User, error) {
	users, err := r.queryUsers(ctx, repo.Builder.Select(userColumns...).From("users u").Where(where).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, user.ErrNotFound
	}
	return users[0], nil
}

func (r *UserRepository) queryUsers(ctx context.Context, q sq.SelectBuilder) ([]*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := repo.Query(ctx, tx, q)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.HashID,
			&u.Name,
			&u.Email,
			&u.Password,
			&u.EmailVerifiedAt,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, toDomainUser(&u))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return users, nil
}
