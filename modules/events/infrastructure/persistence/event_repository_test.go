package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error {
	return f(dest...)
}

// recordingTx captures QueryRow calls and answers them with row.
type recordingTx struct {
	pgx.Tx
	sql  []string
	args [][]any
	row  scanFunc
}

func (r *recordingTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r.sql = append(r.sql, sql)
	r.args = append(r.args, args)
	return r.row
}

func TestEventRepository_SlugExistsIsScoped(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{row: func(dest ...any) error {
		*dest[0].(*bool) = true
		return nil
	}}
	ctx := composables.WithTx(context.Background(), tx)
	repo := NewEventRepository()

	exists, err := repo.SlugExists(ctx, tenancy.ForTenant(5), "launch", 9)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t,
		"SELECT EXISTS ( SELECT 1 FROM events WHERE (events.slug = $1 AND events.id <> $2) AND events.tenant_id = $3 )",
		tx.sql[0])
	assert.Equal(t, []any{"launch", int64(9), int64(5)}, tx.args[0])

	_, err = repo.SlugExists(ctx, tenancy.Scope{}, "launch", 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS ( SELECT 1 FROM events WHERE (events.slug = $1) AND 1 = 0 )", tx.sql[1])
}

func TestEventRepository_CreateWithoutTenant(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{}
	ctx := composables.WithTx(context.Background(), tx)

	_, err := NewEventRepository().Create(ctx, tenancy.Scope{}, event.New("Launch", time.Now()))
	require.ErrorIs(t, err, tenancy.ErrNoTenantContext)
	assert.Empty(t, tx.sql)
}

func TestEventRepository_CountCreatedBetween(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{row: func(dest ...any) error {
		*dest[0].(*int) = 2
		return nil
	}}
	ctx := composables.WithTx(context.Background(), tx)
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	n, err := NewEventRepository().CountCreatedBetween(ctx, tenancy.ForTenant(5), from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t,
		"SELECT COUNT(*) FROM events WHERE events.created_at >= $1 AND events.created_at < $2 AND events.tenant_id = $3",
		tx.sql[0])
}

func TestRSVPRepository_UpsertStampsWorkspace(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{row: func(dest ...any) error {
		*dest[0].(*int64) = 11
		*dest[1].(*bool) = true
		return nil
	}}
	ctx := composables.WithTx(context.Background(), tx)

	v := rsvp.New(4, "Ana", "ana@example.com")
	created, err := NewRSVPRepository().Upsert(ctx, tenancy.ForTenant(5), v)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(5), v.TenantID())
	assert.Equal(t, int64(5), tx.args[0][0])
	assert.Contains(t, tx.sql[0], "ON CONFLICT (event_id, email) DO UPDATE")
}

func TestRSVPRepository_UpsertForeignRow(t *testing.T) {
	t.Parallel()

	tx := &recordingTx{row: func(...any) error { return pgx.ErrNoRows }}
	ctx := composables.WithTx(context.Background(), tx)

	_, err := NewRSVPRepository().Upsert(ctx, tenancy.ForTenant(5), rsvp.New(4, "Ana", "ana@example.com"))
	require.ErrorIs(t, err, ErrRSVPConflict)
}
