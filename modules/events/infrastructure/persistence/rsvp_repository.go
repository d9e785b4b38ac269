package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence/models"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

const (
	rsvpsTable = "event_rsvps"
	// rsvpOwner is passed to tenancy.Scope in place of a table name because
	// RSVPs keep their tenant in workspace_id.
	rsvpOwner = "event_rsvps.workspace_id"
)

var ErrRSVPConflict = errors.New("rsvp belongs to another workspace")

// upsertSuffix refreshes an existing answer for the same (event, email) but
// never one owned by a different workspace. xmax is 0 for freshly inserted
// rows.
const upsertSuffix = `ON CONFLICT (event_id, email) DO UPDATE SET
	name = EXCLUDED.name,
	phone = EXCLUDED.phone,
	communication_preference = EXCLUDED.communication_preference,
	notifications_scope = EXCLUDED.notifications_scope,
	status = EXCLUDED.status,
	source = EXCLUDED.source,
	updated_at = EXCLUDED.updated_at
WHERE event_rsvps.workspace_id = EXCLUDED.workspace_id
RETURNING id, (xmax = 0) AS inserted`

type RSVPRepository struct{}

func NewRSVPRepository() rsvp.Repository {
	return &RSVPRepository{}
}

func (r *RSVPRepository) Upsert(ctx context.Context, scope tenancy.Scope, v *rsvp.RSVP) (bool, error) {
	if err := scope.Stamp(v); err != nil {
		return false, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	row, err := repo.QueryRow(ctx, tx, repo.Builder.Insert(rsvpsTable).
		Columns(
			"workspace_id", "event_id", "name", "email", "phone", "communication_preference",
			"notifications_scope", "status", "source", "created_at", "updated_at",
		).
		Values(
			v.TenantID(), v.EventID(), v.Name(), v.Email(), nullString(v.Phone()), string(v.Channel()),
			string(v.Notifications()), string(v.Status()), v.Source(), v.CreatedAt(), v.UpdatedAt(),
		).
		Suffix(upsertSuffix))
	if err != nil {
		return false, err
	}
	var (
		id       int64
		inserted bool
	)
	if err := row.Scan(&id, &inserted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrRSVPConflict
		}
		return false, errors.Wrap(repo.MapError(err), "failed to upsert rsvp")
	}
	return inserted, nil
}

func (r *RSVPRepository) ListByEvent(ctx context.Context, scope tenancy.Scope, eventID int64) ([]*rsvp.RSVP, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	q := scope.Select(repo.Builder.Select(
		"event_rsvps.id", "event_rsvps.workspace_id", "event_rsvps.event_id", "event_rsvps.name",
		"event_rsvps.email", "event_rsvps.phone", "event_rsvps.communication_preference",
		"event_rsvps.notifications_scope", "event_rsvps.status", "event_rsvps.source",
		"event_rsvps.created_at", "event_rsvps.updated_at",
	).
		From(rsvpsTable).
		Where(sq.Eq{"event_rsvps.event_id": eventID}).
		OrderBy("event_rsvps.created_at", "event_rsvps.id"), rsvpOwner)
	rows, err := repo.Query(ctx, tx, q)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var out []*rsvp.RSVP
	for rows.Next() {
		var m models.RSVP
		if err := rows.Scan(
			&m.ID, &m.WorkspaceID, &m.EventID, &m.Name, &m.Email, &m.Phone, &m.CommunicationPreference,
			&m.NotificationsScope, &m.Status, &m.Source, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan rsvp")
		}
		out = append(out, toDomainRSVP(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return out, nil
}

func (r *RSVPRepository) CountByEvents(ctx context.Context, scope tenancy.Scope, eventIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	q := scope.Select(repo.Builder.Select("event_rsvps.event_id", "COUNT(*)").
		From(rsvpsTable).
		Where(sq.Eq{"event_rsvps.event_id": eventIDs}).
		GroupBy("event_rsvps.event_id"), rsvpOwner)
	rows, err := repo.Query(ctx, tx, q)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan rsvp count")
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return counts, nil
}
