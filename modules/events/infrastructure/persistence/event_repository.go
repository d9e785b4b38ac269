package persistence

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"

	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence/models"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// Unique constraint names from the events migrations.
const (
	EventSlugConstraint   = "events_tenant_id_slug_key"
	EventHashIDConstraint = "events_hash_id_key"
	RSVPEmailConstraint   = "event_rsvps_event_id_email_key"
)

const eventsTable = "events"

var eventColumns = []string{
	"events.id", "events.hash_id", "events.tenant_id", "events.created_by", "events.title", "events.slug",
	"events.description", "events.location", "events.starts_at", "events.ends_at", "events.status",
	"events.is_public", "events.capacity", "events.main_photo_path", "events.main_photo_medium_path",
	"events.main_photo_thumb_path", "events.created_at", "events.updated_at",
}

type EventRepository struct{}

func NewEventRepository() event.Repository {
	return &EventRepository{}
}

func (r *EventRepository) GetByID(ctx context.Context, scope tenancy.Scope, id int64) (*event.Event, error) {
	return r.getOne(ctx, scope, sq.Eq{"events.id": id})
}

func (r *EventRepository) GetByHashID(ctx context.Context, scope tenancy.Scope, hashID string) (*event.Event, error) {
	return r.getOne(ctx, scope, sq.Eq{"events.hash_id": hashID})
}

func (r *EventRepository) GetPaginated(ctx context.Context, scope tenancy.Scope, params *event.FindParams) ([]*event.Event, error) {
	q := repo.Builder.Select(eventColumns...).From(eventsTable).Where(r.filters(params))
	switch params.SortBy {
	case event.SortStartsAtAsc:
		q = q.OrderBy("events.starts_at ASC", "events.id ASC")
	default:
		q = q.OrderBy("events.starts_at DESC", "events.id DESC")
	}
	if params.Limit > 0 {
		q = q.Limit(uint64(params.Limit))
	}
	if params.Offset > 0 {
		q = q.Offset(uint64(params.Offset))
	}
	return r.query(ctx, scope, q)
}

func (r *EventRepository) Count(ctx context.Context, scope tenancy.Scope, params *event.FindParams) (int64, error) {
	var count int64
	err := r.scalar(ctx, scope, repo.Builder.Select("COUNT(*)").From(eventsTable).Where(r.filters(params)), &count)
	return count, err
}

func (r *EventRepository) SlugExists(ctx context.Context, scope tenancy.Scope, slug string, excludeID int64) (bool, error) {
	where := sq.And{sq.Eq{"events.slug": slug}}
	if excludeID > 0 {
		where = append(where, sq.NotEq{"events.id": excludeID})
	}
	inner := scope.Select(repo.Builder.Select("1").From(eventsTable).Where(where), eventsTable)
	q := inner.Prefix("SELECT EXISTS (").Suffix(")")
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	row, err := repo.QueryRow(ctx, tx, q)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check event slug")
	}
	return exists, nil
}

func (r *EventRepository) CountCreatedBetween(ctx context.Context, scope tenancy.Scope, from, to time.Time) (int, error) {
	var count int
	err := r.scalar(ctx, scope, repo.Builder.Select("COUNT(*)").
		From(eventsTable).
		Where(sq.GtOrEq{"events.created_at": from}).
		Where(sq.Lt{"events.created_at": to}), &count)
	return count, err
}

func (r *EventRepository) Create(ctx context.Context, scope tenancy.Scope, e *event.Event) (*event.Event, error) {
	if err := scope.Stamp(e); err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBEvent(e)
	row, err := repo.QueryRow(ctx, tx, repo.Builder.Insert(eventsTable).
		Columns(
			"hash_id", "tenant_id", "created_by", "title", "slug", "description", "location",
			"starts_at", "ends_at", "status", "is_public", "capacity",
			"main_photo_path", "main_photo_medium_path", "main_photo_thumb_path",
			"created_at", "updated_at",
		).
		Values(
			m.HashID, m.TenantID, m.CreatedBy, m.Title, m.Slug, m.Description, m.Location,
			m.StartsAt, m.EndsAt, m.Status, m.IsPublic, m.Capacity,
			m.MainPhotoPath, m.MainPhotoMediumPath, m.MainPhotoThumbPath,
			m.CreatedAt, m.UpdatedAt,
		).
		Suffix("RETURNING id"))
	if err != nil {
		return nil, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, repo.MapError(err)
	}
	return r.GetByID(ctx, scope, id)
}

func (r *EventRepository) Update(ctx context.Context, scope tenancy.Scope, e *event.Event) (*event.Event, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBEvent(e)
	q := scope.Update(repo.Builder.Update(eventsTable).
		SetMap(map[string]any{
			"title":                  m.Title,
			"slug":                   m.Slug,
			"description":            m.Description,
			"location":               m.Location,
			"starts_at":              m.StartsAt,
			"ends_at":                m.EndsAt,
			"status":                 m.Status,
			"is_public":              m.IsPublic,
			"capacity":               m.Capacity,
			"main_photo_path":        m.MainPhotoPath,
			"main_photo_medium_path": m.MainPhotoMediumPath,
			"main_photo_thumb_path":  m.MainPhotoThumbPath,
			"updated_at":             m.UpdatedAt,
		}).
		Where(sq.Eq{"events.id": m.ID}), eventsTable)
	tag, err := repo.Exec(ctx, tx, q)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, event.ErrNotFound
	}
	return r.GetByID(ctx, scope, m.ID)
}

func (r *EventRepository) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := repo.Exec(ctx, tx, scope.Delete(repo.Builder.Delete(eventsTable).Where(sq.Eq{"events.id": id}), eventsTable))
	if err != nil {
		return errors.Wrap(err, "failed to delete event")
	}
	if tag.RowsAffected() == 0 {
		return event.ErrNotFound
	}
	return nil
}

func (r *EventRepository) filters(params *event.FindParams) sq.And {
	where := sq.And{}
	if params.CreatedBy > 0 {
		where = append(where, sq.Eq{"events.created_by": params.CreatedBy})
	}
	if params.ListedOnly {
		where = append(where, sq.Eq{"events.is_public": true, "events.status": string(event.StatusPublished)})
	}
	if params.StartsFrom != nil {
		where = append(where, sq.GtOrEq{"events.starts_at": *params.StartsFrom})
	}
	if params.StartsTo != nil {
		where = append(where, sq.LtOrEq{"events.starts_at": *params.StartsTo})
	}
	return where
}

func (r *EventRepository) scalar(ctx context.Context, scope tenancy.Scope, q sq.SelectBuilder, dst any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	row, err := repo.QueryRow(ctx, tx, scope.Select(q, eventsTable))
	if err != nil {
		return err
	}
	if err := row.Scan(dst); err != nil {
		return errors.Wrap(err, "failed to count events")
	}
	return nil
}

func (r *EventRepository) getOne(ctx context.Context, scope tenancy.Scope, where sq.Sqlizer) (*event.Event, error) {
	items, err := r.query(ctx, scope, repo.Builder.Select(eventColumns...).From(eventsTable).Where(where).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, event.ErrNotFound
	}
	return items[0], nil
}

func (r *EventRepository) query(ctx context.Context, scope tenancy.Scope, q sq.SelectBuilder) ([]*event.Event, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := repo.Query(ctx, tx, scope.Select(q, eventsTable))
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		var m models.Event
		if err := rows.Scan(
			&m.ID,
			&m.HashID,
			&m.TenantID,
			&m.CreatedBy,
			&m.Title,
			&m.Slug,
			&m.Description,
			&m.Location,
			&m.StartsAt,
			&m.EndsAt,
			&m.Status,
			&m.IsPublic,
			&m.Capacity,
			&m.MainPhotoPath,
			&m.MainPhotoMediumPath,
			&m.MainPhotoThumbPath,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		out = append(out, toDomainEvent(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return out, nil
}
