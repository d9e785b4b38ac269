package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"

	"github.com/eventflow/eventflow/modules/events/domain/entities/photo"
	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence/models"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

const photosTable = "event_photos"

type PhotoRepository struct{}

func NewPhotoRepository() photo.Repository {
	return &PhotoRepository{}
}

func (r *PhotoRepository) ListByEvent(ctx context.Context, scope tenancy.Scope, eventID int64, limit int) ([]*photo.Photo, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	q := repo.Builder.Select(
		"event_photos.id", "event_photos.tenant_id", "event_photos.event_id", "event_photos.uploaded_by",
		"event_photos.path", "event_photos.medium_path", "event_photos.thumb_path", "event_photos.created_at",
	).
		From(photosTable).
		Where(sq.Eq{"event_photos.event_id": eventID}).
		OrderBy("event_photos.created_at DESC", "event_photos.id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	rows, err := repo.Query(ctx, tx, scope.Select(q, photosTable))
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var out []*photo.Photo
	for rows.Next() {
		var m models.Photo
		if err := rows.Scan(&m.ID, &m.TenantID, &m.EventID, &m.UploadedBy, &m.Path, &m.MediumPath, &m.ThumbPath, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan photo")
		}
		out = append(out, toDomainPhoto(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return out, nil
}

func (r *PhotoRepository) Create(ctx context.Context, scope tenancy.Scope, p *photo.Photo) (*photo.Photo, error) {
	if err := scope.Stamp(p); err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	row, err := repo.QueryRow(ctx, tx, repo.Builder.Insert(photosTable).
		Columns("tenant_id", "event_id", "uploaded_by", "path", "medium_path", "thumb_path", "created_at").
		Values(p.TenantID(), p.EventID(), p.UploadedBy(), p.Original(), p.Medium(), p.Thumb(), p.CreatedAt()).
		Suffix("RETURNING id"))
	if err != nil {
		return nil, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, errors.Wrap(repo.MapError(err), "failed to insert photo")
	}
	return photo.New(
		p.EventID(), p.UploadedBy(), p.Original(), p.Medium(), p.Thumb(),
		photo.WithID(id),
		photo.WithTenantID(p.TenantID()),
		photo.WithCreatedAt(p.CreatedAt()),
	), nil
}
