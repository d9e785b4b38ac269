package persistence

import (
	"database/sql"
	"time"

	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/domain/entities/photo"
	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence/models"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func toDomainEvent(m *models.Event) *event.Event {
	opts := []event.Option{
		event.WithID(m.ID),
		event.WithHashID(m.HashID),
		event.WithTenantID(m.TenantID),
		event.WithCreatedBy(m.CreatedBy),
		event.WithSlug(m.Slug),
		event.WithDescription(m.Description.String),
		event.WithLocation(m.Location.String),
		event.WithStatus(event.Status(m.Status)),
		event.WithPublic(m.IsPublic),
		event.WithMainPhoto(event.Photo{
			Original: m.MainPhotoPath.String,
			Medium:   m.MainPhotoMediumPath.String,
			Thumb:    m.MainPhotoThumbPath.String,
		}),
		event.WithCreatedAt(m.CreatedAt),
		event.WithUpdatedAt(m.UpdatedAt),
	}
	if m.EndsAt.Valid {
		end := m.EndsAt.Time
		opts = append(opts, event.WithEndsAt(&end))
	}
	if m.Capacity.Valid {
		c := int(m.Capacity.Int32)
		opts = append(opts, event.WithCapacity(&c))
	}
	return event.New(m.Title, m.StartsAt, opts...)
}

func toDBEvent(e *event.Event) *models.Event {
	p := e.MainPhoto()
	return &models.Event{
		ID:                  e.ID(),
		HashID:              e.HashID(),
		TenantID:            e.TenantID(),
		CreatedBy:           e.CreatedBy(),
		Title:               e.Title(),
		Slug:                e.Slug(),
		Description:         nullString(e.Description()),
		Location:            nullString(e.Location()),
		StartsAt:            e.StartsAt(),
		EndsAt:              nullTime(e.EndsAt()),
		Status:              string(e.Status()),
		IsPublic:            e.IsPublic(),
		Capacity:            nullInt(e.Capacity()),
		MainPhotoPath:       nullString(p.Original),
		MainPhotoMediumPath: nullString(p.Medium),
		MainPhotoThumbPath:  nullString(p.Thumb),
		CreatedAt:           e.CreatedAt(),
		UpdatedAt:           e.UpdatedAt(),
	}
}

func toDomainPhoto(m *models.Photo) *photo.Photo {
	return photo.New(
		m.EventID,
		m.UploadedBy,
		m.Path,
		m.MediumPath,
		m.ThumbPath,
		photo.WithID(m.ID),
		photo.WithTenantID(m.TenantID),
		photo.WithCreatedAt(m.CreatedAt),
	)
}

func toDomainRSVP(m *models.RSVP) *rsvp.RSVP {
	return rsvp.New(
		m.EventID,
		m.Name,
		m.Email,
		rsvp.WithID(m.ID),
		rsvp.WithWorkspaceID(m.WorkspaceID),
		rsvp.WithPhone(m.Phone.String),
		rsvp.WithChannel(rsvp.Channel(m.CommunicationPreference)),
		rsvp.WithNotifications(rsvp.NotificationScope(m.NotificationsScope)),
		rsvp.WithStatus(rsvp.Status(m.Status)),
		rsvp.WithSource(m.Source),
		rsvp.WithTimestamps(m.CreatedAt, m.UpdatedAt),
	)
}
