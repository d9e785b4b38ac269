package models

import (
	"database/sql"
	"time"
)

type Event struct {
	ID                  int64
	HashID              string
	TenantID            int64
	CreatedBy           int64
	Title               string
	Slug                string
	Description         sql.NullString
	Location            sql.NullString
	StartsAt            time.Time
	EndsAt              sql.NullTime
	Status              string
	IsPublic            bool
	Capacity            sql.NullInt32
	MainPhotoPath       sql.NullString
	MainPhotoMediumPath sql.NullString
	MainPhotoThumbPath  sql.NullString
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Photo struct {
	ID         int64
	TenantID   int64
	EventID    int64
	UploadedBy int64
	Path       string
	MediumPath string
	ThumbPath  string
	CreatedAt  time.Time
}

type RSVP struct {
	ID                      int64
	WorkspaceID             int64
	EventID                 int64
	Name                    string
	Email                   string
	Phone                   sql.NullString
	CommunicationPreference string
	NotificationsScope      string
	Status                  string
	Source                  string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
