package rsvp

import (
	"context"
	"strings"
	"time"

	"github.com/eventflow/eventflow/pkg/tenancy"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
)

// NeedsPhone reports whether the channel delivers to a phone number.
func (c Channel) NeedsPhone() bool {
	return c == ChannelWhatsApp || c == ChannelSMS
}

type NotificationScope string

const (
	ScopeEventOnly NotificationScope = "event_only"
	ScopeWorkspace NotificationScope = "workspace"
	ScopePlatform  NotificationScope = "platform"
)

type Status string

const (
	StatusGoing    Status = "going"
	StatusNotGoing Status = "not_going"
	StatusMaybe    Status = "maybe"
)

const SourcePublicPage = "public_page"

// RSVP is a guest's answer to a public event. The owning tenant is stored
// in the workspace_id column.
type RSVP struct {
	id            int64
	workspaceID   int64
	eventID       int64
	name          string
	email         string
	phone         string
	channel       Channel
	notifications NotificationScope
	status        Status
	source        string
	createdAt     time.Time
	updatedAt     time.Time
}

type Option func(*RSVP)

func WithID(id int64) Option {
	return func(r *RSVP) {
		r.id = id
	}
}

func WithWorkspaceID(id int64) Option {
	return func(r *RSVP) {
		r.workspaceID = id
	}
}

func WithPhone(phone string) Option {
	return func(r *RSVP) {
		r.phone = phone
	}
}

func WithChannel(c Channel) Option {
	return func(r *RSVP) {
		r.channel = c
	}
}

func WithNotifications(s NotificationScope) Option {
	return func(r *RSVP) {
		r.notifications = s
	}
}

func WithStatus(s Status) Option {
	return func(r *RSVP) {
		r.status = s
	}
}

func WithSource(source string) Option {
	return func(r *RSVP) {
		r.source = source
	}
}

func WithTimestamps(createdAt, updatedAt time.Time) Option {
	return func(r *RSVP) {
		r.createdAt = createdAt
		r.updatedAt = updatedAt
	}
}

// New lowercases email and defaults to a "going" answer by email from the
// public page.
func New(eventID int64, name, email string, opts ...Option) *RSVP {
	now := time.Now()
	r := &RSVP{
		eventID:       eventID,
		name:          strings.TrimSpace(name),
		email:         strings.ToLower(strings.TrimSpace(email)),
		channel:       ChannelEmail,
		notifications: ScopeEventOnly,
		status:        StatusGoing,
		source:        SourcePublicPage,
		createdAt:     now,
		updatedAt:     now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RSVP) ID() int64                        { return r.id }
func (r *RSVP) TenantID() int64                  { return r.workspaceID }
func (r *RSVP) SetTenantID(id int64)             { r.workspaceID = id }
func (r *RSVP) EventID() int64                   { return r.eventID }
func (r *RSVP) Name() string                     { return r.name }
func (r *RSVP) Email() string                    { return r.email }
func (r *RSVP) Phone() string                    { return r.phone }
func (r *RSVP) Channel() Channel                 { return r.channel }
func (r *RSVP) Notifications() NotificationScope { return r.notifications }
func (r *RSVP) Status() Status                   { return r.status }
func (r *RSVP) Source() string                   { return r.source }
func (r *RSVP) CreatedAt() time.Time             { return r.createdAt }
func (r *RSVP) UpdatedAt() time.Time             { return r.updatedAt }

type Repository interface {
	// Upsert inserts r or updates the answer already stored for
	// (event_id, email). created is false on update.
	Upsert(ctx context.Context, scope tenancy.Scope, r *RSVP) (created bool, err error)
	ListByEvent(ctx context.Context, scope tenancy.Scope, eventID int64) ([]*RSVP, error)
	CountByEvents(ctx context.Context, scope tenancy.Scope, eventIDs []int64) (map[int64]int, error)
}
