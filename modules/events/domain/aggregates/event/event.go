package event

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("event not found")
	ErrInvalidStatus   = errors.New("invalid event status")
	ErrInvalidSchedule = errors.New("event must end after it starts")
)

// DefaultDuration is assumed when an event has no end time.
const DefaultDuration = 2 * time.Hour

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCanceled  Status = "canceled"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusDraft, StatusPublished, StatusCanceled:
		return s, nil
	case "":
		return StatusDraft, nil
	}
	return "", ErrInvalidStatus
}

// Photo holds the storage paths of an image and its variants.
type Photo struct {
	Original string
	Medium   string
	Thumb    string
}

func (p Photo) IsZero() bool {
	return p.Original == ""
}

type Event struct {
	id          int64
	hashID      string
	tenantID    int64
	createdBy   int64
	title       string
	slug        string
	description string
	location    string
	startsAt    time.Time
	endsAt      *time.Time
	status      Status
	isPublic    bool
	capacity    *int
	mainPhoto   Photo
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Event)

func WithID(id int64) Option {
	return func(e *Event) {
		e.id = id
	}
}

func WithHashID(id string) Option {
	return func(e *Event) {
		e.hashID = id
	}
}

func WithTenantID(id int64) Option {
	return func(e *Event) {
		e.tenantID = id
	}
}

func WithCreatedBy(userID int64) Option {
	return func(e *Event) {
		e.createdBy = userID
	}
}

func WithSlug(slug string) Option {
	return func(e *Event) {
		e.slug = slug
	}
}

func WithDescription(description string) Option {
	return func(e *Event) {
		e.description = description
	}
}

func WithLocation(location string) Option {
	return func(e *Event) {
		e.location = location
	}
}

func WithEndsAt(at *time.Time) Option {
	return func(e *Event) {
		e.endsAt = at
	}
}

func WithStatus(status Status) Option {
	return func(e *Event) {
		e.status = status
	}
}

func WithPublic(public bool) Option {
	return func(e *Event) {
		e.isPublic = public
	}
}

func WithCapacity(capacity *int) Option {
	return func(e *Event) {
		e.capacity = capacity
	}
}

func WithMainPhoto(p Photo) Option {
	return func(e *Event) {
		e.mainPhoto = p
	}
}

func WithCreatedAt(at time.Time) Option {
	return func(e *Event) {
		e.createdAt = at
	}
}

func WithUpdatedAt(at time.Time) Option {
	return func(e *Event) {
		e.updatedAt = at
	}
}

// New returns a draft event.
func New(title string, startsAt time.Time, opts ...Option) *Event {
	now := time.Now()
	e := &Event{
		title:     title,
		startsAt:  startsAt,
		status:    StatusDraft,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Event) ID() int64 {
	return e.id
}

func (e *Event) HashID() string {
	return e.hashID
}

func (e *Event) SetHashID(id string) {
	e.hashID = id
}

func (e *Event) TenantID() int64 {
	return e.tenantID
}

func (e *Event) SetTenantID(id int64) {
	e.tenantID = id
}

func (e *Event) CreatedBy() int64 {
	return e.createdBy
}

func (e *Event) Title() string {
	return e.title
}

func (e *Event) Slug() string {
	return e.slug
}

func (e *Event) Description() string {
	return e.description
}

func (e *Event) Location() string {
	return e.location
}

func (e *Event) StartsAt() time.Time {
	return e.startsAt
}

func (e *Event) EndsAt() *time.Time {
	return e.endsAt
}

// EffectiveEnd is EndsAt, or StartsAt plus DefaultDuration when unset.
func (e *Event) EffectiveEnd() time.Time {
	if e.endsAt != nil {
		return *e.endsAt
	}
	return e.startsAt.Add(DefaultDuration)
}

// HasEnded reports whether the event has an end time before now.
func (e *Event) HasEnded(now time.Time) bool {
	return e.endsAt != nil && e.endsAt.Before(now)
}

func (e *Event) Status() Status {
	return e.status
}

func (e *Event) IsPublic() bool {
	return e.isPublic
}

// IsListed reports whether guests can see the event.
func (e *Event) IsListed() bool {
	return e.isPublic && e.status == StatusPublished
}

func (e *Event) Capacity() *int {
	return e.capacity
}

func (e *Event) MainPhoto() Photo {
	return e.mainPhoto
}

func (e *Event) CreatedAt() time.Time {
	return e.createdAt
}

func (e *Event) UpdatedAt() time.Time {
	return e.updatedAt
}

// Details is the editable part of an event.
type Details struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      *time.Time
	Status      Status
	IsPublic    bool
	Capacity    *int
}

func (d Details) Validate() error {
	if d.EndsAt != nil && !d.EndsAt.After(d.StartsAt) {
		return ErrInvalidSchedule
	}
	return nil
}

// Copy returns a detached copy for staging changes before they are saved.
func (e *Event) Copy() *Event {
	c := *e
	if e.endsAt != nil {
		at := *e.endsAt
		c.endsAt = &at
	}
	if e.capacity != nil {
		n := *e.capacity
		c.capacity = &n
	}
	return &c
}

// Apply overwrites the editable fields and reports whether the title changed.
func (e *Event) Apply(d Details) (titleChanged bool) {
	titleChanged = e.title != d.Title
	e.title = d.Title
	e.description = d.Description
	e.location = d.Location
	e.startsAt = d.StartsAt
	e.endsAt = d.EndsAt
	e.status = d.Status
	e.isPublic = d.IsPublic
	e.capacity = d.Capacity
	e.updatedAt = time.Now()
	return titleChanged
}

func (e *Event) SetSlug(slug string) {
	e.slug = slug
	e.updatedAt = time.Now()
}

func (e *Event) SetMainPhoto(p Photo) {
	e.mainPhoto = p
	e.updatedAt = time.Now()
}
