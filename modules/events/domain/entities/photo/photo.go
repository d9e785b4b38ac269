package photo

import (
	"context"
	"time"

	"github.com/eventflow/eventflow/pkg/tenancy"
)

// Photo is a story picture attached to an event after it ended.
type Photo struct {
	id         int64
	tenantID   int64
	eventID    int64
	uploadedBy int64
	original   string
	medium     string
	thumb      string
	createdAt  time.Time
}

type Option func(*Photo)

func WithID(id int64) Option {
	return func(p *Photo) {
		p.id = id
	}
}

func WithTenantID(id int64) Option {
	return func(p *Photo) {
		p.tenantID = id
	}
}

func WithCreatedAt(at time.Time) Option {
	return func(p *Photo) {
		p.createdAt = at
	}
}

func New(eventID, uploadedBy int64, original, medium, thumb string, opts ...Option) *Photo {
	p := &Photo{
		eventID:    eventID,
		uploadedBy: uploadedBy,
		original:   original,
		medium:     medium,
		thumb:      thumb,
		createdAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Photo) ID() int64            { return p.id }
func (p *Photo) TenantID() int64      { return p.tenantID }
func (p *Photo) SetTenantID(id int64) { p.tenantID = id }
func (p *Photo) EventID() int64       { return p.eventID }
func (p *Photo) UploadedBy() int64    { return p.uploadedBy }
func (p *Photo) Original() string     { return p.original }
func (p *Photo) Medium() string       { return p.medium }
func (p *Photo) Thumb() string        { return p.thumb }
func (p *Photo) CreatedAt() time.Time { return p.createdAt }

type Repository interface {
	// ListByEvent returns the newest photos first; limit <= 0 means all.
	ListByEvent(ctx context.Context, scope tenancy.Scope, eventID int64, limit int) ([]*Photo, error)
	Create(ctx context.Context, scope tenancy.Scope, p *Photo) (*Photo, error)
}
