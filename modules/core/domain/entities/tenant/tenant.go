package tenant

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("tenant not found")

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Logo holds storage paths of the tenant logo and its variants.
type Logo struct {
	Original string
	Medium   string
	Thumb    string
}

type Tenant struct {
	id          int64
	name        string
	slug        string
	plan        Plan
	status      Status
	trialEndsAt *time.Time
	logo        Logo
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Tenant)

func WithID(id int64) Option {
	return func(t *Tenant) {
		t.id = id
	}
}

func WithSlug(slug string) Option {
	return func(t *Tenant) {
		t.slug = slug
	}
}

func WithPlan(plan Plan) Option {
	return func(t *Tenant) {
		t.plan = plan
	}
}

func WithStatus(status Status) Option {
	return func(t *Tenant) {
		t.status = status
	}
}

func WithTrialEndsAt(at *time.Time) Option {
	return func(t *Tenant) {
		t.trialEndsAt = at
	}
}

func WithLogo(logo Logo) Option {
	return func(t *Tenant) {
		t.logo = logo
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Tenant) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Tenant) {
		t.updatedAt = updatedAt
	}
}

// New returns an active tenant on the free plan.
func New(name string, opts ...Option) *Tenant {
	now := time.Now()
	t := &Tenant{
		name:      name,
		plan:      PlanFree,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tenant) ID() int64 {
	return t.id
}

func (t *Tenant) Name() string {
	return t.name
}

func (t *Tenant) Slug() string {
	return t.slug
}

func (t *Tenant) Plan() Plan {
	return NormalizePlan(string(t.plan))
}

func (t *Tenant) Status() Status {
	return t.status
}

func (t *Tenant) IsActive() bool {
	return t.status == StatusActive
}

func (t *Tenant) TrialEndsAt() *time.Time {
	return t.trialEndsAt
}

func (t *Tenant) Logo() Logo {
	return t.logo
}

func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}

// Copy returns a detached copy for staging changes before they are saved.
func (t *Tenant) Copy() *Tenant {
	c := *t
	if t.trialEndsAt != nil {
		at := *t.trialEndsAt
		c.trialEndsAt = &at
	}
	return &c
}

func (t *Tenant) SetName(name string) {
	t.name = name
	t.updatedAt = time.Now()
}

func (t *Tenant) SetSlug(slug string) {
	t.slug = slug
	t.updatedAt = time.Now()
}

func (t *Tenant) SetPlan(plan Plan) {
	t.plan = plan
	t.updatedAt = time.Now()
}

func (t *Tenant) SetStatus(status Status) {
	t.status = status
	t.updatedAt = time.Now()
}

func (t *Tenant) SetLogo(logo Logo) {
	t.logo = logo
	t.updatedAt = time.Now()
}
