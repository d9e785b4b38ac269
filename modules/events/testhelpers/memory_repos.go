// Package testhelpers provides in-memory event repositories that honour
// tenancy.Scope like the SQL ones.
package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/domain/entities/photo"
	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

func uniqueViolation(constraint string) error {
	return &repo.UniqueViolationError{Constraint: constraint, Err: repo.ErrUniqueViolation}
}

type EventRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*event.Event
	// BeforeCreate runs once before the next insert, so tests can plant a
	// concurrent row.
	BeforeCreate func(e *event.Event)
}

func NewEventRepository() *EventRepository {
	return &EventRepository{rows: map[int64]*event.Event{}}
}

func cloneEvent(e *event.Event, id int64) *event.Event {
	return event.New(
		e.Title(),
		e.StartsAt(),
		event.WithID(id),
		event.WithHashID(e.HashID()),
		event.WithTenantID(e.TenantID()),
		event.WithCreatedBy(e.CreatedBy()),
		event.WithSlug(e.Slug()),
		event.WithDescription(e.Description()),
		event.WithLocation(e.Location()),
		event.WithEndsAt(e.EndsAt()),
		event.WithStatus(e.Status()),
		event.WithPublic(e.IsPublic()),
		event.WithCapacity(e.Capacity()),
		event.WithMainPhoto(e.MainPhoto()),
		event.WithCreatedAt(e.CreatedAt()),
		event.WithUpdatedAt(e.UpdatedAt()),
	)
}

// Insert stores e as is, skipping scope checks and hooks.
func (r *EventRepository) Insert(e *event.Event) *event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	out := cloneEvent(e, r.nextID)
	r.rows[out.ID()] = out
	return cloneEvent(out, out.ID())
}

func (r *EventRepository) find(scope tenancy.Scope, keep func(*event.Event) bool) []*event.Event {
	var out []*event.Event
	for _, e := range r.rows {
		if scope.Allows(e.TenantID()) && keep(e) {
			out = append(out, cloneEvent(e, e.ID()))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *EventRepository) one(scope tenancy.Scope, keep func(*event.Event) bool) (*event.Event, error) {
	found := r.find(scope, keep)
	if len(found) == 0 {
		return nil, event.ErrNotFound
	}
	return found[0], nil
}

func (r *EventRepository) GetByID(_ context.Context, scope tenancy.Scope, id int64) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.one(scope, func(e *event.Event) bool { return e.ID() == id })
}

func (r *EventRepository) GetByHashID(_ context.Context, scope tenancy.Scope, hashID string) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.one(scope, func(e *event.Event) bool { return e.HashID() == hashID })
}

func matches(params *event.FindParams, e *event.Event) bool {
	if params.CreatedBy > 0 && e.CreatedBy() != params.CreatedBy {
		return false
	}
	if params.ListedOnly && !e.IsListed() {
		return false
	}
	if params.StartsFrom != nil && e.StartsAt().Before(*params.StartsFrom) {
		return false
	}
	if params.StartsTo != nil && e.StartsAt().After(*params.StartsTo) {
		return false
	}
	return true
}

func (r *EventRepository) GetPaginated(_ context.Context, scope tenancy.Scope, params *event.FindParams) ([]*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.find(scope, func(e *event.Event) bool { return matches(params, e) })
	sort.SliceStable(out, func(i, j int) bool {
		if params.SortBy == event.SortStartsAtAsc {
			return out[i].StartsAt().Before(out[j].StartsAt())
		}
		return out[i].StartsAt().After(out[j].StartsAt())
	})
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return nil, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *EventRepository) Count(_ context.Context, scope tenancy.Scope, params *event.FindParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.find(scope, func(e *event.Event) bool { return matches(params, e) }))), nil
}

func (r *EventRepository) SlugExists(_ context.Context, scope tenancy.Scope, slug string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := r.find(scope, func(e *event.Event) bool { return e.Slug() == slug && e.ID() != excludeID })
	return len(found) > 0, nil
}

func (r *EventRepository) CountCreatedBetween(_ context.Context, scope tenancy.Scope, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.find(scope, func(e *event.Event) bool {
		return !e.CreatedAt().Before(from) && e.CreatedAt().Before(to)
	})), nil
}

func (r *EventRepository) conflict(e *event.Event, selfID int64) error {
	for id, other := range r.rows {
		if id == selfID {
			continue
		}
		if other.TenantID() == e.TenantID() && other.Slug() == e.Slug() {
			return uniqueViolation(persistence.EventSlugConstraint)
		}
		if e.HashID() != "" && other.HashID() == e.HashID() {
			return uniqueViolation(persistence.EventHashIDConstraint)
		}
	}
	return nil
}

func (r *EventRepository) Create(_ context.Context, scope tenancy.Scope, e *event.Event) (*event.Event, error) {
	if err := scope.Stamp(e); err != nil {
		return nil, err
	}
	if r.BeforeCreate != nil {
		hook := r.BeforeCreate
		r.BeforeCreate = nil
		hook(e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(e, 0); err != nil {
		return nil, err
	}
	r.nextID++
	r.rows[r.nextID] = cloneEvent(e, r.nextID)
	return cloneEvent(e, r.nextID), nil
}

func (r *EventRepository) Update(_ context.Context, scope tenancy.Scope, e *event.Event) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[e.ID()]
	if !ok || !scope.Allows(stored.TenantID()) {
		return nil, event.ErrNotFound
	}
	if err := r.conflict(e, e.ID()); err != nil {
		return nil, err
	}
	r.rows[e.ID()] = cloneEvent(e, e.ID())
	return cloneEvent(e, e.ID()), nil
}

func (r *EventRepository) Delete(_ context.Context, scope tenancy.Scope, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[id]
	if !ok || !scope.Allows(stored.TenantID()) {
		return event.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type PhotoRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []*photo.Photo
}

func NewPhotoRepository() *PhotoRepository {
	return &PhotoRepository{}
}

func (r *PhotoRepository) ListByEvent(_ context.Context, scope tenancy.Scope, eventID int64, limit int) ([]*photo.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*photo.Photo
	for i := len(r.rows) - 1; i >= 0; i-- {
		p := r.rows[i]
		if p.EventID() == eventID && scope.Allows(p.TenantID()) {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *PhotoRepository) Create(_ context.Context, scope tenancy.Scope, p *photo.Photo) (*photo.Photo, error) {
	if err := scope.Stamp(p); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	out := photo.New(p.EventID(), p.UploadedBy(), p.Original(), p.Medium(), p.Thumb(),
		photo.WithID(r.nextID), photo.WithTenantID(p.TenantID()), photo.WithCreatedAt(p.CreatedAt()))
	r.rows = append(r.rows, out)
	return out, nil
}

type rsvpKey struct {
	eventID int64
	email   string
}

type RSVPRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[rsvpKey]*rsvp.RSVP
}

func NewRSVPRepository() *RSVPRepository {
	return &RSVPRepository{rows: map[rsvpKey]*rsvp.RSVP{}}
}

func (r *RSVPRepository) Upsert(_ context.Context, scope tenancy.Scope, v *rsvp.RSVP) (bool, error) {
	if err := scope.Stamp(v); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rsvpKey{v.EventID(), v.Email()}
	existing, ok := r.rows[key]
	if ok && existing.TenantID() != v.TenantID() {
		return false, persistence.ErrRSVPConflict
	}
	id := r.nextID + 1
	createdAt := v.CreatedAt()
	if ok {
		id = existing.ID()
		createdAt = existing.CreatedAt()
	} else {
		r.nextID++
	}
	r.rows[key] = rsvp.New(v.EventID(), v.Name(), v.Email(),
		rsvp.WithID(id),
		rsvp.WithWorkspaceID(v.TenantID()),
		rsvp.WithPhone(v.Phone()),
		rsvp.WithChannel(v.Channel()),
		rsvp.WithNotifications(v.Notifications()),
		rsvp.WithStatus(v.Status()),
		rsvp.WithSource(v.Source()),
		rsvp.WithTimestamps(createdAt, v.UpdatedAt()),
	)
	return !ok, nil
}

func (r *RSVPRepository) ListByEvent(_ context.Context, scope tenancy.Scope, eventID int64) ([]*rsvp.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*rsvp.RSVP
	for _, v := range r.rows {
		if v.EventID() == eventID && scope.Allows(v.TenantID()) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *RSVPRepository) CountByEvents(_ context.Context, scope tenancy.Scope, eventIDs []int64) (map[int64]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[int64]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	counts := make(map[int64]int, len(eventIDs))
	for _, v := range r.rows {
		if want[v.EventID()] && scope.Allows(v.TenantID()) {
			counts[v.EventID()]++
		}
	}
	return counts, nil
}
