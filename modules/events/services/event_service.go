package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/domain/entities/rsvp"
	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence"
	"github.com/eventflow/eventflow/modules/events/permissions"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/opaqueid"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/slug"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

const (
	eventSlugFallback = "event"
	// DashboardLimit caps the events shown on the admin calendar.
	DashboardLimit = 120
)

type EventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      *time.Time
	Status      string
	IsPublic    bool
	Capacity    *int
}

func (in EventInput) details() (event.Details, error) {
	status, err := event.ParseStatus(in.Status)
	if err != nil {
		return event.Details{}, &ValidationError{Fields: map[string]string{"status": err.Error()}}
	}
	d := event.Details{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Status:      status,
		IsPublic:    in.IsPublic,
		Capacity:    in.Capacity,
	}
	verr := &ValidationError{}
	if d.Title == "" {
		verr.add("title", "is required")
	}
	if d.StartsAt.IsZero() {
		verr.add("starts_at", "is required")
	}
	if err := d.Validate(); err != nil {
		verr.add("ends_at", err.Error())
	}
	if d.Capacity != nil && *d.Capacity < 1 {
		verr.add("capacity", "must be at least 1")
	}
	return d, verr.orNil()
}

type Page struct {
	Number int
	Size   int
}

func (p Page) bounds(defaultSize int) (limit, offset int) {
	size := p.Size
	if size <= 0 {
		size = defaultSize
	}
	n := max(p.Number, 1)
	return size, (n - 1) * size
}

// DashboardEntry is an event on the admin calendar with its RSVP count.
type DashboardEntry struct {
	Event     *event.Event
	RSVPCount int
}

// EventService manages the current tenant's events. Reads and writes are
// scoped through tenancy.FromContext.
type EventService struct {
	repo   event.Repository
	rsvps  rsvp.Repository
	plans  *PlanService
	photos *PhotoService
	policy *permissions.EventPolicy
	ids    *opaqueid.Generator
	inTx   composables.TxFunc
	now    func() time.Time
}

func NewEventService(
	repo event.Repository,
	rsvps rsvp.Repository,
	plans *PlanService,
	photos *PhotoService,
	policy *permissions.EventPolicy,
	ids *opaqueid.Generator,
	inTx composables.TxFunc,
) *EventService {
	return &EventService{
		repo:   repo,
		rsvps:  rsvps,
		plans:  plans,
		photos: photos,
		policy: policy,
		ids:    ids,
		inTx:   inTx,
		now:    time.Now,
	}
}

func (s *EventService) slugExists(scope tenancy.Scope, excludeID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, scope, candidate, excludeID)
	}
}

// Create adds an event to t, which must be the request's tenant. The plan's
// monthly quota is checked first. When mainPhoto is set and fails to
// store, the created event is returned together with the error.
func (s *EventService) Create(ctx context.Context, actor *membership.Membership, t *tenant.Tenant, in EventInput, mainPhoto io.Reader) (*event.Event, error) {
	if !s.policy.Create(ctx, actor) {
		return nil, ErrForbidden
	}
	d, err := in.details()
	if err != nil {
		return nil, err
	}
	ok, err := s.plans.CanCreateEvent(ctx, t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPlanLimitReached
	}

	var created *event.Event
	err = repo.RetryOnUnique(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			scope := tenancy.FromContext(txCtx)
			candidate, err := slug.Unique(txCtx, d.Title, eventSlugFallback, s.slugExists(scope, 0))
			if err != nil {
				return err
			}
			now := s.now()
			e := event.New(d.Title, d.StartsAt,
				event.WithCreatedBy(actor.UserID()),
				event.WithSlug(candidate),
				event.WithCreatedAt(now),
				event.WithUpdatedAt(now),
			)
			e.Apply(d)
			if err := s.ids.Assign(e); err != nil {
				return err
			}
			created, err = s.repo.Create(txCtx, scope, e)
			return err
		})
	}, persistence.EventSlugConstraint, persistence.EventHashIDConstraint)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if mainPhoto == nil {
		return created, nil
	}
	withPhoto, err := s.photos.replaceMainPhoto(ctx, created, mainPhoto)
	if err != nil {
		return created, fmt.Errorf("store main photo: %w", err)
	}
	return withPhoto, nil
}

// Update applies in to e. The slug is only regenerated when the title
// changed, and e's own row never counts as a collision.
func (s *EventService) Update(ctx context.Context, actor *membership.Membership, e *event.Event, in EventInput) (*event.Event, error) {
	if !s.policy.Update(ctx, actor, e) {
		return nil, ErrForbidden
	}
	d, err := in.details()
	if err != nil {
		return nil, err
	}
	titleChanged := e.Title() != d.Title

	var updated *event.Event
	err = repo.RetryOnUnique(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			scope := tenancy.FromContext(txCtx)
			next := e.Copy()
			next.Apply(d)
			if titleChanged {
				candidate, err := slug.Unique(txCtx, d.Title, eventSlugFallback, s.slugExists(scope, e.ID()))
				if err != nil {
					return err
				}
				next.SetSlug(candidate)
			}
			var err error
			updated, err = s.repo.Update(txCtx, scope, next)
			return err
		})
	}, persistence.EventSlugConstraint)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes e, then its stored images once the row is gone.
func (s *EventService) Delete(ctx context.Context, actor *membership.Membership, e *event.Event) error {
	if !s.policy.Delete(ctx, actor, e) {
		return ErrForbidden
	}
	var files []imaging.Paths
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		files, err = s.photos.StoredFiles(txCtx, e)
		if err != nil {
			return err
		}
		return s.repo.Delete(txCtx, tenancy.FromContext(txCtx), e.ID())
	})
	if err != nil {
		return err
	}
	s.photos.Purge(ctx, e, files)
	return nil
}

// GetByHashID finds an event of the current tenant.
func (s *EventService) GetByHashID(ctx context.Context, hashID string) (*event.Event, error) {
	e, err := s.repo.GetByHashID(ctx, tenancy.FromContext(ctx), hashID)
	if errors.Is(err, event.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// GetVisible returns the event only when userID may view it; guests pass 0.
func (s *EventService) GetVisible(ctx context.Context, userID int64, hashID string) (*event.Event, error) {
	e, err := s.GetByHashID(ctx, hashID)
	if err != nil {
		return nil, err
	}
	if !s.policy.View(ctx, userID, e) {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// ListByCreator pages through actor's own events, latest start first.
func (s *EventService) ListByCreator(ctx context.Context, actor *membership.Membership, page Page) ([]*event.Event, int64, error) {
	if !s.policy.ViewAny(ctx, actor) {
		return nil, 0, ErrForbidden
	}
	limit, offset := page.bounds(10)
	return s.list(ctx, &event.FindParams{
		CreatedBy: actor.UserID(),
		SortBy:    event.SortStartsAtDesc,
		Limit:     limit,
		Offset:    offset,
	})
}

// ListPublic pages through listed events in start order.
func (s *EventService) ListPublic(ctx context.Context, page Page) ([]*event.Event, int64, error) {
	limit, offset := page.bounds(12)
	return s.list(ctx, &event.FindParams{
		ListedOnly: true,
		SortBy:     event.SortStartsAtAsc,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *EventService) list(ctx context.Context, params *event.FindParams) ([]*event.Event, int64, error) {
	scope := tenancy.FromContext(ctx)
	items, err := s.repo.GetPaginated(ctx, scope, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, scope, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// DashboardWindow spans the previous month through the end of the month
// two months after now.
func DashboardWindow(now time.Time) (from, to time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start.AddDate(0, -1, 0), start.AddDate(0, 3, 0).Add(-time.Nanosecond)
}

// Dashboard lists up to DashboardLimit events of the dashboard window with
// their RSVP counts.
func (s *EventService) Dashboard(ctx context.Context, actor *membership.Membership) ([]DashboardEntry, error) {
	if !s.policy.ViewAny(ctx, actor) {
		return nil, ErrForbidden
	}
	from, to := DashboardWindow(s.now())
	scope := tenancy.FromContext(ctx)
	items, err := s.repo.GetPaginated(ctx, scope, &event.FindParams{
		StartsFrom: &from,
		StartsTo:   &to,
		SortBy:     event.SortStartsAtAsc,
		Limit:      DashboardLimit,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(items))
	for i, e := range items {
		ids[i] = e.ID()
	}
	counts, err := s.rsvps.CountByEvents(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	out := make([]DashboardEntry, len(items))
	for i, e := range items {
		out[i] = DashboardEntry{Event: e, RSVPCount: counts[e.ID()]}
	}
	return out, nil
}
