package services

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
	"github.com/eventflow/eventflow/modules/events/domain/entities/photo"
	"github.com/eventflow/eventflow/modules/events/permissions"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

const (
	mainPhotoBase  = "main"
	storyPhotoBase = "story"
)

type PhotoService struct {
	events event.Repository
	photos photo.Repository
	images *imaging.Store
	policy *permissions.EventPolicy
	inTx   composables.TxFunc
}

func NewPhotoService(
	events event.Repository,
	photos photo.Repository,
	images *imaging.Store,
	policy *permissions.EventPolicy,
	inTx composables.TxFunc,
) *PhotoService {
	return &PhotoService{events: events, photos: photos, images: images, policy: policy, inTx: inTx}
}

// UpdateMainPhoto replaces e's main photo and removes the previous files.
func (s *PhotoService) UpdateMainPhoto(ctx context.Context, actor *membership.Membership, e *event.Event, r io.Reader) (*event.Event, error) {
	if !s.policy.Update(ctx, actor, e) {
		return nil, ErrForbidden
	}
	return s.replaceMainPhoto(ctx, e, r)
}

func (s *PhotoService) replaceMainPhoto(ctx context.Context, e *event.Event, r io.Reader) (*event.Event, error) {
	paths, err := s.images.Save(ctx, r, fmt.Sprintf("events/%d/main", e.ID()), mainPhotoBase)
	if err != nil {
		return nil, err
	}
	old := e.MainPhoto()
	next := e.Copy()
	next.SetMainPhoto(event.Photo{Original: paths.Original, Medium: paths.Medium, Thumb: paths.Thumb})

	var updated *event.Event
	err = s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.events.Update(txCtx, tenancy.FromContext(txCtx), next)
		return err
	})
	if err != nil {
		s.images.Delete(paths)
		return nil, err
	}
	s.images.Delete(imaging.Paths{Original: old.Original, Medium: old.Medium, Thumb: old.Thumb})
	return updated, nil
}

// AddStoryPhotos stores post-event pictures. Files written before a failure
// are removed again.
func (s *PhotoService) AddStoryPhotos(ctx context.Context, actor *membership.Membership, e *event.Event, files []io.Reader) ([]*photo.Photo, error) {
	if !s.policy.AddPhotos(ctx, actor, e) {
		return nil, ErrForbidden
	}
	dir := fmt.Sprintf("events/%d/story", e.ID())
	saved := make([]imaging.Paths, 0, len(files))
	cleanup := func() {
		for _, p := range saved {
			s.images.Delete(p)
		}
	}
	for _, f := range files {
		paths, err := s.images.Save(ctx, f, dir, storyPhotoBase)
		if err != nil {
			cleanup()
			return nil, err
		}
		saved = append(saved, paths)
	}

	var out []*photo.Photo
	err := s.inTx(ctx, func(txCtx context.Context) error {
		out = out[:0]
		scope := tenancy.FromContext(txCtx)
		for _, p := range saved {
			created, err := s.photos.Create(txCtx, scope, photo.New(e.ID(), actor.UserID(), p.Original, p.Medium, p.Thumb))
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	return out, nil
}

// ListForEvent returns the newest story photos first.
func (s *PhotoService) ListForEvent(ctx context.Context, e *event.Event, limit int) ([]*photo.Photo, error) {
	return s.photos.ListByEvent(ctx, tenancy.FromContext(ctx), e.ID(), limit)
}

// StoredFiles lists the image files of e's main photo and story photos.
// Photo rows cascade with the event, so callers read them before deleting it.
func (s *PhotoService) StoredFiles(ctx context.Context, e *event.Event) ([]imaging.Paths, error) {
	var files []imaging.Paths
	if main := e.MainPhoto(); !main.IsZero() {
		files = append(files, imaging.Paths{Original: main.Original, Medium: main.Medium, Thumb: main.Thumb})
	}
	items, err := s.photos.ListByEvent(ctx, tenancy.FromContext(ctx), e.ID(), 0)
	if err != nil {
		return nil, fmt.Errorf("list story photos: %w", err)
	}
	for _, p := range items {
		files = append(files, imaging.Paths{Original: p.Original(), Medium: p.Medium(), Thumb: p.Thumb()})
	}
	return files, nil
}

// Purge removes files. Missing files are skipped.
func (s *PhotoService) Purge(ctx context.Context, e *event.Event, files []imaging.Paths) {
	for _, p := range files {
		s.images.Delete(p)
	}
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"event_id": e.ID(),
		"files":    len(files),
	}).Debug("event images removed")
}
