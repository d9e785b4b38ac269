// Package session implements a small server-side session: a cookie carries an
// opaque id, values live in a Store keyed by that id.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/eventflow/eventflow/pkg/constants"
)

var ErrNoSession = errors.New("no session in context")

// Store persists per-session key/value pairs.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, bool, error)
	Put(ctx context.Context, sid, key, value string) error
	Forget(ctx context.Context, sid, key string) error
	Destroy(ctx context.Context, sid string) error
}

// Session is a Store bound to one session id.
type Session struct {
	id       string
	store    Store
	onRotate func(id string)
}

func New(store Store, id string) *Session {
	return &Session{id: id, store: store}
}

// NewID returns a random url-safe session id.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Session) ID() string {
	return s.id
}

// OnRotate registers fn to be told the new id after Regenerate.
func (s *Session) OnRotate(fn func(id string)) *Session {
	s.onRotate = fn
	return s
}

func (s *Session) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.id, key)
}

func (s *Session) Put(ctx context.Context, key, value string) error {
	return s.store.Put(ctx, s.id, key, value)
}

func (s *Session) Forget(ctx context.Context, key string) error {
	return s.store.Forget(ctx, s.id, key)
}

// Invalidate drops every value stored for the session.
func (s *Session) Invalidate(ctx context.Context) error {
	return s.store.Destroy(ctx, s.id)
}

// Regenerate drops every stored value and moves the session to a fresh id.
func (s *Session) Regenerate(ctx context.Context) error {
	if err := s.store.Destroy(ctx, s.id); err != nil {
		return err
	}
	id, err := NewID()
	if err != nil {
		return err
	}
	s.id = id
	if s.onRotate != nil {
		s.onRotate(id)
	}
	return nil
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, constants.SessionKey, s)
}

func UseSession(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(constants.SessionKey).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
