package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("put get forget", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore(time.Hour)
		s := New(store, "sid-1")

		_, ok, err := s.Get(ctx, "user_id")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Put(ctx, "user_id", "42"))
		v, ok, err := s.Get(ctx, "user_id")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "42", v)

		require.NoError(t, s.Forget(ctx, "user_id"))
		_, ok, err = s.Get(ctx, "user_id")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore(time.Hour)
		a := New(store, "a")
		b := New(store, "b")

		require.NoError(t, a.Put(ctx, "current_tenant_id", "1"))
		_, ok, err := b.Get(ctx, "current_tenant_id")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expiry", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore(time.Minute)
		now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		require.NoError(t, store.Put(ctx, "sid", "k", "v"))
		now = now.Add(2 * time.Minute)

		_, ok, err := store.Get(ctx, "sid", "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalidate", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore(time.Hour)
		s := New(store, "sid")
		require.NoError(t, s.Put(ctx, "k", "v"))
		require.NoError(t, s.Invalidate(ctx))

		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUseSession(t *testing.T) {
	t.Parallel()

	_, err := UseSession(context.Background())
	require.ErrorIs(t, err, ErrNoSession)

	s := New(NewMemoryStore(time.Hour), "sid")
	got, err := UseSession(WithSession(context.Background(), s))
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestNewID(t *testing.T) {
	t.Parallel()

	a, err := NewID()
	require.NoError(t, err)
	b, err := NewID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
