package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTenant int64

func (t stubTenant) ID() int64 { return int64(t) }

type mapSlot map[string]string

func (m mapSlot) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapSlot) Put(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapSlot) Forget(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

type failingSlot struct{ mapSlot }

func (failingSlot) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store unavailable")
}

type countingFinder struct {
	known map[int64]bool
	calls int
}

func (f *countingFinder) FindTenant(_ context.Context, id int64) (Tenant, error) {
	f.calls++
	if !f.known[id] {
		return nil, nil
	}
	return stubTenant(id), nil
}

func TestContextSetGetClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := mapSlot{}
	tc := NewContext(slot, &countingFinder{})

	require.NoError(t, tc.Set(ctx, stubTenant(7)))
	assert.Equal(t, "7", slot["current_tenant_id"])

	got, err := tc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, stubTenant(7), got)

	id, ok := tc.ID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	require.NoError(t, tc.Clear(ctx))
	assert.NotContains(t, slot, "current_tenant_id")

	got, err = tc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, tc.Set(ctx, stubTenant(3)))
	require.NoError(t, tc.Set(ctx, nil))
	_, ok = tc.ID(ctx)
	assert.False(t, ok)
}

func TestContextResolvesFromSessionOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	finder := &countingFinder{known: map[int64]bool{12: true}}
	tc := NewContext(mapSlot{"current_tenant_id": "12"}, finder)

	for range 3 {
		id, ok := tc.ID(ctx)
		require.True(t, ok)
		assert.Equal(t, int64(12), id)
	}
	assert.Equal(t, 1, finder.calls)
}

func TestContextStaleSessionValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("deleted tenant", func(t *testing.T) {
		t.Parallel()
		tc := NewContext(mapSlot{"current_tenant_id": "99"}, &countingFinder{})
		got, err := tc.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("garbage value", func(t *testing.T) {
		t.Parallel()
		finder := &countingFinder{}
		tc := NewContext(mapSlot{"current_tenant_id": "not-a-number"}, finder)
		got, err := tc.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Zero(t, finder.calls)
	})
}

func TestContextWithoutSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tc := NewContext(nil, &countingFinder{})

	got, err := tc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, tc.Set(ctx, stubTenant(4)))
	id, ok := tc.ID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)

	require.NoError(t, tc.Clear(ctx))
	_, ok = tc.ID(ctx)
	assert.False(t, ok)
}

func TestContextSessionErrorIsNoTenant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tc := NewContext(failingSlot{}, &countingFinder{})

	_, err := tc.Get(ctx)
	require.Error(t, err)

	_, ok := tc.ID(ctx)
	assert.False(t, ok)
	assert.False(t, FromContext(WithContext(ctx, tc)).Resolved())
}

func TestNilContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tc := UseContext(ctx)
	assert.Nil(t, tc)

	got, err := tc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, ok := tc.ID(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, tc.Set(ctx, stubTenant(1)), ErrNoContext)
}

func TestContextsDoNotLeakAcrossRequests(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	finder := &countingFinder{known: map[int64]bool{1: true, 2: true}}

	first := NewContext(mapSlot{}, finder)
	require.NoError(t, first.Set(ctx, stubTenant(1)))

	second := NewContext(mapSlot{}, finder)
	_, ok := second.ID(ctx)
	assert.False(t, ok)

	require.NoError(t, second.Set(ctx, stubTenant(2)))
	id, _ := first.ID(ctx)
	assert.Equal(t, int64(1), id)
}
