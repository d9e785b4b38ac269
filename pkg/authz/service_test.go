package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	svc, err := NewService(ModeEnforce, nil)
	require.NoError(t, err)

	cases := []struct {
		role, object, action string
		want                 bool
	}{
		{"admin", ObjectWorkspace, ActionUpdate, true},
		{"admin", ObjectEvents, ActionDelete, true},
		{"moderator", ObjectEvents, ActionUpdate, true},
		{"moderator", ObjectEvents, ActionCreate, false},
		{"moderator", ObjectEvents, ActionDelete, false},
		{"moderator", ObjectUsers, ActionCreate, true},
		{"moderator", ObjectWorkspace, ActionUpdate, false},
		{"member", ObjectEvents, ActionViewAny, false},
		{"member", ObjectUsers, ActionViewAny, false},
		{"", ObjectEvents, ActionView, false},
	}
	for _, tc := range cases {
		got, err := svc.Check(Request{Role: tc.role, Object: tc.object, Action: tc.action})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.action, tc.object)
	}
}

func TestAuthorizeModes(t *testing.T) {
	t.Parallel()

	req := Request{Role: "member", Object: ObjectEvents, Action: ActionDelete}

	enforce := MustNew(ModeEnforce, nil)
	err := enforce.Authorize(context.Background(), req)
	require.ErrorIs(t, err, ErrForbidden)
	var fe *ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, req, fe.Request)

	shadow := MustNew(ModeShadow, nil)
	require.NoError(t, shadow.Authorize(context.Background(), req))

	disabled := MustNew(ModeDisabled, nil)
	require.NoError(t, disabled.Authorize(context.Background(), req))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ModeShadow, ParseMode("shadow"))
	assert.Equal(t, ModeEnforce, ParseMode("bogus"))
}
