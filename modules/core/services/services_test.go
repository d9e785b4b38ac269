package services

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/permissions"
	"github.com/eventflow/eventflow/modules/core/testhelpers"
	"github.com/eventflow/eventflow/pkg/authz"
	"github.com/eventflow/eventflow/pkg/eventbus"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/opaqueid"
	"github.com/eventflow/eventflow/pkg/session"
	"github.com/eventflow/eventflow/pkg/tenancy"
	"github.com/eventflow/eventflow/pkg/throttle"
)

type fixture struct {
	tenants     *testhelpers.TenantRepository
	users       *testhelpers.UserRepository
	memberships *testhelpers.MembershipRepository
	fs          afero.Fs
	bus         eventbus.EventBus

	tenantService    *TenantService
	authService      *AuthService
	userService      *UserService
	workspaceService *WorkspaceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		tenants:     testhelpers.NewTenantRepository(),
		users:       testhelpers.NewUserRepository(),
		memberships: testhelpers.NewMembershipRepository(),
		fs:          afero.NewMemMapFs(),
		bus:         eventbus.NewEventPublisher(nil),
	}
	ids := opaqueid.MustNew(opaqueid.Options{})
	az := authz.MustNew(authz.ModeEnforce, nil)

	f.tenantService = NewTenantService(f.tenants, imaging.NewStore(f.fs, 0), testhelpers.PassthroughTx)
	f.authService = NewAuthService(f.users, f.memberships, f.tenantService, ids, testhelpers.PassthroughTx)
	f.userService = NewUserService(
		f.users, f.memberships,
		permissions.NewUserPolicy(az),
		ids,
		throttle.NewMemory(1, time.Minute),
		f.bus,
		testhelpers.PassthroughTx,
	)
	f.workspaceService = NewWorkspaceService(f.tenants, f.memberships)
	return f
}

// requestCtx mimics what middleware builds for one request.
func requestCtx(t *testing.T, current *tenant.Tenant) context.Context {
	t.Helper()
	ctx := context.Background()
	sess := session.New(session.NewMemoryStore(time.Hour), "test-session")
	ctx = session.WithSession(ctx, sess)
	tc := tenancy.NewContext(sess, nil)
	ctx = tenancy.WithContext(ctx, tc)
	if current != nil {
		require.NoError(t, tc.Set(ctx, current))
	}
	return ctx
}

func (f *fixture) addTenant(t *testing.T, name string) *tenant.Tenant {
	t.Helper()
	created, err := f.tenantService.Create(context.Background(), name)
	require.NoError(t, err)
	return created
}

// addMember registers a user with role in tn and returns the membership.
func (f *fixture) addMember(t *testing.T, tn *tenant.Tenant, name, email string, role membership.Role) Member {
	t.Helper()
	ctx := requestCtx(t, tn)
	admin := membership.New(0, membership.RoleAdmin, membership.WithTenantID(tn.ID()))
	m, err := f.userService.Invite(ctx, admin, InviteInput{Name: name, Email: email, Role: string(role)})
	require.NoError(t, err)
	return m
}

func bypassForTest() tenancy.Scope {
	return tenancy.Bypass(context.Background(), "test")
}
