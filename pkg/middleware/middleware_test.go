package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/session"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

type fakeTenants map[string]*tenant.Tenant

func (f fakeTenants) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if t, ok := f[slug]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

func (f fakeTenants) FindTenant(_ context.Context, id int64) (tenancy.Tenant, error) {
	for _, t := range f {
		if t.ID() == id {
			return t, nil
		}
	}
	return nil, nil
}

// fakeMembers holds memberships keyed by tenant then user.
type fakeMembers map[int64]map[int64]*membership.Membership

func (f fakeMembers) Membership(ctx context.Context, userID int64) (*membership.Membership, error) {
	id, ok := tenancy.UseContext(ctx).ID(ctx)
	if !ok {
		return nil, membership.ErrNotFound
	}
	m, ok := f[id][userID]
	if !ok || !m.IsActive() {
		return nil, membership.ErrNotFound
	}
	return m, nil
}

type fakeLoader struct{ u *user.User }

func (f fakeLoader) UserFromSession(context.Context) (*user.User, error) {
	return f.u, nil
}

func newUser(t *testing.T, id int64) *user.User {
	t.Helper()
	email, err := user.NewEmail("user@example.com")
	require.NoError(t, err)
	return user.New("Ada", email, user.WithID(id))
}

type routerOptions struct {
	user    *user.User
	members fakeMembers
	roles   []membership.Role
}

func newRouter(t *testing.T, opts routerOptions) *mux.Router {
	t.Helper()
	tenants := fakeTenants{
		"acme":   tenant.New("Acme", tenant.WithID(1), tenant.WithSlug("acme")),
		"frozen": tenant.New("Frozen", tenant.WithID(2), tenant.WithSlug("frozen"), tenant.WithStatus(tenant.StatusInactive)),
	}
	logger, _ := test.NewNullLogger()

	r := mux.NewRouter()
	r.Use(
		WithLogger(logger, LoggerOptions{}),
		WithSession(session.NewMemoryStore(time.Hour), tenants, SessionOptions{TTL: time.Hour}),
		ProvideUser(fakeLoader{u: opts.user}),
	)
	sub := r.PathPrefix("/t/{tenantSlug}").Subrouter()
	sub.Use(SetCurrentTenant(tenants, opts.members))
	if opts.roles != nil {
		sub.Use(RequireTenantRole(opts.roles...))
	}
	sub.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, ok := tenancy.FromContext(r.Context()).TenantID()
		assert.True(t, ok)
		assert.Equal(t, int64(1), id)
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSetCurrentTenant(t *testing.T) {
	t.Parallel()

	member := fakeMembers{1: {7: membership.New(7, membership.RoleMember, membership.WithTenantID(1))}}
	cases := []struct {
		name   string
		path   string
		opts   routerOptions
		status int
	}{
		{"unknown slug", "/t/nope/whoami", routerOptions{}, http.StatusNotFound},
		{"inactive tenant", "/t/frozen/whoami", routerOptions{}, http.StatusForbidden},
		{"guest", "/t/acme/whoami", routerOptions{}, http.StatusNoContent},
		{"member", "/t/acme/whoami", routerOptions{user: newUser(t, 7), members: member}, http.StatusNoContent},
		{"non member", "/t/acme/whoami", routerOptions{user: newUser(t, 8), members: member}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := serve(newRouter(t, tc.opts), tc.path)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestRequireTenantRole(t *testing.T) {
	t.Parallel()

	members := fakeMembers{1: {
		7: membership.New(7, membership.RoleMember, membership.WithTenantID(1)),
		9: membership.New(9, membership.RoleModerator, membership.WithTenantID(1)),
	}}
	staff := []membership.Role{membership.RoleAdmin, membership.RoleModerator}

	w := serve(newRouter(t, routerOptions{members: members, roles: staff}), "/t/acme/whoami")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(newRouter(t, routerOptions{user: newUser(t, 7), members: members, roles: staff}), "/t/acme/whoami")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(newRouter(t, routerOptions{user: newUser(t, 9), members: members, roles: staff}), "/t/acme/whoami")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWithSessionReusesCookie(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	var seen []string
	h := WithSession(store, fakeTenants{}, SessionOptions{CookieName: "sid", TTL: time.Hour})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := session.UseSession(r.Context())
			require.NoError(t, err)
			seen = append(seen, sess.ID())
			assert.NotNil(t, tenancy.UseContext(r.Context()))
		}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	second := httptest.NewRecorder()
	h.ServeHTTP(second, req)
	assert.Empty(t, second.Result().Cookies())
	assert.Equal(t, seen[0], seen[1])
}

func TestWithSessionRotatesCookie(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	var rotated string
	h := WithSession(store, fakeTenants{}, SessionOptions{CookieName: "sid", TTL: time.Hour})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := session.UseSession(r.Context())
			require.NoError(t, err)
			require.NoError(t, sess.Regenerate(r.Context()))
			rotated = sess.ID()
		}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1, "only the rotated cookie is sent")
	assert.Equal(t, rotated, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, rotated, cookies[0].Value)
	assert.NotEqual(t, req.Cookies()[0].Value, rotated)
}

func TestWithLoggerRecoversPanic(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	h := WithLogger(logger, LoggerOptions{RequestIDHeader: "X-Request-Id"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			composables.UseLogger(r.Context()).Info("inside")
			panic("boom")
		}))

	req := httptest.NewRequest(http.MethodGet, "/explode", nil)
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"code":"INTERNAL_SERVER_ERROR","message":"internal server error","meta":{"request_id":"req-1"}}`, w.Body.String())

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "req-1", last.Data["request-id"])
}
