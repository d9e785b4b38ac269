// Package tenancy holds the per-request tenant context and the scope value
// every tenant-owned repository call must be given.
package tenancy

import (
	"context"
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/pkg/constants"
)

var ErrNoContext = errors.New("tenancy: no tenant context in request")

// Tenant is the minimal view of a tenant the context needs.
type Tenant interface {
	ID() int64
}

// Finder resolves a tenant id stored in the session. It returns (nil, nil)
// when the id no longer exists.
type Finder interface {
	FindTenant(ctx context.Context, id int64) (Tenant, error)
}

type FinderFunc func(ctx context.Context, id int64) (Tenant, error)

func (f FinderFunc) FindTenant(ctx context.Context, id int64) (Tenant, error) {
	return f(ctx, id)
}

// Slot is the durable per-session storage backing the context.
type Slot interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Forget(ctx context.Context, key string) error
}

// Context is the current tenant for one request. It must not be shared
// between requests; middleware builds a fresh one per request.
type Context struct {
	slot   Slot
	finder Finder
	tenant Tenant
	logger logrus.FieldLogger
}

// NewContext binds a context to a session slot. A nil slot means the caller
// has no session (CLI, API clients): Get then only sees explicit Set calls.
func NewContext(slot Slot, finder Finder) *Context {
	return &Context{
		slot:   slot,
		finder: finder,
		logger: logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used to report session lookup failures.
func (c *Context) WithLogger(logger logrus.FieldLogger) *Context {
	c.logger = logger
	return c
}

// Set makes t the current tenant and remembers its id in the session.
// A nil tenant clears both.
func (c *Context) Set(ctx context.Context, t Tenant) error {
	if c == nil {
		return ErrNoContext
	}
	if t == nil {
		return c.Clear(ctx)
	}
	c.tenant = t
	if c.slot == nil {
		return nil
	}
	return c.slot.Put(ctx, constants.SessionTenantIDKey, strconv.FormatInt(t.ID(), 10))
}

// Clear forgets the current tenant.
func (c *Context) Clear(ctx context.Context) error {
	if c == nil {
		return ErrNoContext
	}
	c.tenant = nil
	if c.slot == nil {
		return nil
	}
	return c.slot.Forget(ctx, constants.SessionTenantIDKey)
}

// Get returns the current tenant or nil. The session is consulted only when
// nothing is cached; a stored id that no longer resolves yields nil.
func (c *Context) Get(ctx context.Context) (Tenant, error) {
	if c == nil {
		return nil, nil
	}
	if c.tenant != nil {
		return c.tenant, nil
	}
	if c.slot == nil || c.finder == nil {
		return nil, nil
	}

	raw, ok, err := c.slot.Get(ctx, constants.SessionTenantIDKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, nil
	}

	t, err := c.finder.FindTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	c.tenant = t
	return t, nil
}

// ID returns the current tenant id. Lookup errors are logged and reported as
// "no tenant".
func (c *Context) ID(ctx context.Context) (int64, bool) {
	t, err := c.Get(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("tenancy: failed to resolve tenant from session")
		return 0, false
	}
	if t == nil {
		return 0, false
	}
	return t.ID(), true
}

func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, constants.TenantCtxKey, tc)
}

// UseContext returns the request's tenant context. The result may be nil;
// a nil *Context behaves as "no tenant".
func UseContext(ctx context.Context) *Context {
	tc, _ := ctx.Value(constants.TenantCtxKey).(*Context)
	return tc
}
