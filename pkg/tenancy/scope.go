package tenancy

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"
)

var ErrNoTenantContext = errors.New("tenancy: tenant context is not set for tenant-aware entity creation")

// Owned is implemented by every tenant-owned entity.
type Owned interface {
	TenantID() int64
	SetTenantID(id int64)
}

type mode uint8

const (
	modeUnresolved mode = iota
	modeTenant
	modeBypass
)

func (m mode) String() string {
	switch m {
	case modeTenant:
		return "tenant"
	case modeBypass:
		return "bypass"
	default:
		return "unresolved"
	}
}

// Scope restricts queries against tenant-owned tables. The zero value is
// unresolved and matches no rows.
type Scope struct {
	mode     mode
	tenantID int64
	reason   string
}

// ForTenant scopes to one tenant. Non-positive ids give an unresolved scope.
func ForTenant(id int64) Scope {
	if id <= 0 {
		return Scope{}
	}
	return Scope{mode: modeTenant, tenantID: id}
}

// FromContext scopes to the request's current tenant.
func FromContext(ctx context.Context) Scope {
	id, ok := UseContext(ctx).ID(ctx)
	if !ok {
		return Scope{}
	}
	return ForTenant(id)
}

// Bypass returns a scope that spans all tenants. Every call is logged and
// counted; reason should say which administrative operation needs it.
func Bypass(ctx context.Context, reason string) Scope {
	if reason == "" {
		reason = "unspecified"
	}
	bypassTotal.WithLabelValues(reason).Inc()
	logrus.WithContext(ctx).WithField("reason", reason).Info("tenancy: cross-tenant scope granted")
	return Scope{mode: modeBypass, reason: reason}
}

func (s Scope) TenantID() (int64, bool) {
	if s.mode != modeTenant {
		return 0, false
	}
	return s.tenantID, true
}

func (s Scope) Resolved() bool {
	return s.mode == modeTenant
}

func (s Scope) IsBypass() bool {
	return s.mode == modeBypass
}

func (s Scope) String() string {
	return s.mode.String()
}

// Allows reports whether a row owned by tenantID is visible in this scope.
func (s Scope) Allows(tenantID int64) bool {
	switch s.mode {
	case modeTenant:
		return tenantID == s.tenantID
	case modeBypass:
		return true
	default:
		return false
	}
}

// Predicate returns the where clause for table, or nil for a bypass scope.
func (s Scope) Predicate(table string) sq.Sqlizer {
	scopedQueries.WithLabelValues(s.mode.String()).Inc()
	switch s.mode {
	case modeTenant:
		return sq.Eq{column(table): s.tenantID}
	case modeBypass:
		return nil
	default:
		return sq.Expr("1 = 0")
	}
}

// column maps a table to its owner column. A value containing a dot is
// taken as the qualified owner column itself, for tables that name it
// differently.
func column(table string) string {
	switch {
	case table == "":
		return "tenant_id"
	case strings.Contains(table, "."):
		return table
	default:
		return table + ".tenant_id"
	}
}

func (s Scope) Select(b sq.SelectBuilder, table string) sq.SelectBuilder {
	if p := s.Predicate(table); p != nil {
		return b.Where(p)
	}
	return b
}

func (s Scope) Update(b sq.UpdateBuilder, table string) sq.UpdateBuilder {
	if p := s.Predicate(table); p != nil {
		return b.Where(p)
	}
	return b
}

func (s Scope) Delete(b sq.DeleteBuilder, table string) sq.DeleteBuilder {
	if p := s.Predicate(table); p != nil {
		return b.Where(p)
	}
	return b
}

// Stamp runs before an insert. A tenant scope overwrites the entity's tenant
// id; otherwise the entity must already carry one.
func (s Scope) Stamp(e Owned) error {
	if s.mode == modeTenant {
		e.SetTenantID(s.tenantID)
		return nil
	}
	if e.TenantID() > 0 {
		return nil
	}
	stampFailures.Inc()
	return ErrNoTenantContext
}
