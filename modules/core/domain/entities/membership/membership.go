package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eventflow/eventflow/pkg/tenancy"
)

var (
	ErrNotFound    = errors.New("membership not found")
	ErrInvalidRole = errors.New("invalid role")
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

var AllRoles = []Role{RoleAdmin, RoleModerator, RoleMember}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RoleModerator, RoleMember:
		return r, nil
	}
	return "", ErrInvalidRole
}

// ParseRoles splits "admin|moderator" or "admin,moderator".
func ParseRoles(raw string) ([]Role, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	out := make([]Role, 0, len(parts))
	for _, p := range parts {
		role, err := ParseRole(p)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, nil
}

// IsManager reports whether the role manages workspace content.
func (r Role) IsManager() bool {
	return r == RoleAdmin || r == RoleModerator
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Membership links a user to a tenant with a role. It is tenant owned.
type Membership struct {
	tenantID  int64
	userID    int64
	role      Role
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Membership)

func WithTenantID(id int64) Option {
	return func(m *Membership) {
		m.tenantID = id
	}
}

func WithStatus(s Status) Option {
	return func(m *Membership) {
		m.status = s
	}
}

func WithCreatedAt(at time.Time) Option {
	return func(m *Membership) {
		m.createdAt = at
	}
}

func WithUpdatedAt(at time.Time) Option {
	return func(m *Membership) {
		m.updatedAt = at
	}
}

func New(userID int64, role Role, opts ...Option) *Membership {
	now := time.Now()
	m := &Membership{
		userID:    userID,
		role:      role,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Membership) TenantID() int64 {
	return m.tenantID
}

func (m *Membership) SetTenantID(id int64) {
	m.tenantID = id
}

func (m *Membership) UserID() int64 {
	return m.userID
}

func (m *Membership) Role() Role {
	return m.role
}

func (m *Membership) Status() Status {
	return m.status
}

func (m *Membership) IsActive() bool {
	return m.status == StatusActive
}

func (m *Membership) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Membership) UpdatedAt() time.Time {
	return m.updatedAt
}

func (m *Membership) SetRole(role Role) {
	m.role = role
	m.updatedAt = time.Now()
}

// HasRole reports whether the membership is active with one of roles.
func (m *Membership) HasRole(roles ...Role) bool {
	if m == nil || !m.IsActive() {
		return false
	}
	for _, r := range roles {
		if m.role == r {
			return true
		}
	}
	return false
}

// Repository methods take a tenancy.Scope; an unresolved scope sees nothing.
type Repository interface {
	Get(ctx context.Context, scope tenancy.Scope, userID int64) (*Membership, error)
	ListActive(ctx context.Context, scope tenancy.Scope, roles ...Role) ([]*Membership, error)
	CountActiveByRole(ctx context.Context, scope tenancy.Scope, role Role) (int, error)
	Create(ctx context.Context, scope tenancy.Scope, m *Membership) error
	Update(ctx context.Context, scope tenancy.Scope, m *Membership) error
	Delete(ctx context.Context, scope tenancy.Scope, userID int64) error
	// ListActiveForUser returns memberships of userID in every tenant the
	// scope allows.
	ListActiveForUser(ctx context.Context, scope tenancy.Scope, userID int64) ([]*Membership, error)
}
