// Package viewmodels holds the JSON shapes returned by the core controllers.
package viewmodels

import (
	"path"
	"time"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
)

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

func NewUser(u *user.User) User {
	return User{
		ID:       u.HashID(),
		Name:     u.Name(),
		Email:    u.Email().String(),
		Verified: u.IsVerified(),
	}
}

type Member struct {
	User
	Role   string `json:"role"`
	Status string `json:"status"`
}

func NewMember(u *user.User, m *membership.Membership) Member {
	return Member{User: NewUser(u), Role: string(m.Role()), Status: string(m.Status())}
}

type Images struct {
	Original string `json:"original"`
	Medium   string `json:"medium"`
	Thumb    string `json:"thumb"`
}

// NewImages prefixes stored paths with the public uploads URL. Empty paths
// stay empty.
func NewImages(prefix, original, medium, thumb string) *Images {
	if original == "" {
		return nil
	}
	join := func(p string) string {
		if p == "" {
			return ""
		}
		return path.Join(prefix, p)
	}
	return &Images{Original: join(original), Medium: join(medium), Thumb: join(thumb)}
}

type Tenant struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	Logo        *Images    `json:"logo,omitempty"`
}

func NewTenant(t *tenant.Tenant, uploadsURL string) Tenant {
	logo := t.Logo()
	return Tenant{
		ID:          t.ID(),
		Name:        t.Name(),
		Slug:        t.Slug(),
		Plan:        string(t.Plan()),
		Status:      string(t.Status()),
		TrialEndsAt: t.TrialEndsAt(),
		Logo:        NewImages(uploadsURL, logo.Original, logo.Medium, logo.Thumb),
	}
}

type Workspace struct {
	Tenant
	Role string `json:"role"`
	URL  string `json:"url"`
}

func NewWorkspace(t *tenant.Tenant, role membership.Role, uploadsURL string) Workspace {
	return Workspace{Tenant: NewTenant(t, uploadsURL), Role: string(role), URL: "/t/" + t.Slug() + "/admin"}
}
