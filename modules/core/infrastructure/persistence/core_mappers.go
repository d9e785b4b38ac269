package persistence

import (
	"database/sql"
	"time"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence/models"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toDomainTenant(m *models.Tenant) *tenant.Tenant {
	return tenant.New(
		m.Name,
		tenant.WithID(m.ID),
		tenant.WithSlug(m.Slug),
		tenant.WithPlan(tenant.NormalizePlan(m.Plan)),
		tenant.WithStatus(tenant.Status(m.Status)),
		tenant.WithTrialEndsAt(timePtr(m.TrialEndsAt)),
		tenant.WithLogo(tenant.Logo{
			Original: m.LogoPath.String,
			Medium:   m.LogoMediumPath.String,
			Thumb:    m.LogoThumbPath.String,
		}),
		tenant.WithCreatedAt(m.CreatedAt),
		tenant.WithUpdatedAt(m.UpdatedAt),
	)
}

func toDBTenant(t *tenant.Tenant) *models.Tenant {
	logo := t.Logo()
	return &models.Tenant{
		ID:             t.ID(),
		Name:           t.Name(),
		Slug:           t.Slug(),
		Plan:           string(t.Plan()),
		Status:         string(t.Status()),
		TrialEndsAt:    nullTime(t.TrialEndsAt()),
		LogoPath:       nullString(logo.Original),
		LogoMediumPath: nullString(logo.Medium),
		LogoThumbPath:  nullString(logo.Thumb),
		CreatedAt:      t.CreatedAt(),
		UpdatedAt:      t.UpdatedAt(),
	}
}

func toDomainUser(m *models.User) *user.User {
	return user.New(
		m.Name,
		user.Email(m.Email),
		user.WithID(m.ID),
		user.WithHashID(m.HashID),
		user.WithPasswordHash(m.Password.String),
		user.WithEmailVerifiedAt(timePtr(m.EmailVerifiedAt)),
		user.WithCreatedAt(m.CreatedAt),
		user.WithUpdatedAt(m.UpdatedAt),
	)
}

func toDBUser(u *user.User) *models.User {
	return &models.User{
		ID:              u.ID(),
		HashID:          u.HashID(),
		Name:            u.Name(),
		Email:           u.Email().String(),
		Password:        nullString(u.PasswordHash()),
		EmailVerifiedAt: nullTime(u.EmailVerifiedAt()),
		CreatedAt:       u.CreatedAt(),
		UpdatedAt:       u.UpdatedAt(),
	}
}

func toDomainMembership(m *models.Membership) *membership.Membership {
	return membership.New(
		m.UserID,
		membership.Role(m.Role),
		membership.WithTenantID(m.TenantID),
		membership.WithStatus(membership.Status(m.Status)),
		membership.WithCreatedAt(m.CreatedAt),
		membership.WithUpdatedAt(m.UpdatedAt),
	)
}
