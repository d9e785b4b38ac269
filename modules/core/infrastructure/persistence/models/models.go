package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID             int64
	Name           string
	Slug           string
	Plan           string
	Status         string
	TrialEndsAt    sql.NullTime
	LogoPath       sql.NullString
	LogoMediumPath sql.NullString
	LogoThumbPath  sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type User struct {
	ID              int64
	HashID          string
	Name            string
	Email           string
	Password        sql.NullString
	EmailVerifiedAt sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Membership struct {
	TenantID  int64
	UserID    int64
	Role      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
