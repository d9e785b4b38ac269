package user

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	id              int64
	hashID          string
	name            string
	email           Email
	passwordHash    string
	emailVerifiedAt *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

type Option func(*User)

func WithID(id int64) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithHashID(hashID string) Option {
	return func(u *User) {
		u.hashID = hashID
	}
}

func WithPasswordHash(hash string) Option {
	return func(u *User) {
		u.passwordHash = hash
	}
}

func WithEmailVerifiedAt(at *time.Time) Option {
	return func(u *User) {
		u.emailVerifiedAt = at
	}
}

func WithCreatedAt(at time.Time) Option {
	return func(u *User) {
		u.createdAt = at
	}
}

func WithUpdatedAt(at time.Time) Option {
	return func(u *User) {
		u.updatedAt = at
	}
}

func New(name string, email Email, opts ...Option) *User {
	now := time.Now()
	u := &User{
		name:      name,
		email:     email,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *User) ID() int64 {
	return u.id
}

func (u *User) HashID() string {
	return u.hashID
}

func (u *User) SetHashID(id string) {
	u.hashID = id
}

func (u *User) Name() string {
	return u.name
}

func (u *User) Email() Email {
	return u.email
}

func (u *User) PasswordHash() string {
	return u.passwordHash
}

func (u *User) EmailVerifiedAt() *time.Time {
	return u.emailVerifiedAt
}

func (u *User) IsVerified() bool {
	return u.emailVerifiedAt != nil
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

func (u *User) SetName(name string) {
	u.name = name
	u.updatedAt = time.Now()
}

func (u *User) SetEmail(email Email) {
	u.email = email
	u.updatedAt = time.Now()
}

// SetPassword stores a bcrypt hash of plain.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.passwordHash = string(hash)
	u.updatedAt = time.Now()
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	if u.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(plain)) == nil
}

func (u *User) MarkVerified(at time.Time) {
	u.emailVerifiedAt = &at
	u.updatedAt = at
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*User, error)
	GetByEmail(ctx context.Context, email Email) (*User, error)
	GetByHashID(ctx context.Context, hashID string) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
}

// InvitedEvent is published when a user gains access to a workspace and
// should receive a set-password link.
type InvitedEvent struct {
	TenantID  int64
	UserID    int64
	Email     Email
	InvitedBy int64
	At        time.Time
}
