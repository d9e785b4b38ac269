package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrForbidden          = errors.New("action is not allowed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrAlreadyVerified    = errors.New("user has already set a password")
	ErrNoCurrentTenant    = errors.New("no current workspace")
)

// InviteThrottledError is returned when a set-password link was sent too
// recently.
type InviteThrottledError struct {
	RetryAfter time.Duration
}

func (e *InviteThrottledError) Error() string {
	return fmt.Sprintf("invite was sent recently, retry in %s", e.RetryAfter.Round(time.Second))
}
