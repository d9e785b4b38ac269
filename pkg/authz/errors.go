package authz

import (
	"errors"
	"fmt"
)

var ErrForbidden = errors.New("permission denied")

// ForbiddenError describes a denied request.
type ForbiddenError struct {
	Request Request
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("permission denied: %s may not %s %s", e.Request.Role, e.Request.Action, e.Request.Object)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}
