package repo

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// UniqueRetries bounds how often a write racing on a unique index is redone.
const UniqueRetries = 3

// RetryOnUnique runs fn again when it fails with a unique violation on one of
// constraints (any constraint when none are given). fn must recompute the
// conflicting value on each call.
func RetryOnUnique(ctx context.Context, fn func(ctx context.Context) error, constraints ...string) error {
	backoff := retry.WithMaxRetries(UniqueRetries, retry.NewConstant(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && matchesUnique(err, constraints) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func matchesUnique(err error, constraints []string) bool {
	if len(constraints) == 0 {
		return IsUniqueViolation(err, "")
	}
	for _, c := range constraints {
		if IsUniqueViolation(err, c) {
			return true
		}
	}
	return false
}
