// Package throttle limits how often a keyed action may run.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const storePrefix = "eventflow:throttle"

// ExceededError is returned when a key is over its limit.
type ExceededError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("throttle: %s exceeded, retry after %s", e.Key, e.RetryAfter.Round(time.Second))
}

// Throttle permits limit hits per period for each key.
type Throttle struct {
	limiter *limiter.Limiter
	now     func() time.Time
}

func NewMemory(limit int64, period time.Duration) *Throttle {
	return newThrottle(memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          storePrefix,
		CleanUpInterval: time.Minute,
	}), limit, period)
}

func NewRedis(client *redis.Client, limit int64, period time.Duration) (*Throttle, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: storePrefix})
	if err != nil {
		return nil, fmt.Errorf("throttle: redis store: %w", err)
	}
	return newThrottle(store, limit, period), nil
}

func newThrottle(store limiter.Store, limit int64, period time.Duration) *Throttle {
	return &Throttle{
		limiter: limiter.New(store, limiter.Rate{Period: period, Limit: limit}),
		now:     time.Now,
	}
}

// Hit records one attempt for key and returns *ExceededError when the key is
// already over its limit.
func (t *Throttle) Hit(ctx context.Context, key string) error {
	res, err := t.limiter.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if res.Reached {
		retry := time.Unix(res.Reset, 0).Sub(t.now())
		if retry < 0 {
			retry = 0
		}
		return &ExceededError{Key: key, RetryAfter: retry}
	}
	return nil
}

// Remaining reports how many hits key has left without consuming one.
func (t *Throttle) Remaining(ctx context.Context, key string) (int64, error) {
	res, err := t.limiter.Peek(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("throttle: %w", err)
	}
	return res.Remaining, nil
}
