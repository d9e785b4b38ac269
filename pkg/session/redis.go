package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "eventflow:session:"

// RedisStore keeps each session as a redis hash with a sliding ttl.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// url into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func redisKey(sid string) string {
	return redisKeyPrefix + sid
}

func (r *RedisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, redisKey(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) Put(ctx context.Context, sid, key, value string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKey(sid), key, value)
		pipe.Expire(ctx, redisKey(sid), r.ttl)
		return nil
	})
	return err
}

func (r *RedisStore) Forget(ctx context.Context, sid, key string) error {
	return r.client.HDel(ctx, redisKey(sid), key).Err()
}

func (r *RedisStore) Destroy(ctx context.Context, sid string) error {
	return r.client.Del(ctx, redisKey(sid)).Err()
}
