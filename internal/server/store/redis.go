package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/redis/go-redis/v9"
)

// RedisStore maps sets and values one-to-one onto Redis sets and strings.
// No expiry is applied to any key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedis connects to rawURL (redis://[user:pass@]host:port/db) and checks
// the connection.
func OpenRedis(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}

	s := NewRedisStore(redis.NewClient(opts))
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *RedisStore) Add(ctx context.Context, key string, member []byte) error {
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		return wrap("sadd", key, err)
	}
	return nil
}

func (s *RedisStore) Card(ctx context.Context, key string) (int64, error) {
	n, err := s.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, wrap("scard", key, err)
	}
	return n, nil
}

func (s *RedisStore) IsMember(ctx context.Context, key string, member []byte) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, wrap("sismember", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Remove(ctx context.Context, key string, member []byte) error {
	if err := s.client.SRem(ctx, key, member).Err(); err != nil {
		return wrap("srem", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrorNotFound
		}
		return "", wrap("get", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return wrap("set", key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrap("ping", "", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
