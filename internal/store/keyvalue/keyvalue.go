// Package keyvalue provides the key/value collaborator used by kv blocks
package keyvalue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type (
	// Store is the key/value collaborator interface
	Store interface {
		Get(ctx context.Context, key string) (string, bool, error)
		Set(ctx context.Context, key, value string, ttl time.Duration) error
		Exists(ctx context.Context, key string) (bool, error)
		Delete(ctx context.Context, key string) (bool, error)
		Increment(ctx context.Context, key string) (int64, error)
		TTL(ctx context.Context, key string) (time.Duration, error)
	}

	// RedisStore implements Store on a Redis client, namespacing every key
	// with a prefix
	RedisStore struct {
		client *redis.Client
		prefix string
	}

	// Config holds Redis connection settings
	Config struct {
		Addr     string
		Password string
		Prefix   string
		DB       int
	}
)

const (
	// NoExpiry is returned by TTL when the key exists without a timeout
	NoExpiry time.Duration = -1

	// Missing is returned by TTL when the key does not exist
	Missing time.Duration = -2

	keySeparator = ":"
)

var (
	ErrKeyEmpty  = errors.New("key empty")
	ErrKeyValue  = errors.New("key/value store error")
	ErrRedisPing = errors.New("failed to reach redis")
)

var _ Store = (*RedisStore)(nil)

// NewRedis wraps an existing Redis client
func NewRedis(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Open connects to Redis using cfg and verifies the connection
func Open(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrRedisPing, err)
	}
	return NewRedis(client, cfg.Prefix), nil
}

// Close releases the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(
	ctx context.Context, key string,
) (string, bool, error) {
	k, err := s.key(key)
	if err != nil {
		return "", false, err
	}
	res, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrKeyValue, err)
	}
	return res, true, nil
}

func (s *RedisStore) Set(
	ctx context.Context, key, value string, ttl time.Duration,
) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, k, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyValue, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	k, err := s.key(key)
	if err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrKeyValue, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	k, err := s.key(key)
	if err != nil {
		return false, err
	}
	n, err := s.client.Del(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrKeyValue, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Increment(
	ctx context.Context, key string,
) (int64, error) {
	k, err := s.key(key)
	if err != nil {
		return 0, err
	}
	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrKeyValue, err)
	}
	return n, nil
}

// TTL returns the remaining time to live of key, NoExpiry when the key
// has no timeout, or Missing when it does not exist
func (s *RedisStore) TTL(
	ctx context.Context, key string,
) (time.Duration, error) {
	k, err := s.key(key)
	if err != nil {
		return 0, err
	}
	d, err := s.client.TTL(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrKeyValue, err)
	}
	switch {
	case d == -1 || d == NoExpiry*time.Second:
		return NoExpiry, nil
	case d == -2 || d == Missing*time.Second:
		return Missing, nil
	default:
		return d, nil
	}
}

func (s *RedisStore) key(key string) (string, error) {
	if key == "" {
		return "", ErrKeyEmpty
	}
	if s.prefix == "" {
		return key, nil
	}
	return s.prefix + keySeparator + key, nil
}
