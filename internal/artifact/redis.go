package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSource stores artifacts as plain string values under a key prefix.
type RedisSource struct {
	client *redis.Client
	prefix string
}

// NewRedisSource connects to Redis and verifies the connection.
func NewRedisSource(addr, password string, db int, prefix string) (*RedisSource, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisSource{client: client, prefix: prefix}, nil
}

func (s *RedisSource) Name() string { return "redis" }

func (s *RedisSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+ref).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s%s", ErrNotFound, s.prefix, ref)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisSource) Put(ctx context.Context, ref string, payload []byte) error {
	return s.client.Set(ctx, s.prefix+ref, payload, 0).Err()
}

// Close closes the Redis connection.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
