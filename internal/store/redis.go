package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "vidforge:store"

// RedisPersister stores the snapshot as a JSON blob under a fixed key.
type RedisPersister struct {
	client *redis.Client
	key    string
}

// NewRedisPersister connects to redis and verifies the connection.
func NewRedisPersister(ctx context.Context, redisURL string) (*RedisPersister, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisPersister{client: client, key: snapshotKey}, nil
}

func (r *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

func (r *RedisPersister) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying redis connection.
func (r *RedisPersister) Close() error {
	return r.client.Close()
}

var _ Persister = (*RedisPersister)(nil)
