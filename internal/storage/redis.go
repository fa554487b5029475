package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the save slot in Redis, keyed per player profile.
// Used by hosted deployments that sync progress across devices.
type RedisStore struct {
	client  *redis.Client
	profile uuid.UUID
	logger  *slog.Logger
}

var _ SaveStore = (*RedisStore)(nil)

func NewRedisStore(redisURL string, profile uuid.UUID, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client:  redis.NewClient(opts),
		profile: profile,
		logger:  logger,
	}, nil
}

func (r *RedisStore) key() string {
	return "save:" + r.profile.String()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load save", "profile", r.profile, "error", err)
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (r *RedisStore) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key(), data, 0).Err(); err != nil {
		r.logger.Error("Failed to write save", "profile", r.profile, "error", err)
		return fmt.Errorf("failed to write save: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear save: %w", err)
	}
	return nil
}
