package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stockpulse/internal/logger"
	"stockpulse/internal/models"
)

// Redis shares snapshots between the API and the worker.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedis connects using a redis:// URL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration, log *logger.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis snapshot cache connected to %s", opts.Addr)
	return NewRedisFromClient(client, ttl, log), nil
}

func NewRedisFromClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: log}
}

func (r *Redis) Name() string { return "redis" }

func snapshotKey(userID string) string {
	return fmt.Sprintf("snapshot:%s", userID)
}

func (r *Redis) Get(ctx context.Context, userID string) (*models.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, snapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot cache: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	r.logger.Debug("snapshot cache hit for %s", userID)
	return &snap, true, nil
}

func (r *Redis) Set(ctx context.Context, userID string, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot cache: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
