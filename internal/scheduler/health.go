package scheduler

import (
	"context"
	"fmt"

	"prospecting_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// RedisHealth reports whether the task broker is reachable.
type RedisHealth struct {
	client *redis.Client
}

func NewRedisHealth(cfg config.SchedulerConfig) (*RedisHealth, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	return &RedisHealth{client: redis.NewClient(&redis.Options{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	})}, nil
}

func (h *RedisHealth) Name() string { return "redis" }

func (h *RedisHealth) Check(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (h *RedisHealth) Close() error { return h.client.Close() }
