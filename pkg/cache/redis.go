package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/engagement-funnel/pkg/config"
)

const pingTimeout = 5 * time.Second

// NewRedis returns a Redis client that answered a ping before ctx or the ping timeout expired.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
