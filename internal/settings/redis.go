package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKey = "wordgames:" + Key

type Redis struct {
	client *redis.Client
}

// OpenRedis connects using a redis:// URL and pings the server once.
func OpenRedis(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	v, err := r.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", Key, err)
	}
	return v, nil
}

func (r *Redis) Save(ctx context.Context, address string) error {
	if err := r.client.Set(ctx, redisKey, address, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", Key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
