// Package cache holds the shared redis client used for request counters.
// It connects to an external server when an address is configured and
// otherwise starts an embedded miniredis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yamdb/yamdb/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	miniRedis  *miniredis.Miniredis
	isEmbedded = true
)

var errNotInitialized = errors.New("redis client not initialized")

// InitRedis replaces any previously opened client.
func InitRedis(redisAddr string) error {
	if err := Close(); err != nil {
		logger.Warning("closing previous redis client:", err)
	}

	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start embedded redis: %w", err)
		}
		miniRedis = mr
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		isEmbedded = true
		logger.Info("Embedded redis started on", mr.Addr())
		return nil
	}

	client = redis.NewClient(&redis.Options{Addr: redisAddr})
	isEmbedded = false
	if err := client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", redisAddr, err)
	}
	logger.Info("Connected to external redis at", redisAddr)
	return nil
}

func GetClient() *redis.Client {
	return client
}

func IsEmbedded() bool {
	return isEmbedded
}

// Close closes the client and stops the embedded server if one is running.
func Close() error {
	var err error
	if client != nil {
		err = client.Close()
		client = nil
	}
	if miniRedis != nil {
		miniRedis.Close()
		miniRedis = nil
	}
	return err
}

// Hit increments the counter at key. The first hit opens a window of the
// given length; the returned ttl is what is left of it.
func Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if client == nil {
		return 0, 0, errNotInitialized
	}
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := client.PExpire(ctx, key, window).Err(); err != nil {
			return count, 0, err
		}
		return count, window, nil
	}
	ttl, err := client.PTTL(ctx, key).Result()
	if err != nil {
		return count, 0, err
	}
	if ttl < 0 {
		// counter lost its expiry, restart the window
		if err := client.PExpire(ctx, key, window).Err(); err != nil {
			return count, 0, err
		}
		ttl = window
	}
	return count, ttl, nil
}

func Delete(ctx context.Context, keys ...string) error {
	if client == nil {
		return errNotInitialized
	}
	return client.Del(ctx, keys...).Err()
}

// FastForward moves the embedded server's clock, expiring keys. It is a
// no-op against an external server.
func FastForward(d time.Duration) {
	if miniRedis != nil {
		miniRedis.FastForward(d)
	}
}
