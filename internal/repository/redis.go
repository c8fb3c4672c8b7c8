package repository

import (
	"context"
	"fmt"
	"time"

	"innkeep/internal/config"

	"github.com/redis/go-redis/v9"
)

const dateKeyLayout = "2006-01-02"

// RedisAvailabilityCache stores one hash per room so a single DEL drops
// every cached range when the room's bookings change.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

func roomKey(roomID int64) string {
	return fmt.Sprintf("availability:%d", roomID)
}

func rangeField(checkIn, checkOut time.Time) string {
	return checkIn.Format(dateKeyLayout) + ":" + checkOut.Format(dateKeyLayout)
}

func (r *RedisAvailabilityCache) GetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, bool, error) {
	if r.client == nil {
		return false, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.HGet(ctx, roomKey(roomID), rangeField(checkIn, checkOut)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get availability from redis: %w", err)
	}
	return val == "1", true, nil
}

func (r *RedisAvailabilityCache) SetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time, available bool) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := roomKey(roomID)
	val := "0"
	if available {
		val = "1"
	}
	if err := r.client.HSet(ctx, key, rangeField(checkIn, checkOut), val).Err(); err != nil {
		return fmt.Errorf("failed to set availability in redis: %w", err)
	}
	// The TTL bounds staleness for the whole room hash.
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set availability ttl: %w", err)
	}
	return nil
}

func (r *RedisAvailabilityCache) InvalidateRoom(ctx context.Context, roomID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate room availability: %w", err)
	}
	return nil
}

func (r *RedisAvailabilityCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	counter := "rate_limit:" + key
	count, err := r.client.Incr(ctx, counter).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, counter, window)
	}

	return count <= int64(limit), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
