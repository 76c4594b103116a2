package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stitchwork/backend/internal/domain/ledger"
)

const defaultBalanceKeyPrefix = "balance:"

// RedisBalanceCache stores derived balances in Redis so that read-heavy
// balance queries do not replay the full event stream on every request.
// Suitable for distributed deployments where multiple instances share state.
type RedisBalanceCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisBalanceCache creates a cache backed by a new Redis client and
// verifies the connection before returning.
func NewRedisBalanceCache(addr, password string, db int, ttl time.Duration) (*RedisBalanceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisBalanceCacheWithClient(client, ttl), nil
}

// NewRedisBalanceCacheWithClient wraps an existing Redis client. Useful for
// testing or when sharing a client across components.
func NewRedisBalanceCacheWithClient(client *redis.Client, ttl time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{
		client:    client,
		keyPrefix: defaultBalanceKeyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisBalanceCache) key(subjectID uuid.UUID) string {
	return c.keyPrefix + subjectID.String()
}

// Get returns the cached balance for a subject, or (nil, nil) on a miss.
func (c *RedisBalanceCache) Get(ctx context.Context, subjectID uuid.UUID) (*ledger.Balance, error) {
	data, err := c.client.Get(ctx, c.key(subjectID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached balance: %w", err)
	}

	var balance ledger.Balance
	if err := json.Unmarshal(data, &balance); err != nil {
		return nil, fmt.Errorf("failed to decode cached balance: %w", err)
	}

	return &balance, nil
}

// Set stores a balance with the configured TTL.
func (c *RedisBalanceCache) Set(ctx context.Context, balance *ledger.Balance) error {
	data, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to encode balance: %w", err)
	}

	if err := c.client.Set(ctx, c.key(balance.SubjectID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}

	return nil
}

// Invalidate removes a subject's cached balance. Removing a key that does
// not exist is not an error.
func (c *RedisBalanceCache) Invalidate(ctx context.Context, subjectID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(subjectID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached balance: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (c *RedisBalanceCache) Close() error {
	return c.client.Close()
}
