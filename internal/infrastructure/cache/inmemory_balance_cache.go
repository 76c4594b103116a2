package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stitchwork/backend/internal/domain/ledger"
)

// balanceEntry wraps a cached balance with its expiration time
type balanceEntry struct {
	balance   ledger.Balance
	expiresAt time.Time
}

// InMemoryBalanceCache implements the balance cache with a plain map.
// Suitable for single-instance deployments and testing.
type InMemoryBalanceCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]balanceEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryBalanceCache creates an in-memory balance cache. It starts a
// background goroutine to clean up expired entries.
func NewInMemoryBalanceCache(ttl time.Duration) *InMemoryBalanceCache {
	cache := &InMemoryBalanceCache{
		entries:  make(map[uuid.UUID]balanceEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached balance for a subject, or (nil, nil) on a miss.
// Expired entries count as misses.
func (c *InMemoryBalanceCache) Get(ctx context.Context, subjectID uuid.UUID) (*ledger.Balance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[subjectID]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, nil
	}

	balance := e.balance
	return &balance, nil
}

// Set stores a balance with the configured TTL.
func (c *InMemoryBalanceCache) Set(ctx context.Context, balance *ledger.Balance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[balance.SubjectID] = balanceEntry{
		balance:   *balance,
		expiresAt: time.Now().Add(c.ttl),
	}

	return nil
}

// Invalidate removes a subject's cached balance.
func (c *InMemoryBalanceCache) Invalidate(ctx context.Context, subjectID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, subjectID)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryBalanceCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryBalanceCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryBalanceCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for subjectID, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, subjectID)
		}
	}
}
