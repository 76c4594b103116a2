package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/stitchwork/backend/internal/application/inventory"
	"github.com/stitchwork/backend/internal/domain/ledger"
)

var _ appinventory.BalanceCache = (*InMemoryBalanceCache)(nil)
var _ appinventory.BalanceCache = (*RedisBalanceCache)(nil)

func TestInMemoryBalanceCache_GetSet(t *testing.T) {
	cache := NewInMemoryBalanceCache(1 * time.Hour)
	defer cache.Close()

	ctx := context.Background()

	t.Run("miss returns nil without error", func(t *testing.T) {
		balance, err := cache.Get(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, balance)
	})

	t.Run("set then get returns the stored balance", func(t *testing.T) {
		subjectID := uuid.New()
		stored := &ledger.Balance{
			SubjectID: subjectID,
			Remaining: decimal.NewFromInt(120),
			Status:    ledger.StatusAvailable,
		}

		require.NoError(t, cache.Set(ctx, stored))

		balance, err := cache.Get(ctx, subjectID)
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, subjectID, balance.SubjectID)
		assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(120)))
		assert.Equal(t, ledger.StatusAvailable, balance.Status)
	})

	t.Run("get returns a copy, not the stored entry", func(t *testing.T) {
		subjectID := uuid.New()
		require.NoError(t, cache.Set(ctx, &ledger.Balance{
			SubjectID: subjectID,
			Remaining: decimal.NewFromInt(50),
			Status:    ledger.StatusAvailable,
		}))

		first, err := cache.Get(ctx, subjectID)
		require.NoError(t, err)
		first.Status = ledger.StatusReserved

		second, err := cache.Get(ctx, subjectID)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusAvailable, second.Status)
	})
}

func TestInMemoryBalanceCache_Expiration(t *testing.T) {
	cache := NewInMemoryBalanceCache(10 * time.Millisecond)
	defer cache.Close()

	ctx := context.Background()
	subjectID := uuid.New()

	require.NoError(t, cache.Set(ctx, &ledger.Balance{
		SubjectID: subjectID,
		Remaining: decimal.NewFromInt(30),
		Status:    ledger.StatusAvailable,
	}))

	time.Sleep(20 * time.Millisecond)

	balance, err := cache.Get(ctx, subjectID)
	require.NoError(t, err)
	assert.Nil(t, balance, "expired entry should be a miss")
}

func TestInMemoryBalanceCache_Invalidate(t *testing.T) {
	cache := NewInMemoryBalanceCache(1 * time.Hour)
	defer cache.Close()

	ctx := context.Background()
	subjectID := uuid.New()

	require.NoError(t, cache.Set(ctx, &ledger.Balance{
		SubjectID: subjectID,
		Remaining: decimal.NewFromInt(75),
		Status:    ledger.StatusReserved,
	}))

	require.NoError(t, cache.Invalidate(ctx, subjectID))

	balance, err := cache.Get(ctx, subjectID)
	require.NoError(t, err)
	assert.Nil(t, balance)

	t.Run("invalidating an absent subject is not an error", func(t *testing.T) {
		assert.NoError(t, cache.Invalidate(ctx, uuid.New()))
	})
}

func TestInMemoryBalanceCache_CloseIsIdempotent(t *testing.T) {
	cache := NewInMemoryBalanceCache(1 * time.Hour)

	require.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())
}
