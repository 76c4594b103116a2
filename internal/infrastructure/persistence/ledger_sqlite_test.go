package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appinventory "github.com/stitchwork/backend/internal/application/inventory"
	"github.com/stitchwork/backend/internal/domain/ledger"
	"github.com/stitchwork/backend/internal/domain/shared"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&ledger.Subject{}, &ledger.Event{}))

	return db
}

func TestGormSubjectRepository_RoundTrip(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormSubjectRepository(db)
	ctx := context.Background()

	subject, err := ledger.NewSubject(ledger.SubjectTypeFabricRoll, "ROLL-COT-0001", "m", decimal.NewFromInt(120))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, subject))

	t.Run("finds by ID", func(t *testing.T) {
		found, err := repo.FindByID(ctx, subject.ID)
		require.NoError(t, err)
		assert.Equal(t, "ROLL-COT-0001", found.Code)
		assert.True(t, found.InitialQuantity.Equal(decimal.NewFromInt(120)))
	})

	t.Run("finds by code", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, "ROLL-COT-0001")
		require.NoError(t, err)
		assert.Equal(t, subject.ID, found.ID)
	})

	t.Run("missing subject maps to not found", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, "ROLL-COT-9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save persists flag changes", func(t *testing.T) {
		subject.SetReserved(true)
		require.NoError(t, repo.Save(ctx, subject))

		found, err := repo.FindByID(ctx, subject.ID)
		require.NoError(t, err)
		assert.True(t, found.Reserved)
	})
}

func TestGormLedgerTransactionScope_AppendThroughLedger(t *testing.T) {
	db := setupLedgerTestDB(t)
	subjectRepo := NewGormSubjectRepository(db)
	scope := NewGormLedgerTransactionScope(db)
	ctx := context.Background()

	subject, err := ledger.NewSubject(ledger.SubjectTypeFabricRoll, "ROLL-LIN-0002", "m", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, subjectRepo.Create(ctx, subject))

	appendEvent := func(eventType ledger.EventType, qty int64, at time.Time) (*ledger.Balance, error) {
		var balance *ledger.Balance
		err := scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
			event, err := ledger.NewEvent(subject.ID, eventType, decimal.NewFromInt(qty), at, "dewi", "CUT-2024-0007")
			if err != nil {
				return err
			}
			quantityLedger := ledger.NewQuantityLedger(repos.SubjectRepo(), repos.EventRepo())
			balance, err = quantityLedger.Append(ctx, event)
			return err
		})
		return balance, err
	}

	base := time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)

	balance, err := appendEvent(ledger.EventTypeConsume, 30, base)
	require.NoError(t, err)
	assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(70)))

	balance, err = appendEvent(ledger.EventTypeConsume, 50, base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(20)))

	t.Run("insufficient quantity rolls the transaction back", func(t *testing.T) {
		_, err := appendEvent(ledger.EventTypeConsume, 25, base.Add(2*time.Hour))

		var quantityErr *ledger.InsufficientQuantityError
		require.ErrorAs(t, err, &quantityErr)
		assert.True(t, quantityErr.Available.Equal(decimal.NewFromInt(20)))

		events, err := NewGormEventRepository(db).FindBySubject(ctx, subject.ID)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("sequences are assigned per subject in order", func(t *testing.T) {
		events, err := NewGormEventRepository(db).FindBySubject(ctx, subject.ID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, int64(1), events[0].Sequence)
		assert.Equal(t, int64(2), events[1].Sequence)
	})

	t.Run("claiming a taken sequence maps to a conflict", func(t *testing.T) {
		event, err := ledger.NewEvent(subject.ID, ledger.EventTypeReceive, decimal.NewFromInt(5), base.Add(3*time.Hour), "dewi", "GRN-2024-0011")
		require.NoError(t, err)
		event.Sequence = 2

		err = NewGormEventRepository(db).Append(ctx, event)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}
