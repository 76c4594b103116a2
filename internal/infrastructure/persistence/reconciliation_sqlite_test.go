package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appfinance "github.com/stitchwork/backend/internal/application/finance"
	"github.com/stitchwork/backend/internal/domain/reconciliation"
)

func setupReconciliationTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&reconciliation.Session{},
		&reconciliation.BankStatementLine{},
		&reconciliation.ReconciliationItem{},
	))

	return db
}

// Drives the service against the real version-guarded store. Repeated
// matching passes must converge instead of tripping the optimistic lock.
func TestReconciliationService_AutoMatchAgainstStore(t *testing.T) {
	db := setupReconciliationTestDB(t)
	repo := NewGormReconciliationRepository(db)
	matcher := reconciliation.NewMatcher(reconciliation.DefaultMatcherConfig())
	service := appfinance.NewReconciliationService(repo, matcher, zap.NewNop())
	ctx := context.Background()

	created, err := service.CreateSession(ctx, appfinance.CreateSessionRequest{
		BankAccountID: uuid.New(),
		PeriodStart:   time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = service.ImportLines(ctx, created.ID, []appfinance.ImportLineRequest{
		{LineDate: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(500000), Description: "TRF FABRIC SUPPLIER"},
	})
	require.NoError(t, err)
	_, err = service.ImportItems(ctx, created.ID, []appfinance.ImportItemRequest{
		{LedgerRef: "INV-2024-0042", Amount: decimal.NewFromInt(500000), ItemDate: time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	first, err := service.AutoMatch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.MatchedCount)

	second, err := service.AutoMatch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.MatchedCount)
	assert.Empty(t, second.UnmatchedLines)
	assert.Empty(t, second.UnmatchedItems)

	stored, err := service.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.MatchedCount)
}

func TestReconciliationService_AutoMatchEmptyPassAgainstStore(t *testing.T) {
	db := setupReconciliationTestDB(t)
	repo := NewGormReconciliationRepository(db)
	matcher := reconciliation.NewMatcher(reconciliation.DefaultMatcherConfig())
	service := appfinance.NewReconciliationService(repo, matcher, zap.NewNop())
	ctx := context.Background()

	created, err := service.CreateSession(ctx, appfinance.CreateSessionRequest{
		BankAccountID: uuid.New(),
		PeriodStart:   time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = service.ImportLines(ctx, created.ID, []appfinance.ImportLineRequest{
		{LineDate: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(500000)},
	})
	require.NoError(t, err)

	// amount off by one, never eligible for auto-matching
	_, err = service.ImportItems(ctx, created.ID, []appfinance.ImportItemRequest{
		{LedgerRef: "INV-2024-0042", Amount: decimal.NewFromInt(500001), ItemDate: time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	resp, err := service.AutoMatch(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.MatchedCount)
	assert.Len(t, resp.UnmatchedLines, 1)
	assert.Len(t, resp.UnmatchedItems, 1)
}
