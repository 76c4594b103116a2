package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stitchwork/backend/internal/domain/reconciliation"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// GormReconciliationRepository implements reconciliation.Repository using GORM
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// FindByID loads a session with its lines and items
func (r *GormReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconciliation.Session, error) {
	var session reconciliation.Session
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Items").
		First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindByBankAccount returns the sessions of one bank account
func (r *GormReconciliationRepository) FindByBankAccount(ctx context.Context, bankAccountID uuid.UUID, filter shared.Filter) ([]reconciliation.Session, error) {
	var sessions []reconciliation.Session
	query := r.db.WithContext(ctx).
		Model(&reconciliation.Session{}).
		Where("bank_account_id = ?", bankAccountID)
	query = applyFilter(query, filter)

	if err := query.Preload("Lines").Preload("Items").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Create inserts a new session
func (r *GormReconciliationRepository) Create(ctx context.Context, session *reconciliation.Session) error {
	return r.db.WithContext(ctx).Omit("Lines", "Items").Create(session).Error
}

// SaveWithLock persists the session and its lines and items in one
// transaction under the optimistic lock. A version miss rolls everything back
// and fails with shared.ErrConcurrencyConflict.
func (r *GormReconciliationRepository) SaveWithLock(ctx context.Context, session *reconciliation.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&reconciliation.Session{}).
			Where("id = ? AND version = ?", session.ID, session.Version-1).
			Updates(map[string]interface{}{
				"state":      session.State,
				"closed_at":  session.ClosedAt,
				"version":    session.Version,
				"updated_at": session.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if len(session.Lines) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&session.Lines).Error; err != nil {
				return err
			}
		}
		if len(session.Items) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&session.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
