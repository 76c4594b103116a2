package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchwork/backend/internal/domain/document"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// GormDocumentRepository implements document.Repository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document instance by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.DocumentInstance, error) {
	var doc document.DocumentInstance
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByKind finds document instances of one kind with filtering
func (r *GormDocumentRepository) FindByKind(ctx context.Context, kind document.DocumentKind, filter shared.Filter) ([]document.DocumentInstance, error) {
	var docs []document.DocumentInstance
	query := r.db.WithContext(ctx).
		Model(&document.DocumentInstance{}).
		Where("kind = ?", kind)
	query = applyFilter(query, filter)

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Create inserts a new document instance
func (r *GormDocumentRepository) Create(ctx context.Context, doc *document.DocumentInstance) error {
	return r.db.WithContext(ctx).Omit("History").Create(doc).Error
}

// SaveWithLock persists the document's new state under the optimistic lock
// and appends the new history rows in the same transaction. A version miss
// rolls everything back and fails with shared.ErrConcurrencyConflict.
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *document.DocumentInstance, newChanges []document.StateChangeEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&document.DocumentInstance{}).
			Where("id = ? AND version = ?", doc.ID, doc.Version-1).
			Updates(map[string]interface{}{
				"current_state": doc.CurrentState,
				"version":       doc.Version,
				"updated_at":    doc.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if len(newChanges) > 0 {
			if err := tx.Create(&newChanges).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindHistory returns a document's state changes, oldest first
func (r *GormDocumentRepository) FindHistory(ctx context.Context, documentID uuid.UUID) ([]document.StateChangeEvent, error) {
	var changes []document.StateChangeEvent
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("occurred_at ASC").
		Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}
