package document

import (
	"context"

	"github.com/google/uuid"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// Repository defines persistence for document instances.
// SaveWithLock must reject the write with shared.ErrConcurrencyConflict when
// the stored version no longer matches the version the aggregate was read at.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DocumentInstance, error)
	FindByKind(ctx context.Context, kind DocumentKind, filter shared.Filter) ([]DocumentInstance, error)
	Create(ctx context.Context, doc *DocumentInstance) error
	SaveWithLock(ctx context.Context, doc *DocumentInstance, newChanges []StateChangeEvent) error
	FindHistory(ctx context.Context, documentID uuid.UUID) ([]StateChangeEvent, error)
}
