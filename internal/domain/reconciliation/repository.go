package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// Repository defines persistence for reconciliation sessions.
// SaveWithLock persists the session together with its lines and items in one
// transaction and must reject the write with shared.ErrConcurrencyConflict
// when the stored version no longer matches.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	FindByBankAccount(ctx context.Context, bankAccountID uuid.UUID, filter shared.Filter) ([]Session, error)
	Create(ctx context.Context, session *Session) error
	SaveWithLock(ctx context.Context, session *Session) error
}
