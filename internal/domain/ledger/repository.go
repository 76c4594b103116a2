package ledger

import (
	"context"

	"github.com/google/uuid"
)

// SubjectRepository defines persistence for ledger subjects
type SubjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Subject, error)
	FindByCode(ctx context.Context, code string) (*Subject, error)
	Create(ctx context.Context, subject *Subject) error
	Save(ctx context.Context, subject *Subject) error
}

// EventRepository defines persistence for the append-only event log.
// Append must assign each event the next per-subject sequence number inside
// the surrounding transaction so the log order is total even when timestamps
// collide.
type EventRepository interface {
	Append(ctx context.Context, event *Event) error
	FindBySubject(ctx context.Context, subjectID uuid.UUID) ([]Event, error)
	NextSequence(ctx context.Context, subjectID uuid.UUID) (int64, error)
}
