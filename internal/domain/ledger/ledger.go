package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// negativeTolerance is how far below zero a non-ADJUST event may push the
// balance before it is rejected. It absorbs two-decimal rounding noise only.
var negativeTolerance = decimal.NewFromFloat(0.01)

// InsufficientQuantityError is returned when a consuming event would drive the
// subject's balance below zero beyond tolerance. The event is not persisted.
type InsufficientQuantityError struct {
	SubjectID uuid.UUID
	Requested decimal.Decimal
	Available decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity on subject %s: requested %s, available %s",
		e.SubjectID, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// QuantityLedger derives balances from the append-only event log instead of
// keeping a free-standing counter. Every physical or financial movement is an
// event; the balance is always replayable from the log.
type QuantityLedger struct {
	subjects SubjectRepository
	events   EventRepository
}

// NewQuantityLedger creates a new quantity ledger over the given repositories
func NewQuantityLedger(subjects SubjectRepository, events EventRepository) *QuantityLedger {
	return &QuantityLedger{
		subjects: subjects,
		events:   events,
	}
}

// Append validates and persists one ledger event, returning the recomputed
// balance. A non-ADJUST event that would drive the balance below zero beyond
// tolerance fails with InsufficientQuantityError and is not persisted. The
// caller is expected to run Append inside a transaction together with any
// document-side write it belongs to.
func (l *QuantityLedger) Append(ctx context.Context, event *Event) (*Balance, error) {
	if event == nil {
		return nil, shared.NewDomainError("INVALID_EVENT", "Event cannot be nil")
	}
	if !event.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", "Unknown ledger event type")
	}

	subject, err := l.subjects.FindByID(ctx, event.SubjectID)
	if err != nil {
		return nil, err
	}

	history, err := l.events.FindBySubject(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	current := Replay(subject.InitialQuantity, history)
	candidate := current.Add(event.Delta())
	if event.Type != EventTypeAdjust && candidate.LessThan(negativeTolerance.Neg()) {
		return nil, &InsufficientQuantityError{
			SubjectID: subject.ID,
			Requested: event.Quantity,
			Available: current,
		}
	}

	sequence, err := l.events.NextSequence(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	event.Sequence = sequence

	if err := l.events.Append(ctx, event); err != nil {
		return nil, err
	}

	remaining := Replay(subject.InitialQuantity, append(history, *event))
	return l.balanceFor(subject, remaining), nil
}

// ComputeBalance replays all events for a subject and returns the derived
// balance. It is side-effect-free and may run at a weaker isolation level.
func (l *QuantityLedger) ComputeBalance(ctx context.Context, subjectID uuid.UUID) (*Balance, error) {
	subject, err := l.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	events, err := l.events.FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	remaining := Replay(subject.InitialQuantity, events)
	return l.balanceFor(subject, remaining), nil
}

// balanceFor derives the status for the subject's type and flags
func (l *QuantityLedger) balanceFor(subject *Subject, remaining decimal.Decimal) *Balance {
	statusFn := statusFuncFor(subject.Type)
	return &Balance{
		SubjectID: subject.ID,
		Remaining: remaining,
		Status:    statusFn(remaining, subject.Flags()),
	}
}
