package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// EventType represents the type of quantity-changing event
type EventType string

const (
	// EventTypeReceive represents quantity entering the subject (goods receipt, roll intake)
	EventTypeReceive EventType = "RECEIVE"
	// EventTypeConsume represents quantity used up (fabric cut, material issued)
	EventTypeConsume EventType = "CONSUME"
	// EventTypeTransferOut represents quantity moved out to another location
	EventTypeTransferOut EventType = "TRANSFER_OUT"
	// EventTypeTransferIn represents quantity moved in from another location
	EventTypeTransferIn EventType = "TRANSFER_IN"
	// EventTypeAdjust represents a signed correction from stock taking or audit
	EventTypeAdjust EventType = "ADJUST"
)

// String returns the string representation of EventType
func (t EventType) String() string {
	return string(t)
}

// IsValid returns true if the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeReceive, EventTypeConsume, EventTypeTransferOut, EventTypeTransferIn, EventTypeAdjust:
		return true
	}
	return false
}

// SignedDelta returns the signed quantity change this event applies to the
// running balance. RECEIVE and TRANSFER_IN add, CONSUME and TRANSFER_OUT
// subtract, ADJUST carries its own sign.
func (t EventType) SignedDelta(quantity decimal.Decimal) decimal.Decimal {
	switch t {
	case EventTypeReceive, EventTypeTransferIn:
		return quantity
	case EventTypeConsume, EventTypeTransferOut:
		return quantity.Neg()
	case EventTypeAdjust:
		return quantity
	}
	return decimal.Zero
}

// Event is an immutable record of a quantity change applied to a subject.
// Once appended it is never edited or deleted; corrections are new ADJUST
// events, so the full history stays auditable.
type Event struct {
	shared.BaseEntity
	SubjectID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_event_subject,priority:1;uniqueIndex:idx_ledger_events_subject_sequence,priority:1"`
	Type       EventType       `gorm:"type:varchar(20);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,2);not null"` // magnitude; ADJUST may be signed
	Sequence   int64           `gorm:"not null;index:idx_ledger_event_subject,priority:3;uniqueIndex:idx_ledger_events_subject_sequence,priority:2"`
	OccurredAt time.Time       `gorm:"type:timestamptz;not null;index:idx_ledger_event_subject,priority:2"`
	Actor      string          `gorm:"type:varchar(100);not null"`
	Reference  string          `gorm:"type:varchar(100)"` // originating document number
}

// TableName returns the table name for GORM
func (Event) TableName() string {
	return "ledger_events"
}

// NewEvent creates a new ledger event. Non-ADJUST quantities must be positive;
// an ADJUST may be signed but not zero.
func NewEvent(subjectID uuid.UUID, eventType EventType, quantity decimal.Decimal, occurredAt time.Time, actor, reference string) (*Event, error) {
	if subjectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject ID cannot be empty")
	}
	if !eventType.IsValid() {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", "Unknown ledger event type")
	}
	if eventType == EventTypeAdjust {
		if quantity.IsZero() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
		}
	} else if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &Event{
		BaseEntity: shared.NewBaseEntity(),
		SubjectID:  subjectID,
		Type:       eventType,
		Quantity:   quantity,
		OccurredAt: occurredAt,
		Actor:      actor,
		Reference:  reference,
	}, nil
}

// Delta returns the signed quantity change of this event
func (e *Event) Delta() decimal.Decimal {
	return e.Type.SignedDelta(e.Quantity)
}
