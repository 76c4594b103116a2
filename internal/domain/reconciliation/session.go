package reconciliation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// SessionState represents the lifecycle state of a reconciliation session
type SessionState string

const (
	SessionStateOpen       SessionState = "OPEN"
	SessionStateInProgress SessionState = "IN_PROGRESS"
	SessionStateClosed     SessionState = "CLOSED"
)

// IsValid checks if the state is a valid SessionState
func (s SessionState) IsValid() bool {
	switch s {
	case SessionStateOpen, SessionStateInProgress, SessionStateClosed:
		return true
	}
	return false
}

// String returns the string representation of SessionState
func (s SessionState) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state
func (s SessionState) CanTransitionTo(target SessionState) bool {
	switch s {
	case SessionStateOpen:
		return target == SessionStateInProgress || target == SessionStateClosed
	case SessionStateInProgress:
		return target == SessionStateClosed
	case SessionStateClosed:
		return false // Terminal
	}
	return false
}

// IsTerminal returns true for the CLOSED state
func (s SessionState) IsTerminal() bool {
	return s == SessionStateClosed
}

// MatchType records how a pairing was made
type MatchType string

const (
	MatchTypeAuto   MatchType = "AUTO"
	MatchTypeManual MatchType = "MANUAL"
)

// SessionClosedError is returned when any mutation is attempted on a CLOSED session
type SessionClosedError struct {
	SessionID uuid.UUID
}

// Error implements the error interface
func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("reconciliation session %s is closed", e.SessionID)
}

// AlreadyMatchedError is returned when a manual match targets a line or item
// that already participates in a pairing
type AlreadyMatchedError struct {
	LineID uuid.UUID
	ItemID uuid.UUID
}

// Error implements the error interface
func (e *AlreadyMatchedError) Error() string {
	return fmt.Sprintf("line %s or item %s is already matched", e.LineID, e.ItemID)
}

// UnbalancedReconciliationError is returned when closing a session that still
// has unmatched bank statement lines
type UnbalancedReconciliationError struct {
	SessionID      uuid.UUID
	UnmatchedLines int
}

// Error implements the error interface
func (e *UnbalancedReconciliationError) Error() string {
	return fmt.Sprintf("cannot close session %s: %d bank statement lines remain unmatched", e.SessionID, e.UnmatchedLines)
}

// BankStatementLine is one line imported from a bank statement
type BankStatementLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	SessionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineDate      time.Time       `gorm:"type:date;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description   string          `gorm:"type:varchar(255)"`
	MatchedItemID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (BankStatementLine) TableName() string {
	return "bank_statement_lines"
}

// IsMatched returns true if the line participates in a pairing
func (l *BankStatementLine) IsMatched() bool {
	return l.MatchedItemID != nil
}

// ReconciliationItem is one internal ledger or invoice reference expected on
// the bank statement
type ReconciliationItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	SessionID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LedgerRef      string          `gorm:"type:varchar(100);not null"` // internal ledger/invoice number
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ItemDate       time.Time       `gorm:"type:date;not null"`
	MatchedLineID  *uuid.UUID      `gorm:"type:uuid;index"`
	MatchType      MatchType       `gorm:"type:varchar(10)"`
	AmountMismatch bool            `gorm:"not null;default:false"` // manual override with differing amounts
}

// TableName returns the table name for GORM
func (ReconciliationItem) TableName() string {
	return "reconciliation_items"
}

// IsMatched returns true if the item participates in a pairing
func (i *ReconciliationItem) IsMatched() bool {
	return i.MatchedLineID != nil
}

// Session is the aggregate root for reconciling one bank account over one
// period. Lines and items each participate in at most one pairing; once the
// session is CLOSED nothing inside it may change.
type Session struct {
	shared.BaseAggregateRoot
	BankAccountID uuid.UUID            `gorm:"type:uuid;not null;index"`
	PeriodStart   time.Time            `gorm:"type:date;not null"`
	PeriodEnd     time.Time            `gorm:"type:date;not null"`
	State         SessionState         `gorm:"type:varchar(20);not null;default:'OPEN'"`
	Lines         []BankStatementLine  `gorm:"foreignKey:SessionID;references:ID"`
	Items         []ReconciliationItem `gorm:"foreignKey:SessionID;references:ID"`
	ClosedAt      *time.Time
}

// TableName returns the table name for GORM
func (Session) TableName() string {
	return "reconciliation_sessions"
}

// NewSession creates a new reconciliation session in the OPEN state
func NewSession(bankAccountID uuid.UUID, periodStart, periodEnd time.Time) (*Session, error) {
	if bankAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BANK_ACCOUNT", "Bank account ID cannot be empty")
	}
	if periodEnd.Before(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end cannot precede period start")
	}

	return &Session{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BankAccountID:     bankAccountID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		State:             SessionStateOpen,
		Lines:             make([]BankStatementLine, 0),
		Items:             make([]ReconciliationItem, 0),
	}, nil
}

// ensureMutable fails with SessionClosedError once the session is CLOSED
func (s *Session) ensureMutable() error {
	if s.State.IsTerminal() {
		return &SessionClosedError{SessionID: s.ID}
	}
	return nil
}

// start moves OPEN to IN_PROGRESS on the first import
func (s *Session) start() {
	if s.State == SessionStateOpen {
		s.State = SessionStateInProgress
	}
}

// findLine returns the line with the given ID, or nil
func (s *Session) findLine(lineID uuid.UUID) *BankStatementLine {
	for idx := range s.Lines {
		if s.Lines[idx].ID == lineID {
			return &s.Lines[idx]
		}
	}
	return nil
}

// findItem returns the item with the given ID, or nil
func (s *Session) findItem(itemID uuid.UUID) *ReconciliationItem {
	for idx := range s.Items {
		if s.Items[idx].ID == itemID {
			return &s.Items[idx]
		}
	}
	return nil
}

// UnmatchedLines returns all lines not yet paired
func (s *Session) UnmatchedLines() []BankStatementLine {
	unmatched := make([]BankStatementLine, 0)
	for _, line := range s.Lines {
		if !line.IsMatched() {
			unmatched = append(unmatched, line)
		}
	}
	return unmatched
}

// UnmatchedItems returns all items not yet paired
func (s *Session) UnmatchedItems() []ReconciliationItem {
	unmatched := make([]ReconciliationItem, 0)
	for _, item := range s.Items {
		if !item.IsMatched() {
			unmatched = append(unmatched, item)
		}
	}
	return unmatched
}

// MatchedCount returns the number of committed pairings
func (s *Session) MatchedCount() int {
	count := 0
	for _, line := range s.Lines {
		if line.IsMatched() {
			count++
		}
	}
	return count
}

// IsClosed returns true once the session has been closed
func (s *Session) IsClosed() bool {
	return s.State == SessionStateClosed
}
