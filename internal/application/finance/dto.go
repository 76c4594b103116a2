package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stitchwork/backend/internal/domain/reconciliation"
)

// CreateSessionRequest represents a request to open a reconciliation period
type CreateSessionRequest struct {
	BankAccountID uuid.UUID `json:"bank_account_id" binding:"required"`
	PeriodStart   time.Time `json:"period_start" binding:"required"`
	PeriodEnd     time.Time `json:"period_end" binding:"required"`
}

// ImportLineRequest represents one bank statement line in an import payload
type ImportLineRequest struct {
	LineDate    time.Time       `json:"line_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// ImportItemRequest represents one internal reference in an import payload
type ImportItemRequest struct {
	LedgerRef string          `json:"ledger_ref" binding:"required,max=100"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	ItemDate  time.Time       `json:"item_date" binding:"required"`
}

// ManualMatchRequest represents a request to pair one line with one item
type ManualMatchRequest struct {
	LineID uuid.UUID `json:"line_id" binding:"required"`
	ItemID uuid.UUID `json:"item_id" binding:"required"`
}

// LineResponse represents a bank statement line in API responses
type LineResponse struct {
	ID            uuid.UUID       `json:"id"`
	LineDate      time.Time       `json:"line_date"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	MatchedItemID *uuid.UUID      `json:"matched_item_id,omitempty"`
}

// ItemResponse represents a reconciliation item in API responses
type ItemResponse struct {
	ID             uuid.UUID                `json:"id"`
	LedgerRef      string                   `json:"ledger_ref"`
	Amount         decimal.Decimal          `json:"amount"`
	ItemDate       time.Time                `json:"item_date"`
	MatchedLineID  *uuid.UUID               `json:"matched_line_id,omitempty"`
	MatchType      reconciliation.MatchType `json:"match_type,omitempty"`
	AmountMismatch bool                     `json:"amount_mismatch"`
}

// SessionResponse represents a reconciliation session in API responses
type SessionResponse struct {
	ID            uuid.UUID                   `json:"id"`
	BankAccountID uuid.UUID                   `json:"bank_account_id"`
	PeriodStart   time.Time                   `json:"period_start"`
	PeriodEnd     time.Time                   `json:"period_end"`
	State         reconciliation.SessionState `json:"state"`
	Lines         []LineResponse              `json:"lines"`
	Items         []ItemResponse              `json:"items"`
	MatchedCount  int                         `json:"matched_count"`
	ClosedAt      *time.Time                  `json:"closed_at,omitempty"`
	Version       int                         `json:"version"`
}

// AutoMatchResponse summarizes one auto-match pass
type AutoMatchResponse struct {
	MatchedCount   int            `json:"matched_count"`
	UnmatchedLines []LineResponse `json:"unmatched_lines"`
	UnmatchedItems []ItemResponse `json:"unmatched_items"`
}

// ManualMatchResponse reports one committed manual pairing
type ManualMatchResponse struct {
	LineID         uuid.UUID `json:"line_id"`
	ItemID         uuid.UUID `json:"item_id"`
	AmountMismatch bool      `json:"amount_mismatch"`
}

// ToLineResponses converts statement lines to response DTOs
func ToLineResponses(lines []reconciliation.BankStatementLine) []LineResponse {
	responses := make([]LineResponse, 0, len(lines))
	for idx := range lines {
		responses = append(responses, LineResponse{
			ID:            lines[idx].ID,
			LineDate:      lines[idx].LineDate,
			Amount:        lines[idx].Amount,
			Description:   lines[idx].Description,
			MatchedItemID: lines[idx].MatchedItemID,
		})
	}
	return responses
}

// ToItemResponses converts reconciliation items to response DTOs
func ToItemResponses(items []reconciliation.ReconciliationItem) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for idx := range items {
		responses = append(responses, ItemResponse{
			ID:             items[idx].ID,
			LedgerRef:      items[idx].LedgerRef,
			Amount:         items[idx].Amount,
			ItemDate:       items[idx].ItemDate,
			MatchedLineID:  items[idx].MatchedLineID,
			MatchType:      items[idx].MatchType,
			AmountMismatch: items[idx].AmountMismatch,
		})
	}
	return responses
}

// ToSessionResponse converts a session aggregate to a response DTO
func ToSessionResponse(session *reconciliation.Session) SessionResponse {
	return SessionResponse{
		ID:            session.ID,
		BankAccountID: session.BankAccountID,
		PeriodStart:   session.PeriodStart,
		PeriodEnd:     session.PeriodEnd,
		State:         session.State,
		Lines:         ToLineResponses(session.Lines),
		Items:         ToItemResponses(session.Items),
		MatchedCount:  session.MatchedCount(),
		ClosedAt:      session.ClosedAt,
		Version:       session.Version,
	}
}
