package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stitchwork/backend/internal/domain/ledger"
)

// CreateSubjectRequest represents a request to register a tracked quantity
type CreateSubjectRequest struct {
	Type            ledger.SubjectType `json:"type" binding:"required,oneof=FABRIC_ROLL SKU_STOCK"`
	Code            string             `json:"code" binding:"required,max=100"`
	Unit            string             `json:"unit" binding:"required,max=20"`
	InitialQuantity decimal.Decimal    `json:"initial_quantity"`
	MinQuantity     decimal.Decimal    `json:"min_quantity"`
}

// AppendEventRequest represents a request to append one movement to a
// subject's event log
type AppendEventRequest struct {
	Type       ledger.EventType `json:"type" binding:"required"`
	Quantity   decimal.Decimal  `json:"quantity" binding:"required"`
	OccurredAt *time.Time       `json:"occurred_at"`
	Actor      string           `json:"actor" binding:"required,max=100"`
	Reference  string           `json:"reference" binding:"max=100"`
}

// SubjectResponse represents a tracked quantity in API responses
type SubjectResponse struct {
	ID              uuid.UUID          `json:"id"`
	Type            ledger.SubjectType `json:"type"`
	Code            string             `json:"code"`
	Unit            string             `json:"unit"`
	InitialQuantity decimal.Decimal    `json:"initial_quantity"`
	Reserved        bool               `json:"reserved"`
	MinQuantity     decimal.Decimal    `json:"min_quantity"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// BalanceResponse represents a derived balance in API responses
type BalanceResponse struct {
	SubjectID uuid.UUID            `json:"subject_id"`
	Remaining decimal.Decimal      `json:"remaining"`
	Status    ledger.BalanceStatus `json:"status"`
}

// EventResponse represents one ledger entry in API responses
type EventResponse struct {
	ID         uuid.UUID        `json:"id"`
	Type       ledger.EventType `json:"type"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Delta      decimal.Decimal  `json:"delta"`
	Sequence   int64            `json:"sequence"`
	OccurredAt time.Time        `json:"occurred_at"`
	Actor      string           `json:"actor"`
	Reference  string           `json:"reference,omitempty"`
}

// ToSubjectResponse converts a domain subject to a response DTO
func ToSubjectResponse(subject *ledger.Subject) SubjectResponse {
	return SubjectResponse{
		ID:              subject.ID,
		Type:            subject.Type,
		Code:            subject.Code,
		Unit:            subject.Unit,
		InitialQuantity: subject.InitialQuantity,
		Reserved:        subject.Reserved,
		MinQuantity:     subject.MinQuantity,
		CreatedAt:       subject.CreatedAt,
		UpdatedAt:       subject.UpdatedAt,
	}
}

// ToBalanceResponse converts a derived balance to a response DTO
func ToBalanceResponse(balance *ledger.Balance) BalanceResponse {
	return BalanceResponse{
		SubjectID: balance.SubjectID,
		Remaining: balance.Remaining,
		Status:    balance.Status,
	}
}

// ToEventResponses converts ledger entries to response DTOs
func ToEventResponses(events []ledger.Event) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for idx := range events {
		responses = append(responses, EventResponse{
			ID:         events[idx].ID,
			Type:       events[idx].Type,
			Quantity:   events[idx].Quantity,
			Delta:      events[idx].Delta(),
			Sequence:   events[idx].Sequence,
			OccurredAt: events[idx].OccurredAt,
			Actor:      events[idx].Actor,
			Reference:  events[idx].Reference,
		})
	}
	return responses
}
