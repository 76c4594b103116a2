package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/stitchwork/backend/internal/domain/document"
)

// CreateDocumentRequest represents a request to open a new tracked document
type CreateDocumentRequest struct {
	Kind      document.DocumentKind `json:"kind" binding:"required"`
	Reference string                `json:"reference" binding:"required,max=100"`
}

// TransitionRequest represents a request to move a document to a new state
type TransitionRequest struct {
	ToState document.State `json:"to_state" binding:"required"`
	Actor   string         `json:"actor" binding:"required,max=100"`
	Note    string         `json:"note" binding:"max=500"`
}

// DocumentResponse represents a tracked document in API responses
type DocumentResponse struct {
	ID           uuid.UUID             `json:"id"`
	Kind         document.DocumentKind `json:"kind"`
	Reference    string                `json:"reference"`
	CurrentState document.State        `json:"current_state"`
	StateLabel   string                `json:"state_label"`
	StateColor   string                `json:"state_color"`
	NextStates   []document.State      `json:"next_states"`
	IsTerminal   bool                  `json:"is_terminal"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Version      int                   `json:"version"`
}

// StateChangeResponse represents one history entry in API responses
type StateChangeResponse struct {
	ID         uuid.UUID      `json:"id"`
	FromState  document.State `json:"from_state"`
	ToState    document.State `json:"to_state"`
	Actor      string         `json:"actor"`
	Note       string         `json:"note,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// WorkflowStateResponse describes one state of a document kind's workflow
type WorkflowStateResponse struct {
	State      document.State   `json:"state"`
	Label      string           `json:"label"`
	Color      string           `json:"color"`
	Next       []document.State `json:"next"`
	IsTerminal bool             `json:"is_terminal"`
	IsInitial  bool             `json:"is_initial"`
}

// ToDocumentResponse converts a domain document to a response DTO
func ToDocumentResponse(registry *document.Registry, doc *document.DocumentInstance) DocumentResponse {
	return DocumentResponse{
		ID:           doc.ID,
		Kind:         doc.Kind,
		Reference:    doc.Reference,
		CurrentState: doc.CurrentState,
		StateLabel:   registry.LabelOf(doc.Kind, doc.CurrentState),
		StateColor:   registry.ColorOf(doc.Kind, doc.CurrentState),
		NextStates:   registry.NextStates(doc.Kind, doc.CurrentState),
		IsTerminal:   doc.IsTerminal(registry),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		Version:      doc.Version,
	}
}

// ToStateChangeResponses converts history entries to response DTOs
func ToStateChangeResponses(changes []document.StateChangeEvent) []StateChangeResponse {
	responses := make([]StateChangeResponse, 0, len(changes))
	for _, change := range changes {
		responses = append(responses, StateChangeResponse{
			ID:         change.ID,
			FromState:  change.FromState,
			ToState:    change.ToState,
			Actor:      change.Actor,
			Note:       change.Note,
			OccurredAt: change.OccurredAt,
		})
	}
	return responses
}
