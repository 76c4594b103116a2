package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// StateChangeEvent is an immutable record of a single status transition.
// The full history of a document is the append-only sequence of these events.
type StateChangeEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index:idx_state_change_document"`
	FromState  State     `gorm:"type:varchar(40);not null"`
	ToState    State     `gorm:"type:varchar(40);not null"`
	Actor      string    `gorm:"type:varchar(100);not null"`
	Note       string    `gorm:"type:varchar(500)"`
	OccurredAt time.Time `gorm:"type:timestamptz;not null;index:idx_state_change_document"`
}

// TableName returns the table name for GORM
func (StateChangeEvent) TableName() string {
	return "document_state_changes"
}

// DocumentInstance tracks the current state of one business document.
// The document's content (items, amounts, parties) is owned by its originating
// module; this aggregate only validates and records status transitions.
type DocumentInstance struct {
	shared.BaseAggregateRoot
	Kind         DocumentKind       `gorm:"type:varchar(40);not null;index"`
	Reference    string             `gorm:"type:varchar(100);not null;index"` // document number in the owning module
	CurrentState State              `gorm:"type:varchar(40);not null"`
	History      []StateChangeEvent `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentInstance) TableName() string {
	return "document_instances"
}

// NewDocumentInstance creates a document in its kind's initial state
func NewDocumentInstance(registry *Registry, kind DocumentKind, reference string) (*DocumentInstance, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Document reference cannot be empty")
	}
	initial, err := registry.InitialState(kind)
	if err != nil {
		return nil, shared.NewDomainError("UNKNOWN_KIND", err.Error())
	}

	return &DocumentInstance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Reference:         reference,
		CurrentState:      initial,
		History:           make([]StateChangeEvent, 0),
	}, nil
}

// TransitionTo moves the document to a new state after validating the edge
// against the registry. On success the change is appended to the history and
// the version is bumped; persisting both is the caller's transaction.
func (d *DocumentInstance) TransitionTo(registry *Registry, to State, actor, note string) error {
	if err := registry.AssertTransition(d.Kind, d.CurrentState, to); err != nil {
		return err
	}

	change := StateChangeEvent{
		ID:         uuid.New(),
		DocumentID: d.ID,
		FromState:  d.CurrentState,
		ToState:    to,
		Actor:      actor,
		Note:       note,
		OccurredAt: time.Now(),
	}

	d.CurrentState = to
	d.History = append(d.History, change)
	d.UpdatedAt = change.OccurredAt
	d.IncrementVersion()

	return nil
}

// IsTerminal returns true if the document has reached a terminal state
func (d *DocumentInstance) IsTerminal(registry *Registry) bool {
	return registry.IsTerminal(d.Kind, d.CurrentState)
}

// LastChange returns the most recent state change, or nil for a fresh document
func (d *DocumentInstance) LastChange() *StateChangeEvent {
	if len(d.History) == 0 {
		return nil
	}
	return &d.History[len(d.History)-1]
}
