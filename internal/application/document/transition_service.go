package document

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stitchwork/backend/internal/domain/document"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// maxTransitionRetries bounds optimistic lock retries before the conflict is
// surfaced to the caller
const maxTransitionRetries = 3

// TransitionService drives tracked documents through their workflows
type TransitionService struct {
	registry *document.Registry
	repo     document.Repository
}

// NewTransitionService creates a new TransitionService
func NewTransitionService(registry *document.Registry, repo document.Repository) *TransitionService {
	return &TransitionService{
		registry: registry,
		repo:     repo,
	}
}

// CreateDocument opens a new document at its workflow's initial state
func (s *TransitionService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*DocumentResponse, error) {
	doc, err := document.NewDocumentInstance(s.registry, req.Kind, req.Reference)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	response := ToDocumentResponse(s.registry, doc)
	return &response, nil
}

// GetDocument returns a single document with its workflow metadata
func (s *TransitionService) GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(s.registry, doc)
	return &response, nil
}

// ListDocuments returns documents of one kind
func (s *TransitionService) ListDocuments(ctx context.Context, kind document.DocumentKind, filter shared.Filter) ([]DocumentResponse, error) {
	if !s.registry.IsRegistered(kind) {
		return nil, shared.NewDomainError("UNKNOWN_KIND", "No workflow is registered for this document kind")
	}
	docs, err := s.repo.FindByKind(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]DocumentResponse, 0, len(docs))
	for idx := range docs {
		responses = append(responses, ToDocumentResponse(s.registry, &docs[idx]))
	}
	return responses, nil
}

// Transition moves a document to a new state. Concurrent writers are handled
// by reloading the aggregate and replaying the transition, up to
// maxTransitionRetries attempts. An illegal transition fails immediately
// without a retry since reloading cannot make it legal for the same caller.
func (s *TransitionService) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest) (*DocumentResponse, error) {
	var lastErr error

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		doc, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := doc.TransitionTo(s.registry, req.ToState, req.Actor, req.Note); err != nil {
			return nil, err
		}

		change := doc.LastChange()
		err = s.repo.SaveWithLock(ctx, doc, []document.StateChangeEvent{*change})
		if err == nil {
			response := ToDocumentResponse(s.registry, doc)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// GetHistory returns the full audit trail for a document, oldest first
func (s *TransitionService) GetHistory(ctx context.Context, id uuid.UUID) ([]StateChangeResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	changes, err := s.repo.FindHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToStateChangeResponses(changes), nil
}

// DescribeWorkflow returns the full transition table of a kind for UI rendering
func (s *TransitionService) DescribeWorkflow(kind document.DocumentKind) ([]WorkflowStateResponse, error) {
	if !s.registry.IsRegistered(kind) {
		return nil, shared.NewDomainError("UNKNOWN_KIND", "No workflow is registered for this document kind")
	}

	initial, err := s.registry.InitialState(kind)
	if err != nil {
		return nil, err
	}

	states := s.registry.States(kind)
	responses := make([]WorkflowStateResponse, 0, len(states))
	for _, state := range states {
		responses = append(responses, WorkflowStateResponse{
			State:      state,
			Label:      s.registry.LabelOf(kind, state),
			Color:      s.registry.ColorOf(kind, state),
			Next:       s.registry.NextStates(kind, state),
			IsTerminal: s.registry.IsTerminal(kind, state),
			IsInitial:  state == initial,
		})
	}
	return responses, nil
}
