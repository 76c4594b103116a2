package document

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchwork/backend/internal/domain/document"
	"github.com/stitchwork/backend/internal/domain/shared"
)

type memoryDocumentRepo struct {
	docs    map[uuid.UUID]*document.DocumentInstance
	history map[uuid.UUID][]document.StateChangeEvent

	// conflictsLeft forces SaveWithLock to fail this many times before
	// succeeding, to exercise the retry path
	conflictsLeft int
	saveCalls     int
}

func newMemoryDocumentRepo() *memoryDocumentRepo {
	return &memoryDocumentRepo{
		docs:    make(map[uuid.UUID]*document.DocumentInstance),
		history: make(map[uuid.UUID][]document.StateChangeEvent),
	}
}

func (r *memoryDocumentRepo) FindByID(_ context.Context, id uuid.UUID) (*document.DocumentInstance, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (r *memoryDocumentRepo) FindByKind(_ context.Context, kind document.DocumentKind, _ shared.Filter) ([]document.DocumentInstance, error) {
	var result []document.DocumentInstance
	for _, doc := range r.docs {
		if doc.Kind == kind {
			result = append(result, *doc)
		}
	}
	return result, nil
}

func (r *memoryDocumentRepo) Create(_ context.Context, doc *document.DocumentInstance) error {
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memoryDocumentRepo) SaveWithLock(_ context.Context, doc *document.DocumentInstance, newChanges []document.StateChangeEvent) error {
	r.saveCalls++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return shared.ErrConcurrencyConflict
	}
	copied := *doc
	r.docs[doc.ID] = &copied
	r.history[doc.ID] = append(r.history[doc.ID], newChanges...)
	return nil
}

func (r *memoryDocumentRepo) FindHistory(_ context.Context, documentID uuid.UUID) ([]document.StateChangeEvent, error) {
	return r.history[documentID], nil
}

func newService(t *testing.T) (*TransitionService, *memoryDocumentRepo) {
	t.Helper()
	registry, err := document.NewDefaultRegistry()
	require.NoError(t, err)
	repo := newMemoryDocumentRepo()
	return NewTransitionService(registry, repo), repo
}

func TestTransitionService_CreateDocument(t *testing.T) {
	service, repo := newService(t)
	ctx := context.Background()

	t.Run("creates at the workflow's initial state", func(t *testing.T) {
		resp, err := service.CreateDocument(ctx, CreateDocumentRequest{
			Kind:      document.KindPurchaseOrder,
			Reference: "PO-2024-0001",
		})
		require.NoError(t, err)

		assert.Equal(t, document.StatePODraft, resp.CurrentState)
		assert.Equal(t, "Draft", resp.StateLabel)
		assert.False(t, resp.IsTerminal)
		assert.Equal(t, 1, resp.Version)
		assert.Contains(t, repo.docs, resp.ID)
	})

	t.Run("unknown kind fails", func(t *testing.T) {
		_, err := service.CreateDocument(ctx, CreateDocumentRequest{
			Kind:      document.DocumentKind("MYSTERY"),
			Reference: "X-1",
		})
		assert.Error(t, err)
	})
}

func TestTransitionService_Transition(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, service *TransitionService) uuid.UUID {
		t.Helper()
		resp, err := service.CreateDocument(ctx, CreateDocumentRequest{
			Kind:      document.KindPurchaseOrder,
			Reference: "PO-2024-0002",
		})
		require.NoError(t, err)
		return resp.ID
	}

	t.Run("legal transition persists state and history", func(t *testing.T) {
		service, repo := newService(t)
		id := create(t, service)

		resp, err := service.Transition(ctx, id, TransitionRequest{
			ToState: document.StatePOPendingApproval,
			Actor:   "dewi",
			Note:    "submitting for approval",
		})
		require.NoError(t, err)

		assert.Equal(t, document.StatePOPendingApproval, resp.CurrentState)
		assert.Equal(t, 2, resp.Version)
		require.Len(t, repo.history[id], 1)
		assert.Equal(t, document.StatePODraft, repo.history[id][0].FromState)
		assert.Equal(t, "dewi", repo.history[id][0].Actor)
	})

	t.Run("illegal transition fails without touching the store", func(t *testing.T) {
		service, repo := newService(t)
		id := create(t, service)

		_, err := service.Transition(ctx, id, TransitionRequest{
			ToState: document.StatePOReceived,
			Actor:   "dewi",
		})
		require.Error(t, err)

		var invalid *document.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)

		assert.Equal(t, document.StatePODraft, repo.docs[id].CurrentState)
		assert.Empty(t, repo.history[id])
		assert.Zero(t, repo.saveCalls)
	})

	t.Run("retries through a transient version conflict", func(t *testing.T) {
		service, repo := newService(t)
		id := create(t, service)
		repo.conflictsLeft = 2

		resp, err := service.Transition(ctx, id, TransitionRequest{
			ToState: document.StatePOPendingApproval,
			Actor:   "dewi",
		})
		require.NoError(t, err)

		assert.Equal(t, document.StatePOPendingApproval, resp.CurrentState)
		assert.Equal(t, 3, repo.saveCalls)
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		service, repo := newService(t)
		id := create(t, service)
		repo.conflictsLeft = 10

		_, err := service.Transition(ctx, id, TransitionRequest{
			ToState: document.StatePOPendingApproval,
			Actor:   "dewi",
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, maxTransitionRetries, repo.saveCalls)
	})

	t.Run("unknown document fails with not found", func(t *testing.T) {
		service, _ := newService(t)

		_, err := service.Transition(ctx, uuid.New(), TransitionRequest{
			ToState: document.StatePOPendingApproval,
			Actor:   "dewi",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTransitionService_GetHistory(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	resp, err := service.CreateDocument(ctx, CreateDocumentRequest{
		Kind:      document.KindStockTransfer,
		Reference: "TRF-2024-0001",
	})
	require.NoError(t, err)

	_, err = service.Transition(ctx, resp.ID, TransitionRequest{ToState: document.StateTransferInTransit, Actor: "agus"})
	require.NoError(t, err)
	_, err = service.Transition(ctx, resp.ID, TransitionRequest{ToState: document.StateTransferReceived, Actor: "sari"})
	require.NoError(t, err)

	history, err := service.GetHistory(ctx, resp.ID)
	require.NoError(t, err)

	require.Len(t, history, 2)
	assert.Equal(t, document.StateTransferDraft, history[0].FromState)
	assert.Equal(t, document.StateTransferInTransit, history[0].ToState)
	assert.Equal(t, document.StateTransferReceived, history[1].ToState)
}

func TestTransitionService_DescribeWorkflow(t *testing.T) {
	service, _ := newService(t)

	t.Run("returns the complete table", func(t *testing.T) {
		states, err := service.DescribeWorkflow(document.KindGarmentStage)
		require.NoError(t, err)
		require.Len(t, states, 5)

		byState := make(map[document.State]WorkflowStateResponse)
		initialCount := 0
		for _, s := range states {
			byState[s.State] = s
			if s.IsInitial {
				initialCount++
			}
		}
		assert.Equal(t, 1, initialCount)
		assert.True(t, byState[document.StateStageCutting].IsInitial)
		assert.True(t, byState[document.StateStagePacked].IsTerminal)
		assert.Contains(t, byState[document.StateStageQC].Next, document.StateStageSewing)
	})

	t.Run("unknown kind fails", func(t *testing.T) {
		_, err := service.DescribeWorkflow(document.DocumentKind("MYSTERY"))
		assert.Error(t, err)
	})
}
