package ledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchwork/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories for exercising the ledger without a database

type memorySubjectRepo struct {
	subjects map[uuid.UUID]*Subject
}

func newMemorySubjectRepo() *memorySubjectRepo {
	return &memorySubjectRepo{subjects: make(map[uuid.UUID]*Subject)}
}

func (r *memorySubjectRepo) FindByID(_ context.Context, id uuid.UUID) (*Subject, error) {
	subject, ok := r.subjects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *subject
	return &copied, nil
}

func (r *memorySubjectRepo) FindByCode(_ context.Context, code string) (*Subject, error) {
	for _, subject := range r.subjects {
		if subject.Code == code {
			copied := *subject
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memorySubjectRepo) Create(_ context.Context, subject *Subject) error {
	r.subjects[subject.ID] = subject
	return nil
}

func (r *memorySubjectRepo) Save(_ context.Context, subject *Subject) error {
	r.subjects[subject.ID] = subject
	return nil
}

type memoryEventRepo struct {
	events []Event
}

func (r *memoryEventRepo) Append(_ context.Context, event *Event) error {
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryEventRepo) FindBySubject(_ context.Context, subjectID uuid.UUID) ([]Event, error) {
	found := make([]Event, 0)
	for _, event := range r.events {
		if event.SubjectID == subjectID {
			found = append(found, event)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if !found[i].OccurredAt.Equal(found[j].OccurredAt) {
			return found[i].OccurredAt.Before(found[j].OccurredAt)
		}
		return found[i].Sequence < found[j].Sequence
	})
	return found, nil
}

func (r *memoryEventRepo) NextSequence(_ context.Context, subjectID uuid.UUID) (int64, error) {
	var max int64
	for _, event := range r.events {
		if event.SubjectID == subjectID && event.Sequence > max {
			max = event.Sequence
		}
	}
	return max + 1, nil
}

func newTestLedger(t *testing.T, initial string) (*QuantityLedger, *Subject, *memoryEventRepo) {
	t.Helper()
	subjects := newMemorySubjectRepo()
	events := &memoryEventRepo{}

	subject, err := NewSubject(SubjectTypeFabricRoll, "ROLL-2024-0001", "m", qty(initial))
	require.NoError(t, err)
	require.NoError(t, subjects.Create(context.Background(), subject))

	return NewQuantityLedger(subjects, events), subject, events
}

func appendEvent(t *testing.T, l *QuantityLedger, subjectID uuid.UUID, eventType EventType, quantity string) (*Balance, error) {
	t.Helper()
	event, err := NewEvent(subjectID, eventType, qty(quantity), time.Now(), "tester", "DOC-7")
	require.NoError(t, err)
	return l.Append(context.Background(), event)
}

func TestQuantityLedger_Append(t *testing.T) {
	t.Run("roll cut twice then adjusted matches replay", func(t *testing.T) {
		l, subject, _ := newTestLedger(t, "100.00")

		_, err := appendEvent(t, l, subject.ID, EventTypeConsume, "30")
		require.NoError(t, err)
		_, err = appendEvent(t, l, subject.ID, EventTypeConsume, "40")
		require.NoError(t, err)
		balance, err := appendEvent(t, l, subject.ID, EventTypeAdjust, "5")
		require.NoError(t, err)

		assert.True(t, qty("35.00").Equal(balance.Remaining), "got %s", balance.Remaining)
		assert.Equal(t, StatusAvailable, balance.Status)
	})

	t.Run("rejects consume beyond available and does not persist", func(t *testing.T) {
		l, subject, events := newTestLedger(t, "20")

		_, err := appendEvent(t, l, subject.ID, EventTypeConsume, "25")
		require.Error(t, err)

		var insErr *InsufficientQuantityError
		require.ErrorAs(t, err, &insErr)
		assert.Equal(t, subject.ID, insErr.SubjectID)
		assert.True(t, qty("25").Equal(insErr.Requested))
		assert.True(t, qty("20").Equal(insErr.Available))
		assert.Empty(t, events.events, "rejected event must not be persisted")

		balance, err := l.ComputeBalance(context.Background(), subject.ID)
		require.NoError(t, err)
		assert.True(t, qty("20").Equal(balance.Remaining))
	})

	t.Run("tolerates rounding-scale overshoot", func(t *testing.T) {
		l, subject, _ := newTestLedger(t, "10.00")

		balance, err := appendEvent(t, l, subject.ID, EventTypeConsume, "10.01")
		require.NoError(t, err)
		assert.True(t, decimal.Zero.Equal(balance.Remaining), "got %s", balance.Remaining)
		assert.Equal(t, StatusDepleted, balance.Status)
	})

	t.Run("rejects overshoot just past tolerance", func(t *testing.T) {
		l, subject, _ := newTestLedger(t, "10.00")

		_, err := appendEvent(t, l, subject.ID, EventTypeConsume, "10.02")
		var insErr *InsufficientQuantityError
		require.ErrorAs(t, err, &insErr)
	})

	t.Run("adjust may force the balance down past zero", func(t *testing.T) {
		l, subject, _ := newTestLedger(t, "10")

		balance, err := appendEvent(t, l, subject.ID, EventTypeAdjust, "-15")
		require.NoError(t, err)
		assert.True(t, decimal.Zero.Equal(balance.Remaining))
		assert.Equal(t, StatusDepleted, balance.Status)
	})

	t.Run("assigns monotonically increasing sequence numbers", func(t *testing.T) {
		l, subject, events := newTestLedger(t, "100")

		for i := 0; i < 3; i++ {
			_, err := appendEvent(t, l, subject.ID, EventTypeConsume, "10")
			require.NoError(t, err)
		}

		require.Len(t, events.events, 3)
		for i, event := range events.events {
			assert.Equal(t, int64(i+1), event.Sequence)
		}
	})

	t.Run("transfer out then in across two subjects", func(t *testing.T) {
		subjects := newMemorySubjectRepo()
		events := &memoryEventRepo{}
		l := NewQuantityLedger(subjects, events)

		source, err := NewSubject(SubjectTypeSKUStock, "TSHIRT-M@WH1", "pcs", qty("50"))
		require.NoError(t, err)
		require.NoError(t, subjects.Create(context.Background(), source))

		target, err := NewSubject(SubjectTypeSKUStock, "TSHIRT-M@WH2", "pcs", qty("0"))
		require.NoError(t, err)
		require.NoError(t, subjects.Create(context.Background(), target))

		out, err := appendEvent(t, l, source.ID, EventTypeTransferOut, "20")
		require.NoError(t, err)
		in, err := appendEvent(t, l, target.ID, EventTypeTransferIn, "20")
		require.NoError(t, err)

		assert.True(t, qty("30").Equal(out.Remaining))
		assert.True(t, qty("20").Equal(in.Remaining))
	})

	t.Run("fails for unknown subject", func(t *testing.T) {
		l, _, _ := newTestLedger(t, "10")
		_, err := appendEvent(t, l, uuid.New(), EventTypeReceive, "5")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestQuantityLedger_ComputeBalance(t *testing.T) {
	t.Run("is deterministic across calls", func(t *testing.T) {
		l, subject, _ := newTestLedger(t, "100")
		_, err := appendEvent(t, l, subject.ID, EventTypeConsume, "33.33")
		require.NoError(t, err)

		first, err := l.ComputeBalance(context.Background(), subject.ID)
		require.NoError(t, err)
		second, err := l.ComputeBalance(context.Background(), subject.ID)
		require.NoError(t, err)

		assert.True(t, first.Remaining.Equal(second.Remaining))
		assert.Equal(t, first.Status, second.Status)
	})

	t.Run("reserved roll with remaining quantity", func(t *testing.T) {
		subjects := newMemorySubjectRepo()
		events := &memoryEventRepo{}
		l := NewQuantityLedger(subjects, events)

		subject, err := NewSubject(SubjectTypeFabricRoll, "ROLL-2024-0002", "m", qty("60"))
		require.NoError(t, err)
		subject.SetReserved(true)
		require.NoError(t, subjects.Create(context.Background(), subject))

		balance, err := l.ComputeBalance(context.Background(), subject.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusReserved, balance.Status)
	})

	t.Run("sku below threshold reports low stock", func(t *testing.T) {
		subjects := newMemorySubjectRepo()
		events := &memoryEventRepo{}
		l := NewQuantityLedger(subjects, events)

		subject, err := NewSubject(SubjectTypeSKUStock, "POLO-L@WH1", "pcs", qty("100"))
		require.NoError(t, err)
		require.NoError(t, subject.SetMinQuantity(qty("25")))
		require.NoError(t, subjects.Create(context.Background(), subject))

		_, err = appendEvent(t, l, subject.ID, EventTypeConsume, "80")
		require.NoError(t, err)

		balance, err := l.ComputeBalance(context.Background(), subject.ID)
		require.NoError(t, err)
		assert.True(t, qty("20").Equal(balance.Remaining))
		assert.Equal(t, StatusLowStock, balance.Status)
	})
}

func TestQuantityLedger_RandomSequenceNeverNegative(t *testing.T) {
	// Any mix of appends that passes validation must leave the balance
	// non-negative. Over-consumption is rejected, not absorbed.
	l, subject, _ := newTestLedger(t, "0")

	steps := []struct {
		eventType EventType
		quantity  string
	}{
		{EventTypeReceive, "55.5"},
		{EventTypeConsume, "10.25"},
		{EventTypeTransferOut, "20"},
		{EventTypeConsume, "40"}, // would go negative: rejected
		{EventTypeReceive, "14.75"},
		{EventTypeConsume, "40"},
		{EventTypeConsume, "0.01"}, // within tolerance of zero
	}

	for _, step := range steps {
		balance, err := appendEvent(t, l, subject.ID, step.eventType, step.quantity)
		if err != nil {
			var insErr *InsufficientQuantityError
			require.ErrorAs(t, err, &insErr)
			continue
		}
		assert.False(t, balance.Remaining.IsNegative(),
			"balance went negative after %s %s", step.eventType, step.quantity)
	}

	final, err := l.ComputeBalance(context.Background(), subject.ID)
	require.NoError(t, err)
	assert.False(t, final.Remaining.IsNegative())
}
