package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stitchwork/backend/internal/domain/ledger"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// maxAppendRetries bounds optimistic retries of the append cycle before the
// conflict is surfaced to the caller
const maxAppendRetries = 3

// BalanceCache caches derived balances keyed by subject. A cache error is
// never fatal: reads fall back to a full replay and writes are best effort.
type BalanceCache interface {
	Get(ctx context.Context, subjectID uuid.UUID) (*ledger.Balance, error)
	Set(ctx context.Context, balance *ledger.Balance) error
	Invalidate(ctx context.Context, subjectID uuid.UUID) error
}

// LedgerService handles quantity tracking operations: registering subjects,
// appending movements, and serving derived balances through a cache.
type LedgerService struct {
	subjectRepo ledger.SubjectRepository
	txScope     TransactionScope
	cache       BalanceCache
	logger      *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(subjectRepo ledger.SubjectRepository, txScope TransactionScope, cache BalanceCache, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		subjectRepo: subjectRepo,
		txScope:     txScope,
		cache:       cache,
		logger:      logger,
	}
}

// CreateSubject registers a new tracked quantity with a unique code
func (s *LedgerService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*SubjectResponse, error) {
	existing, err := s.subjectRepo.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	subject, err := ledger.NewSubject(req.Type, req.Code, req.Unit, req.InitialQuantity)
	if err != nil {
		return nil, err
	}
	if !req.MinQuantity.IsZero() {
		if err := subject.SetMinQuantity(req.MinQuantity); err != nil {
			return nil, err
		}
	}

	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		return nil, err
	}

	s.logger.Info("Ledger subject created",
		zap.String("subject_id", subject.ID.String()),
		zap.String("code", subject.Code),
		zap.String("type", string(subject.Type)))

	response := ToSubjectResponse(subject)
	return &response, nil
}

// GetSubject returns a subject by ID
func (s *LedgerService) GetSubject(ctx context.Context, id uuid.UUID) (*SubjectResponse, error) {
	subject, err := s.subjectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSubjectResponse(subject)
	return &response, nil
}

// GetSubjectByCode returns a subject by its unique code
func (s *LedgerService) GetSubjectByCode(ctx context.Context, code string) (*SubjectResponse, error) {
	subject, err := s.subjectRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	response := ToSubjectResponse(subject)
	return &response, nil
}

// SetReserved marks or clears the reserved flag on a fabric roll
func (s *LedgerService) SetReserved(ctx context.Context, id uuid.UUID, reserved bool) (*SubjectResponse, error) {
	subject, err := s.subjectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subject.SetReserved(reserved)
	if err := s.subjectRepo.Save(ctx, subject); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, id)

	response := ToSubjectResponse(subject)
	return &response, nil
}

// AppendEvent appends one movement to a subject's log and returns the balance
// after it. The sequence assignment and the insert run in one transaction;
// a concurrent writer claiming the same sequence surfaces as a conflict, and
// the whole read-check-write cycle is replayed up to maxAppendRetries times.
// Domain failures are returned immediately since replaying cannot change
// their outcome for the same input.
func (s *LedgerService) AppendEvent(ctx context.Context, subjectID uuid.UUID, req AppendEventRequest) (*BalanceResponse, error) {
	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	event, err := ledger.NewEvent(subjectID, req.Type, req.Quantity, occurredAt, req.Actor, req.Reference)
	if err != nil {
		return nil, err
	}

	var balance *ledger.Balance
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			quantityLedger := ledger.NewQuantityLedger(repos.SubjectRepo(), repos.EventRepo())
			var appendErr error
			balance, appendErr = quantityLedger.Append(ctx, event)
			return appendErr
		})
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			break
		}
	}
	if err != nil {
		var insufficient *ledger.InsufficientQuantityError
		if errors.As(err, &insufficient) {
			s.logger.Warn("Movement rejected, insufficient quantity",
				zap.String("subject_id", subjectID.String()),
				zap.String("requested", insufficient.Requested.String()),
				zap.String("available", insufficient.Available.String()))
		}
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, balance); cacheErr != nil {
		s.logger.Warn("Failed to refresh balance cache",
			zap.String("subject_id", subjectID.String()),
			zap.Error(cacheErr))
	}

	s.logger.Info("Ledger event appended",
		zap.String("subject_id", subjectID.String()),
		zap.String("type", string(event.Type)),
		zap.String("quantity", event.Quantity.String()),
		zap.Int64("sequence", event.Sequence),
		zap.String("remaining", balance.Remaining.String()))

	response := ToBalanceResponse(balance)
	return &response, nil
}

// GetBalance returns the derived balance of a subject, read through the cache
func (s *LedgerService) GetBalance(ctx context.Context, subjectID uuid.UUID) (*BalanceResponse, error) {
	cached, err := s.cache.Get(ctx, subjectID)
	if err != nil {
		s.logger.Warn("Balance cache read failed",
			zap.String("subject_id", subjectID.String()),
			zap.Error(err))
	}
	if cached != nil {
		response := ToBalanceResponse(cached)
		return &response, nil
	}

	var balance *ledger.Balance
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		quantityLedger := ledger.NewQuantityLedger(repos.SubjectRepo(), repos.EventRepo())
		var computeErr error
		balance, computeErr = quantityLedger.ComputeBalance(ctx, subjectID)
		return computeErr
	})
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, balance); cacheErr != nil {
		s.logger.Warn("Failed to populate balance cache",
			zap.String("subject_id", subjectID.String()),
			zap.Error(cacheErr))
	}

	response := ToBalanceResponse(balance)
	return &response, nil
}

// GetHistory returns a subject's full event log in replay order
func (s *LedgerService) GetHistory(ctx context.Context, subjectID uuid.UUID) ([]EventResponse, error) {
	if _, err := s.subjectRepo.FindByID(ctx, subjectID); err != nil {
		return nil, err
	}

	var events []ledger.Event
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var findErr error
		events, findErr = repos.EventRepo().FindBySubject(ctx, subjectID)
		return findErr
	})
	if err != nil {
		return nil, err
	}
	return ToEventResponses(events), nil
}

func (s *LedgerService) invalidateCache(ctx context.Context, subjectID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, subjectID); err != nil {
		s.logger.Warn("Failed to invalidate balance cache",
			zap.String("subject_id", subjectID.String()),
			zap.Error(err))
	}
}
