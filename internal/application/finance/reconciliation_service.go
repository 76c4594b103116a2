package finance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stitchwork/backend/internal/domain/reconciliation"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// maxSaveRetries bounds optimistic lock retries before the conflict is
// surfaced to the caller
const maxSaveRetries = 3

// ReconciliationService drives bank reconciliation sessions: imports,
// matching, and closing a period.
type ReconciliationService struct {
	repo    reconciliation.Repository
	matcher *reconciliation.Matcher
	logger  *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(repo reconciliation.Repository, matcher *reconciliation.Matcher, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		repo:    repo,
		matcher: matcher,
		logger:  logger,
	}
}

// CreateSession opens a reconciliation period for a bank account
func (s *ReconciliationService) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error) {
	session, err := reconciliation.NewSession(req.BankAccountID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Reconciliation session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("bank_account_id", req.BankAccountID.String()),
		zap.Time("period_start", req.PeriodStart),
		zap.Time("period_end", req.PeriodEnd))

	response := ToSessionResponse(session)
	return &response, nil
}

// GetSession returns a session with its lines and items
func (s *ReconciliationService) GetSession(ctx context.Context, id uuid.UUID) (*SessionResponse, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSessionResponse(session)
	return &response, nil
}

// ListSessions returns the sessions of one bank account
func (s *ReconciliationService) ListSessions(ctx context.Context, bankAccountID uuid.UUID, filter shared.Filter) ([]SessionResponse, error) {
	sessions, err := s.repo.FindByBankAccount(ctx, bankAccountID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]SessionResponse, 0, len(sessions))
	for idx := range sessions {
		responses = append(responses, ToSessionResponse(&sessions[idx]))
	}
	return responses, nil
}

// ImportLines imports bank statement lines into a session
func (s *ReconciliationService) ImportLines(ctx context.Context, sessionID uuid.UUID, requests []ImportLineRequest) (*SessionResponse, error) {
	lines := make([]reconciliation.BankStatementLine, 0, len(requests))
	for _, req := range requests {
		lines = append(lines, reconciliation.BankStatementLine{
			LineDate:    req.LineDate,
			Amount:      req.Amount,
			Description: req.Description,
		})
	}

	session, err := s.mutate(ctx, sessionID, func(session *reconciliation.Session) error {
		return s.matcher.ImportLines(session, lines)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Statement lines imported",
		zap.String("session_id", sessionID.String()),
		zap.Int("count", len(lines)))

	response := ToSessionResponse(session)
	return &response, nil
}

// ImportItems imports internal ledger references into a session
func (s *ReconciliationService) ImportItems(ctx context.Context, sessionID uuid.UUID, requests []ImportItemRequest) (*SessionResponse, error) {
	items := make([]reconciliation.ReconciliationItem, 0, len(requests))
	for _, req := range requests {
		items = append(items, reconciliation.ReconciliationItem{
			LedgerRef: req.LedgerRef,
			Amount:    req.Amount,
			ItemDate:  req.ItemDate,
		})
	}

	session, err := s.mutate(ctx, sessionID, func(session *reconciliation.Session) error {
		return s.matcher.ImportItems(session, items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reconciliation items imported",
		zap.String("session_id", sessionID.String()),
		zap.Int("count", len(items)))

	response := ToSessionResponse(session)
	return &response, nil
}

// AutoMatch runs one deterministic matching pass over the session
func (s *ReconciliationService) AutoMatch(ctx context.Context, sessionID uuid.UUID) (*AutoMatchResponse, error) {
	var result *reconciliation.AutoMatchResult
	_, err := s.mutate(ctx, sessionID, func(session *reconciliation.Session) error {
		var matchErr error
		result, matchErr = s.matcher.AutoMatch(session)
		return matchErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Auto match pass completed",
		zap.String("session_id", sessionID.String()),
		zap.Int("matched", result.MatchedCount),
		zap.Int("unmatched_lines", len(result.UnmatchedLines)),
		zap.Int("unmatched_items", len(result.UnmatchedItems)))

	return &AutoMatchResponse{
		MatchedCount:   result.MatchedCount,
		UnmatchedLines: ToLineResponses(result.UnmatchedLines),
		UnmatchedItems: ToItemResponses(result.UnmatchedItems),
	}, nil
}

// MatchItem commits a manual pairing. A pairing with differing amounts is
// accepted but logged as an exception for the month-end review.
func (s *ReconciliationService) MatchItem(ctx context.Context, sessionID uuid.UUID, req ManualMatchRequest) (*ManualMatchResponse, error) {
	var result *reconciliation.ManualMatchResult
	_, err := s.mutate(ctx, sessionID, func(session *reconciliation.Session) error {
		var matchErr error
		result, matchErr = s.matcher.MatchItem(session, req.LineID, req.ItemID)
		return matchErr
	})
	if err != nil {
		return nil, err
	}

	if result.AmountMismatch {
		s.logger.Warn("Manual match with amount mismatch",
			zap.String("session_id", sessionID.String()),
			zap.String("line_id", req.LineID.String()),
			zap.String("item_id", req.ItemID.String()))
	}

	return &ManualMatchResponse{
		LineID:         result.LineID,
		ItemID:         result.ItemID,
		AmountMismatch: result.AmountMismatch,
	}, nil
}

// UnmatchItem dissolves the pairing a line participates in
func (s *ReconciliationService) UnmatchItem(ctx context.Context, sessionID, lineID uuid.UUID) (*SessionResponse, error) {
	session, err := s.mutate(ctx, sessionID, func(session *reconciliation.Session) error {
		return s.matcher.UnmatchItem(session, lineID)
	})
	if err != nil {
		return nil, err
	}
	response := ToSessionResponse(session)
	return &response, nil
}

// Close finalizes the session once every statement line is matched
func (s *ReconciliationService) Close(ctx context.Context, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.mutate(ctx, sessionID, func(session *reconciliation.Session) error {
		return s.matcher.Close(session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reconciliation session closed",
		zap.String("session_id", sessionID.String()),
		zap.Int("matched", session.MatchedCount()))

	response := ToSessionResponse(session)
	return &response, nil
}

// mutate loads the session, applies fn, and persists it under the optimistic
// lock. A version conflict reloads and replays fn, up to maxSaveRetries
// attempts; domain failures are returned immediately since replaying cannot
// change their outcome for the same input. When fn leaves the aggregate
// version untouched it made no change, so the session is returned without a
// write; a matching pass that finds nothing new must still succeed.
func (s *ReconciliationService) mutate(ctx context.Context, sessionID uuid.UUID, fn func(session *reconciliation.Session) error) (*reconciliation.Session, error) {
	var lastErr error

	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		session, err := s.repo.FindByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		readVersion := session.Version

		if err := fn(session); err != nil {
			return nil, err
		}
		if session.Version == readVersion {
			return session, nil
		}

		err = s.repo.SaveWithLock(ctx, session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}
