package reconciliation

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchwork/backend/internal/domain/shared"
)

// MatcherConfig tunes the automatic matching pass
type MatcherConfig struct {
	// DateWindowDays is how far a line's date may sit from an item's date
	// and still auto-match (default ±3 days)
	DateWindowDays int
	// AmountTolerance is the largest amount difference treated as exact
	// (default 0.01, one cent)
	AmountTolerance decimal.Decimal
}

// DefaultMatcherConfig returns the standard matching tolerances
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		DateWindowDays:  3,
		AmountTolerance: decimal.NewFromFloat(0.01),
	}
}

// AutoMatchResult reports the outcome of one automatic matching pass
type AutoMatchResult struct {
	MatchedCount   int                  `json:"matched_count"`
	UnmatchedLines []BankStatementLine  `json:"unmatched_lines"`
	UnmatchedItems []ReconciliationItem `json:"unmatched_items"`
}

// ManualMatchResult reports a committed manual pairing
type ManualMatchResult struct {
	LineID         uuid.UUID `json:"line_id"`
	ItemID         uuid.UUID `json:"item_id"`
	AmountMismatch bool      `json:"amount_mismatch"`
}

// Matcher pairs bank statement lines with reconciliation items. All methods
// mutate the session in memory only; the caller persists the session in one
// transaction per operation.
type Matcher struct {
	config MatcherConfig
}

// NewMatcher creates a matcher with the given configuration
func NewMatcher(config MatcherConfig) *Matcher {
	if config.DateWindowDays <= 0 {
		config.DateWindowDays = 3
	}
	if config.AmountTolerance.LessThanOrEqual(decimal.Zero) {
		config.AmountTolerance = decimal.NewFromFloat(0.01)
	}
	return &Matcher{config: config}
}

// ImportLines appends bank statement lines to the session. The first import
// moves an OPEN session to IN_PROGRESS.
func (m *Matcher) ImportLines(session *Session, lines []BankStatementLine) error {
	if err := session.ensureMutable(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Import requires at least one statement line")
	}

	for idx := range lines {
		if lines[idx].ID == uuid.Nil {
			lines[idx].ID = uuid.New()
		}
		lines[idx].SessionID = session.ID
		lines[idx].MatchedItemID = nil
		session.Lines = append(session.Lines, lines[idx])
	}

	session.start()
	session.Touch()
	session.IncrementVersion()
	return nil
}

// ImportItems appends internal ledger references to the session, under the
// same lifecycle rules as ImportLines.
func (m *Matcher) ImportItems(session *Session, items []ReconciliationItem) error {
	if err := session.ensureMutable(); err != nil {
		return err
	}
	if len(items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Import requires at least one reconciliation item")
	}

	for idx := range items {
		if items[idx].ID == uuid.Nil {
			items[idx].ID = uuid.New()
		}
		items[idx].SessionID = session.ID
		items[idx].MatchedLineID = nil
		items[idx].MatchType = ""
		session.Items = append(session.Items, items[idx])
	}

	session.start()
	session.Touch()
	session.IncrementVersion()
	return nil
}

// AutoMatch runs one deterministic greedy pass over everything still
// unmatched. Items are processed in ascending (date, id) order; each is paired
// with the eligible line whose date sits closest, ties broken by smallest line
// id. Eligible means unmatched, amount equal within tolerance, and date within
// the window. Existing pairs are never revisited, so re-running the pass on
// the same data is a no-op for them.
func (m *Matcher) AutoMatch(session *Session) (*AutoMatchResult, error) {
	if err := session.ensureMutable(); err != nil {
		return nil, err
	}

	candidates := make([]*ReconciliationItem, 0, len(session.Items))
	for idx := range session.Items {
		if !session.Items[idx].IsMatched() {
			candidates = append(candidates, &session.Items[idx])
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].ItemDate.Equal(candidates[j].ItemDate) {
			return candidates[i].ItemDate.Before(candidates[j].ItemDate)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	matched := 0
	for _, item := range candidates {
		line := m.bestLineFor(session, item)
		if line == nil {
			continue
		}
		line.MatchedItemID = &item.ID
		item.MatchedLineID = &line.ID
		item.MatchType = MatchTypeAuto
		item.AmountMismatch = false
		matched++
	}

	if matched > 0 {
		session.Touch()
		session.IncrementVersion()
	}

	return &AutoMatchResult{
		MatchedCount:   matched,
		UnmatchedLines: session.UnmatchedLines(),
		UnmatchedItems: session.UnmatchedItems(),
	}, nil
}

// bestLineFor returns the closest eligible unmatched line for an item, or nil
func (m *Matcher) bestLineFor(session *Session, item *ReconciliationItem) *BankStatementLine {
	window := time.Duration(m.config.DateWindowDays) * 24 * time.Hour

	var best *BankStatementLine
	var bestDelta time.Duration

	for idx := range session.Lines {
		line := &session.Lines[idx]
		if line.IsMatched() {
			continue
		}
		if line.Amount.Sub(item.Amount).Abs().GreaterThan(m.config.AmountTolerance) {
			continue
		}
		delta := line.LineDate.Sub(item.ItemDate)
		if delta < 0 {
			delta = -delta
		}
		if delta > window {
			continue
		}
		if best == nil || delta < bestDelta ||
			(delta == bestDelta && line.ID.String() < best.ID.String()) {
			best = line
			bestDelta = delta
		}
	}
	return best
}

// MatchItem commits a manual pairing. Either side already being paired fails
// with AlreadyMatchedError. An amount mismatch is permitted but flagged on
// the item so the exception stays visible.
func (m *Matcher) MatchItem(session *Session, lineID, itemID uuid.UUID) (*ManualMatchResult, error) {
	if err := session.ensureMutable(); err != nil {
		return nil, err
	}

	line := session.findLine(lineID)
	if line == nil {
		return nil, shared.ErrNotFound
	}
	item := session.findItem(itemID)
	if item == nil {
		return nil, shared.ErrNotFound
	}
	if line.IsMatched() || item.IsMatched() {
		return nil, &AlreadyMatchedError{LineID: lineID, ItemID: itemID}
	}

	mismatch := !line.Amount.Sub(item.Amount).Abs().LessThanOrEqual(m.config.AmountTolerance)

	line.MatchedItemID = &item.ID
	item.MatchedLineID = &line.ID
	item.MatchType = MatchTypeManual
	item.AmountMismatch = mismatch

	session.Touch()
	session.IncrementVersion()

	return &ManualMatchResult{
		LineID:         lineID,
		ItemID:         itemID,
		AmountMismatch: mismatch,
	}, nil
}

// UnmatchItem clears the pairing a line participates in
func (m *Matcher) UnmatchItem(session *Session, lineID uuid.UUID) error {
	if err := session.ensureMutable(); err != nil {
		return err
	}

	line := session.findLine(lineID)
	if line == nil {
		return shared.ErrNotFound
	}
	if !line.IsMatched() {
		return shared.NewDomainError("NOT_MATCHED", "Statement line is not matched")
	}

	item := session.findItem(*line.MatchedItemID)
	if item != nil {
		item.MatchedLineID = nil
		item.MatchType = ""
		item.AmountMismatch = false
	}
	line.MatchedItemID = nil

	session.Touch()
	session.IncrementVersion()
	return nil
}

// Close finalizes the period. Any unmatched line blocks the close; afterwards
// every mutation on the session fails with SessionClosedError.
func (m *Matcher) Close(session *Session) error {
	if err := session.ensureMutable(); err != nil {
		return err
	}

	unmatched := session.UnmatchedLines()
	if len(unmatched) > 0 {
		return &UnbalancedReconciliationError{
			SessionID:      session.ID,
			UnmatchedLines: len(unmatched),
		}
	}

	now := time.Now()
	session.State = SessionStateClosed
	session.ClosedAt = &now
	session.UpdatedAt = now
	session.IncrementVersion()
	return nil
}
