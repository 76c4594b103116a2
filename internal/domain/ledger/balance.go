package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceStatus is the derived status of a subject's balance
type BalanceStatus string

const (
	// Fabric roll statuses
	StatusAvailable BalanceStatus = "AVAILABLE"
	StatusReserved  BalanceStatus = "RESERVED"
	StatusDepleted  BalanceStatus = "DEPLETED"

	// SKU stock statuses
	StatusInStock    BalanceStatus = "IN_STOCK"
	StatusLowStock   BalanceStatus = "LOW_STOCK"
	StatusOutOfStock BalanceStatus = "OUT_OF_STOCK"
)

// Balance is a derived view of a subject's remaining quantity. It is never a
// source of truth: it is always reproducible by replaying the subject's events.
type Balance struct {
	SubjectID uuid.UUID       `json:"subject_id"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    BalanceStatus   `json:"status"`
}

// SubjectFlags carries the per-subject inputs to status derivation
type SubjectFlags struct {
	Reserved    bool
	MinQuantity decimal.Decimal
}

// StatusFunc derives a balance status from the remaining quantity and the
// subject's flags. It must be pure.
type StatusFunc func(remaining decimal.Decimal, flags SubjectFlags) BalanceStatus

// FabricRollStatus derives the status of a fabric roll
func FabricRollStatus(remaining decimal.Decimal, flags SubjectFlags) BalanceStatus {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return StatusDepleted
	}
	if flags.Reserved {
		return StatusReserved
	}
	return StatusAvailable
}

// SKUStockStatus derives the status of a stock-keeping unit at a warehouse
func SKUStockStatus(remaining decimal.Decimal, flags SubjectFlags) BalanceStatus {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return StatusOutOfStock
	}
	if flags.MinQuantity.GreaterThan(decimal.Zero) && remaining.LessThan(flags.MinQuantity) {
		return StatusLowStock
	}
	return StatusInStock
}

// statusFuncFor maps each subject type to its status derivation
func statusFuncFor(subjectType SubjectType) StatusFunc {
	switch subjectType {
	case SubjectTypeSKUStock:
		return SKUStockStatus
	default:
		return FabricRollStatus
	}
}

// Replay computes the remaining quantity from the initial quantity and the
// full event list, in (OccurredAt, Sequence) order. The running total is
// clamped at zero after every step to absorb accumulated rounding; a genuine
// shortfall is rejected at append time, never hidden here. The result is
// rounded to two decimal places.
//
// Replay is a pure function: the same input always yields the same output,
// which is what makes the derived balance safe to cache, drop, and recompute.
func Replay(initial decimal.Decimal, events []Event) decimal.Decimal {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
		}
		return ordered[i].Sequence < ordered[j].Sequence
	})

	running := initial
	for _, event := range ordered {
		running = running.Add(event.Delta())
		if running.IsNegative() {
			running = decimal.Zero
		}
	}
	return running.Round(2)
}
