package document

import (
	"fmt"
	"sort"
)

// DocumentKind identifies a category of business document governed by its own
// finite state machine.
type DocumentKind string

const (
	KindPurchaseOrder    DocumentKind = "PURCHASE_ORDER"
	KindCutPlan          DocumentKind = "CUT_PLAN"
	KindSubcontractOrder DocumentKind = "SUBCONTRACT_ORDER"
	KindStockTransfer    DocumentKind = "STOCK_TRANSFER"
	KindGarmentStage     DocumentKind = "GARMENT_STAGE"
)

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is one of the built-in document kinds
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindPurchaseOrder, KindCutPlan, KindSubcontractOrder, KindStockTransfer, KindGarmentStage:
		return true
	}
	return false
}

// State is a status value within a document kind's state machine
type State string

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// StateSpec declares a single state: its outgoing edges and the presentation
// metadata carried alongside it. Label and Color are passed through to callers
// untouched; the core never interprets them.
type StateSpec struct {
	Label string
	Color string
	Next  []State
}

// IsTerminal returns true if the state has no outgoing edges
func (s StateSpec) IsTerminal() bool {
	return len(s.Next) == 0
}

// TransitionTable declares the full state machine for one document kind:
// the initial state and the adjacency map of every state.
type TransitionTable struct {
	Initial State
	States  map[State]StateSpec
}

// Validate checks the table for internal consistency: the initial state must be
// declared, and every edge must point at a declared state.
func (t TransitionTable) Validate() error {
	if len(t.States) == 0 {
		return fmt.Errorf("transition table has no states")
	}
	if _, ok := t.States[t.Initial]; !ok {
		return fmt.Errorf("initial state %q is not declared", t.Initial)
	}
	for state, spec := range t.States {
		for _, next := range spec.Next {
			if _, ok := t.States[next]; !ok {
				return fmt.Errorf("state %q has edge to undeclared state %q", state, next)
			}
			if next == state {
				return fmt.Errorf("state %q has a self edge", state)
			}
		}
	}
	return nil
}

// Allows returns true if the table permits a transition from one state to another
func (t TransitionTable) Allows(from, to State) bool {
	spec, ok := t.States[from]
	if !ok {
		return false
	}
	for _, next := range spec.Next {
		if next == to {
			return true
		}
	}
	return false
}

// NextStates returns the allowed successor states of a state, sorted for
// deterministic output. Unknown states yield an empty slice.
func (t TransitionTable) NextStates(from State) []State {
	spec, ok := t.States[from]
	if !ok {
		return []State{}
	}
	next := make([]State, len(spec.Next))
	copy(next, spec.Next)
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

// TerminalStates returns all states without outgoing edges, sorted
func (t TransitionTable) TerminalStates() []State {
	terminal := make([]State, 0)
	for state, spec := range t.States {
		if spec.IsTerminal() {
			terminal = append(terminal, state)
		}
	}
	sort.Slice(terminal, func(i, j int) bool { return terminal[i] < terminal[j] })
	return terminal
}
