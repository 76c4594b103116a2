package document

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stitchwork/backend/internal/domain/shared"
)

// DuplicateKindError is returned when a document kind is registered twice
type DuplicateKindError struct {
	Kind DocumentKind
}

// Error implements the error interface
func (e *DuplicateKindError) Error() string {
	return fmt.Sprintf("document kind %s is already registered", e.Kind)
}

// InvalidTransitionError is returned when a transition is not permitted by the
// kind's transition table. Allowed carries the legal successor states so the
// caller can report or render them.
type InvalidTransitionError struct {
	Kind    DocumentKind
	From    State
	To      State
	Allowed []State
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for %s: %s -> %s (allowed: %v)", e.Kind, e.From, e.To, e.Allowed)
}

// Registry is a table-driven transition validator shared by every document kind.
// One instance is built at startup with each kind's table registered exactly once.
// All query methods are pure; persisting the new state is the caller's job, in
// the same transaction as the check.
type Registry struct {
	mu     sync.RWMutex
	tables map[DocumentKind]TransitionTable
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[DocumentKind]TransitionTable),
	}
}

// Register binds a kind to its transition table. Registering the same kind
// twice returns DuplicateKindError; an inconsistent table is rejected outright.
func (r *Registry) Register(kind DocumentKind, table TransitionTable) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("invalid table for kind %s: %w", kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[kind]; exists {
		return &DuplicateKindError{Kind: kind}
	}
	r.tables[kind] = table
	return nil
}

// IsRegistered returns true if the kind has a table
func (r *Registry) IsRegistered(kind DocumentKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[kind]
	return ok
}

// Kinds returns all registered kinds
func (r *Registry) Kinds() []DocumentKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]DocumentKind, 0, len(r.tables))
	for kind := range r.tables {
		kinds = append(kinds, kind)
	}
	return kinds
}

// InitialState returns the initial state of a kind
func (r *Registry) InitialState(kind DocumentKind) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[kind]
	if !ok {
		return "", shared.NewDomainError("UNKNOWN_KIND", "No workflow is registered for this document kind")
	}
	return table.Initial, nil
}

// CanTransition returns true if the kind's table permits the transition
func (r *Registry) CanTransition(kind DocumentKind, from, to State) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[kind]
	if !ok {
		return false
	}
	return table.Allows(from, to)
}

// NextStates returns the allowed successor states, sorted. Unknown kinds or
// states yield an empty slice.
func (r *Registry) NextStates(kind DocumentKind, from State) []State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[kind]
	if !ok {
		return []State{}
	}
	return table.NextStates(from)
}

// States returns every declared state of a kind, sorted. Unknown kinds yield
// an empty slice.
func (r *Registry) States(kind DocumentKind) []State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[kind]
	if !ok {
		return []State{}
	}
	states := make([]State, 0, len(table.States))
	for state := range table.States {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

// IsTerminal returns true if the state has no outgoing edges in the kind's table
func (r *Registry) IsTerminal(kind DocumentKind, state State) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[kind]
	if !ok {
		return false
	}
	spec, ok := table.States[state]
	if !ok {
		return false
	}
	return spec.IsTerminal()
}

// LabelOf returns the display label attached to a state, or the state name
// itself when the kind or state is unknown
func (r *Registry) LabelOf(kind DocumentKind, state State) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if table, ok := r.tables[kind]; ok {
		if spec, ok := table.States[state]; ok && spec.Label != "" {
			return spec.Label
		}
	}
	return string(state)
}

// ColorOf returns the color token attached to a state, or empty when unknown
func (r *Registry) ColorOf(kind DocumentKind, state State) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if table, ok := r.tables[kind]; ok {
		if spec, ok := table.States[state]; ok {
			return spec.Color
		}
	}
	return ""
}

// AssertTransition succeeds silently if the transition is permitted and returns
// InvalidTransitionError otherwise. It has no side effects: the caller persists
// the new state and the change event in the same transaction as this check.
func (r *Registry) AssertTransition(kind DocumentKind, from, to State) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[kind]
	if !ok {
		return shared.NewDomainError("UNKNOWN_KIND", "No workflow is registered for this document kind")
	}
	if table.Allows(from, to) {
		return nil
	}
	return &InvalidTransitionError{
		Kind:    kind,
		From:    from,
		To:      to,
		Allowed: table.NextStates(from),
	}
}
