// Package lifecycle provides a generic status state machine driven by a
// transition table. Both publishable entity kinds (surveys and microclimate
// sessions) are instantiations of the same machine, so the closure property
// (everything not in the table is rejected) holds by construction.
package lifecycle

import (
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
)

// Machine validates status transitions against a fixed table.
// A status with no outgoing edges is terminal; transitions out of it,
// including re-entry to the same status, are rejected.
type Machine[S ~string] struct {
	table map[S][]S
}

// NewMachine builds a machine from a transition table. The table is the
// single source of truth; callers must never infer allowed transitions
// elsewhere.
func NewMachine[S ~string](table map[S][]S) *Machine[S] {
	return &Machine[S]{table: table}
}

// Allowed returns the valid target statuses from the given status.
// Returns nil for terminal or unknown statuses.
func (m *Machine[S]) Allowed(from S) []S {
	return m.table[from]
}

// Can reports whether the transition from → to is in the table.
func (m *Machine[S]) Can(from, to S) bool {
	for _, t := range m.table[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (m *Machine[S]) IsTerminal(s S) bool {
	return len(m.table[s]) == 0
}

// Validate returns nil if the transition is allowed, otherwise an
// *apperrors.InvalidTransitionError carrying the allowed-set for the
// current status.
func (m *Machine[S]) Validate(from, to S) error {
	if m.Can(from, to) {
		return nil
	}
	allowed := make([]string, 0, len(m.table[from]))
	for _, t := range m.table[from] {
		allowed = append(allowed, string(t))
	}
	return &apperrors.InvalidTransitionError{
		Current: string(from),
		Target:  string(to),
		Allowed: allowed,
	}
}

// Statuses returns every status that appears in the table as a source.
func (m *Machine[S]) Statuses() []S {
	out := make([]S, 0, len(m.table))
	for s := range m.table {
		out = append(out, s)
	}
	return out
}
