package workflow

import "github.com/cockroachdb/errors"

// Status is a state of one of the workflow machines. The concrete status
// types in the models package convert to it via plain string conversion.
type Status string

// Edge declares one named transition: the set of source states it may fire
// from and the single target state it lands in. Guard predicates and side
// effects live with the per-entity workflow services; the machine only
// enforces the source-set rule so that InvalidTransition behaves identically
// across all machines.
type Edge struct {
	Name    string
	Sources []Status
	Target  Status
}

// Machine is a declarative transition table shared by the complaint, case
// and suspect workflows.
type Machine struct {
	name  string
	edges map[string]Edge
}

// NewMachine builds a machine from its edges. Edge names must be unique.
func NewMachine(name string, edges ...Edge) *Machine {
	m := &Machine{name: name, edges: make(map[string]Edge, len(edges))}
	for _, e := range edges {
		if _, dup := m.edges[e.Name]; dup {
			panic("workflow: duplicate edge " + e.Name + " in machine " + name)
		}
		m.edges[e.Name] = e
	}
	return m
}

// Step validates that the named transition may fire from the current status
// and returns the target status. It mutates nothing: callers apply the new
// status only after all guards have passed, so a failure never leaves a
// partial application behind.
func (m *Machine) Step(current Status, transition string) (Status, error) {
	e, ok := m.edges[transition]
	if !ok {
		return "", errors.Wrapf(ErrInvalidTransition, "%s: unknown transition %q", m.name, transition)
	}
	for _, s := range e.Sources {
		if s == current {
			return e.Target, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidTransition, "%s: cannot %s from %q", m.name, transition, current)
}
