// Package plan decides, per resource, what the executor must do to make
// the control plane match the declarations: create, update, delete, or
// nothing. Decisions come from diffing evaluated desired arguments against
// the recorded state of the previous run.
package plan

import (
	"github.com/r3labs/diff"

	"github.com/netweave/netweave/internal/dag"
)

// Action is the operation planned for one resource.
type Action int

const (
	NoOp Action = iota
	Create
	Update
	Delete
)

// String returns the lowercase action name.
func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "no-op"
	}
}

// Symbol returns the single-character plan rendering prefix.
func (a Action) Symbol() string {
	switch a {
	case Create:
		return "+"
	case Update:
		return "~"
	case Delete:
		return "-"
	default:
		return " "
	}
}

// Change is the planned action for a single node.
type Change struct {
	Node   *dag.Node
	Action Action
	// Diff lists the attribute-level changes behind an Update.
	Diff diff.Changelog
	// Reason is a human-readable justification ("not in state", "depends
	// on values known after apply", ...).
	Reason string
	// Desired holds the evaluated desired arguments, where known.
	Desired map[string]any
}

// Plan is an ordered list of changes; the order is a topological order of
// the graph (reverse topological for destroy plans).
type Plan struct {
	Changes []*Change
	// Destroy marks a plan produced for a destroy run; the executor walks
	// the reversed graph for these.
	Destroy bool
}

// Change returns the planned change for an address, or nil.
func (p *Plan) Change(address string) *Change {
	for _, c := range p.Changes {
		if c.Node.ID == address {
			return c
		}
	}
	return nil
}

// Counts returns how many changes plan each action.
func (p *Plan) Counts() (create, update, del, noop int) {
	for _, c := range p.Changes {
		switch c.Action {
		case Create:
			create++
		case Update:
			update++
		case Delete:
			del++
		default:
			noop++
		}
	}
	return
}

// HasChanges reports whether any change is not a no-op.
func (p *Plan) HasChanges() bool {
	for _, c := range p.Changes {
		if c.Action != NoOp {
			return true
		}
	}
	return false
}
