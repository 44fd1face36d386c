package plan

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/r3labs/diff"
	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/config"
	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/state"
)

// Planner decides per-resource actions against a state snapshot.
type Planner struct {
	snapshot *state.Snapshot
}

// NewPlanner creates a planner over the given snapshot.
func NewPlanner(snapshot *state.Snapshot) *Planner {
	return &Planner{snapshot: snapshot}
}

// knownValues builds the address -> object value map from state records.
func (p *Planner) knownValues(g *dag.Graph) (map[string]cty.Value, error) {
	known := make(map[string]cty.Value)
	for id := range g.Nodes {
		rec := p.snapshot.Record(id)
		if rec == nil {
			continue
		}
		val, err := RecordValue(rec)
		if err != nil {
			return nil, err
		}
		known[id] = val
	}
	return known, nil
}

// Plan walks the graph in dependency order and decides an action per node.
func (p *Planner) Plan(ctx context.Context, g *dag.Graph) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := dag.TopoSort(g)
	if err != nil {
		return nil, err
	}
	known, err := p.knownValues(g)
	if err != nil {
		return nil, err
	}
	evalCtx := EvalContext(g, known)

	out := &Plan{}
	for _, n := range order {
		change, err := p.decide(n, evalCtx)
		if err != nil {
			return nil, err
		}
		logger.Debug("Planned change.", "node", n.ID, "action", change.Action.String(), "reason", change.Reason)
		out.Changes = append(out.Changes, change)
	}
	return out, nil
}

// decide determines the action for a single node.
func (p *Planner) decide(n *dag.Node, evalCtx *hcl.EvalContext) (*Change, error) {
	rec := p.snapshot.Record(n.ID)

	if n.Resource.Desired == config.StateAbsent {
		if rec == nil {
			return &Change{Node: n, Action: NoOp, Reason: "declared absent, not in state"}, nil
		}
		return &Change{Node: n, Action: Delete, Reason: "declared absent"}, nil
	}

	desired, complete, err := DesiredAttributes(n.Resource, evalCtx)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return &Change{Node: n, Action: Create, Desired: desired, Reason: "not in state"}, nil
	}

	if !complete {
		// An upstream resource is being created or replaced, so some of
		// this node's arguments only resolve at apply time.
		return &Change{Node: n, Action: Update, Desired: desired, Reason: "depends on values known after apply"}, nil
	}

	changelog, err := diff.Diff(rec.Attributes, desired)
	if err != nil {
		return nil, fmt.Errorf("diffing %s: %w", n.ID, err)
	}
	if len(changelog) == 0 {
		return &Change{Node: n, Action: NoOp, Desired: desired, Reason: "attributes unchanged"}, nil
	}
	return &Change{Node: n, Action: Update, Desired: desired, Diff: changelog, Reason: "attributes changed"}, nil
}

// Destroy plans the removal of every resource present in state, in reverse
// dependency order. Declared resources with no state record are skipped:
// there is nothing to remove.
func (p *Planner) Destroy(ctx context.Context, g *dag.Graph) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := dag.TopoSort(g.Reversed())
	if err != nil {
		return nil, err
	}

	out := &Plan{Destroy: true}
	for _, n := range order {
		if p.snapshot.Record(n.ID) == nil {
			continue
		}
		logger.Debug("Planned destruction.", "node", n.ID)
		out.Changes = append(out.Changes, &Change{
			Node:   g.Nodes[n.ID],
			Action: Delete,
			Reason: "destroy requested",
		})
	}
	return out, nil
}
