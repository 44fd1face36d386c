package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/ctyutil"
	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/plan"
	"github.com/netweave/netweave/internal/provider"
	"github.com/netweave/netweave/internal/state"
)

// seedKnown primes the known-values map from existing state records, so
// that nodes with no planned work still expose their outputs to dependents.
func (e *Executor) seedKnown() {
	e.known = make(map[string]cty.Value, len(e.graph.Nodes))
	for id := range e.graph.Nodes {
		rec := e.snapshot.Record(id)
		if rec == nil {
			continue
		}
		if val, err := plan.RecordValue(rec); err == nil {
			e.known[id] = val
		}
	}
}

// evalContext snapshots the current known values into an HCL evaluation
// context. By the time a node runs, all of its dependencies are done, so
// every value its expressions reference is known.
func (e *Executor) evalContext() *hcl.EvalContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return plan.EvalContext(e.graph, e.known)
}

// applyNode performs the planned action for one node.
func (e *Executor) applyNode(ctx context.Context, n *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("node", n.ID)

	change := e.plan.Change(n.ID)
	if change == nil || change.Action == plan.NoOp {
		logger.Debug("Nothing to do.")
		return nil
	}

	handler, ok := e.registry.Handler(n.Addr.Type)
	if !ok {
		return fmt.Errorf("no handler registered for resource type %q", n.Addr.Type)
	}

	switch change.Action {
	case plan.Create:
		return e.create(ctx, n, handler)
	case plan.Update:
		return e.update(ctx, n, handler)
	case plan.Delete:
		return e.delete(ctx, n, handler)
	default:
		return fmt.Errorf("unexpected action %q for %s", change.Action, n.ID)
	}
}

// decodeArgs evaluates the declaration's arguments body into the handler's
// typed argument struct.
func (e *Executor) decodeArgs(n *dag.Node, handler *provider.Handler, evalCtx *hcl.EvalContext) (any, error) {
	args := handler.NewArgs()
	if n.Resource.Body == nil {
		return args, nil
	}
	if diags := gohcl.DecodeBody(n.Resource.Body, evalCtx, args); diags.HasErrors() {
		return nil, fmt.Errorf("decoding arguments of %s: %w", n.ID, diags)
	}
	return args, nil
}

func (e *Executor) create(ctx context.Context, n *dag.Node, handler *provider.Handler) error {
	logger := ctxlog.FromContext(ctx).With("node", n.ID)
	logger.Info("Creating resource.")

	evalCtx := e.evalContext()
	args, err := e.decodeArgs(n, handler, evalCtx)
	if err != nil {
		return err
	}
	result, err := handler.Create(ctx, args)
	if err != nil {
		return fmt.Errorf("creating %s: %w", n.ID, err)
	}

	now := time.Now().UTC()
	rec := &state.Record{
		Type:      n.Addr.Type,
		Name:      n.Addr.Name,
		ID:        result.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.finishApply(n, rec, result, evalCtx); err != nil {
		return err
	}
	logger.Info("Resource created.", "id", result.ID)
	return nil
}

func (e *Executor) update(ctx context.Context, n *dag.Node, handler *provider.Handler) error {
	logger := ctxlog.FromContext(ctx).With("node", n.ID)

	rec := e.record(n.ID)
	if rec == nil {
		// The planner marked this node Update because its arguments were
		// unknown at plan time, but nothing was ever created for it.
		return e.create(ctx, n, handler)
	}
	logger.Info("Updating resource.", "id", rec.ID)

	evalCtx := e.evalContext()
	args, err := e.decodeArgs(n, handler, evalCtx)
	if err != nil {
		return err
	}
	result, err := handler.Update(ctx, rec.ID, args)
	if err != nil {
		return fmt.Errorf("updating %s: %w", n.ID, err)
	}

	updated := &state.Record{
		Type:      rec.Type,
		Name:      rec.Name,
		ID:        result.ID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if err := e.finishApply(n, updated, result, evalCtx); err != nil {
		return err
	}
	logger.Info("Resource updated.", "id", result.ID)
	return nil
}

func (e *Executor) delete(ctx context.Context, n *dag.Node, handler *provider.Handler) error {
	logger := ctxlog.FromContext(ctx).With("node", n.ID)

	rec := e.record(n.ID)
	if rec == nil {
		logger.Debug("No state record, nothing to delete.")
		return nil
	}
	logger.Info("Deleting resource.", "id", rec.ID)

	// References may no longer resolve by delete time (an upstream record
	// can already be gone); the provider then works from defaults.
	args, err := e.decodeArgs(n, handler, e.evalContext())
	if err != nil {
		logger.Debug("Arguments not fully resolvable for delete, using defaults.", "error", err)
		args = handler.NewArgs()
	}

	if err := handler.Delete(ctx, rec.ID, args); err != nil {
		return fmt.Errorf("deleting %s: %w", n.ID, err)
	}

	e.mu.Lock()
	e.snapshot.Remove(n.ID)
	delete(e.known, n.ID)
	e.mu.Unlock()

	logger.Info("Resource deleted.", "id", rec.ID)
	return nil
}

// finishApply re-evaluates the node's desired arguments now that every
// dependency is known, converts the handler's outputs, and commits the
// record and the node's reference value.
func (e *Executor) finishApply(n *dag.Node, rec *state.Record, result *provider.Result, evalCtx *hcl.EvalContext) error {
	desired, complete, err := plan.DesiredAttributes(n.Resource, evalCtx)
	if err != nil {
		return err
	}
	if !complete {
		return fmt.Errorf("arguments of %s still unknown after dependencies applied", n.ID)
	}
	rec.Attributes = desired

	rec.Outputs = make(map[string]any, len(result.Outputs))
	for name, val := range result.Outputs {
		converted, err := ctyutil.ToGo(val)
		if err != nil {
			return fmt.Errorf("output %q of %s: %w", name, n.ID, err)
		}
		rec.Outputs[name] = converted
	}

	val, err := plan.RecordValue(rec)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.snapshot.Put(n.ID, rec)
	e.known[n.ID] = val
	e.mu.Unlock()
	return nil
}

// record reads a state record under the snapshot lock.
func (e *Executor) record(id string) *state.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Record(id)
}
