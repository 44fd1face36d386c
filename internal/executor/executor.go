// Package executor walks the plan over the dependency graph with a bounded
// worker pool, calling provider handlers and recording the outcome of every
// action into the state snapshot.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/plan"
	"github.com/netweave/netweave/internal/provider"
	"github.com/netweave/netweave/internal/state"
)

// DefaultParallelism bounds concurrent provider calls when no explicit
// worker count is given.
const DefaultParallelism = 4

// Executor applies a plan over a graph. The same executor drives apply and
// destroy runs; for destroys, pass the reversed graph so that dependents go
// down before the resources they reference.
type Executor struct {
	graph    *dag.Graph
	plan     *plan.Plan
	registry *provider.Registry
	snapshot *state.Snapshot
	workers  int

	wg sync.WaitGroup

	// mu guards snapshot and known during concurrent node execution.
	mu    sync.Mutex
	known map[string]cty.Value
}

// Option configures an Executor.
type Option func(*Executor)

// WithParallelism sets the number of concurrent workers.
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an executor for one run. The snapshot is mutated in place as
// actions complete, so the caller can save it even after a partial failure.
func New(g *dag.Graph, p *plan.Plan, registry *provider.Registry, snapshot *state.Snapshot, opts ...Option) *Executor {
	e := &Executor{
		graph:    g,
		plan:     p,
		registry: registry,
		snapshot: snapshot,
		workers:  DefaultParallelism,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes every node of the graph, respecting dependency order and the
// context's cancellation signal. It returns the root-cause error of the
// first real failure; skipped-dependent errors are symptoms and never win.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, n := range e.graph.Nodes {
		n.ResetCounters()
	}
	e.seedKnown()

	readyChan := make(chan *dag.Node, len(e.graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, n := range e.graph.Nodes {
		if n.Ready() {
			readyChan <- n
			rootCount++
		}
	}
	logger.Debug("Seeded root nodes.", "count", rootCount, "total", len(e.graph.Nodes))

	e.wg.Add(len(e.graph.Nodes))
	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}
	e.wg.Wait()
	close(readyChan)

	var failed []string
	var rootCause error
	for _, n := range e.graph.Nodes {
		if n.State() != dag.Failed {
			continue
		}
		logger.Error("Node failed.", "node", n.ID, "error", n.Error)
		if n.Error == nil || errors.Is(n.Error, context.Canceled) {
			continue
		}
		if strings.HasPrefix(n.Error.Error(), "skipped") {
			continue
		}
		failed = append(failed, n.ID)
		if rootCause == nil {
			rootCause = n.Error
		}
	}
	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}

// worker is the processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for n := range readyChan {
		nodeLogger := logger.With("workerID", workerID, "node", n.ID)

		if ctx.Err() != nil {
			if n.MarkSkipped(ctx.Err()) {
				nodeLogger.Warn("Context canceled, skipping node.")
				e.wg.Done()
				// Dependents of a skipped node never reach the ready
				// channel, so they must be released here too or Run
				// waits on them forever.
				e.skipDependents(ctx, n)
			}
			continue
		}

		nodeLogger.Debug("Worker picked up node.")
		n.SetState(dag.Running)

		if err := e.applyNode(ctx, n); err != nil {
			nodeLogger.Error("Node execution failed.", "error", err)
			n.SetState(dag.Failed)
			n.Error = err
			cancel()
			e.skipDependents(ctx, n)
			e.wg.Done()
			continue
		}

		n.SetState(dag.Done)
		for _, dependent := range n.Dependents {
			if dependent.DecrementDeps() == 0 {
				nodeLogger.Debug("Unlocking dependent node.", "dependent", dependent.ID)
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
}

// skipDependents recursively marks all downstream nodes as failed.
func (e *Executor) skipDependents(ctx context.Context, n *dag.Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range n.Dependents {
		err := fmt.Errorf("skipped due to upstream failure of %q", n.ID)
		if dependent.MarkSkipped(err) {
			logger.Warn("Skipping dependent node.", "node", dependent.ID, "failedDependency", n.ID)
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		}
	}
}
