// Package app assembles the engine: it loads declarations, builds and
// validates the graph, and drives the planner and executor against the
// configured provider and state backend.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/executor"
	"github.com/netweave/netweave/internal/hcl"
	"github.com/netweave/netweave/internal/plan"
	"github.com/netweave/netweave/internal/provider"
	"github.com/netweave/netweave/internal/provider/awsec2"
	"github.com/netweave/netweave/internal/provider/memory"
	"github.com/netweave/netweave/internal/state"
)

// App is one configured instance of the engine.
type App struct {
	cfg    *Config
	logger *slog.Logger
	out    io.Writer
}

// New builds an App from a validated config. Output (plan renderings,
// graph dumps) goes to out; logs go to logW.
func New(cfg *Config, out, logW io.Writer) *App {
	return &App{
		cfg:    cfg,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, logW),
		out:    out,
	}
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// buildGraph loads the declarations and validates them into a graph.
func (a *App) buildGraph(ctx context.Context) (*dag.Graph, error) {
	model, err := hcl.NewLoader().Load(ctx, a.cfg.ConfigPaths...)
	if err != nil {
		return nil, err
	}
	return dag.Build(ctx, model, provider.BuiltinSchemas())
}

func (a *App) store(ctx context.Context) (state.Store, error) {
	switch a.cfg.StateBackend {
	case "s3":
		return state.NewS3Store(ctx, state.S3Config{
			Bucket:    a.cfg.S3Bucket,
			Key:       a.cfg.S3Key,
			Region:    a.cfg.S3Region,
			Endpoint:  a.cfg.S3Endpoint,
			AccessKey: a.cfg.S3AccessKey,
			SecretKey: a.cfg.S3SecretKey,
		})
	default:
		return state.NewFileStore(a.cfg.StatePath), nil
	}
}

func (a *App) registry(ctx context.Context) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	switch a.cfg.Provider {
	case "memory":
		memory.New().Register(reg)
	default:
		client, err := awsec2.NewClient(ctx, awsec2.Config{Region: a.cfg.Region})
		if err != nil {
			return nil, err
		}
		awsec2.New(client).Register(reg)
	}
	return reg, nil
}

// Validate loads and validates the declarations without touching state or
// the control plane.
func (a *App) Validate(ctx context.Context) error {
	ctx = a.context(ctx)
	g, err := a.buildGraph(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Configuration is valid: %d resources.\n", len(g.Nodes))
	return nil
}

// Plan computes and renders the plan without applying it.
func (a *App) Plan(ctx context.Context, destroy bool) error {
	ctx = a.context(ctx)
	g, err := a.buildGraph(ctx)
	if err != nil {
		return err
	}

	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}

	planner := plan.NewPlanner(snap)
	var p *plan.Plan
	if destroy {
		p, err = planner.Destroy(ctx, g)
	} else {
		p, err = planner.Plan(ctx, g)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, plan.Render(p, true))
	return nil
}

// Apply plans and then executes the plan, holding the state lock for the
// whole run. The snapshot is saved even when execution fails part way, so
// whatever was created is not orphaned.
func (a *App) Apply(ctx context.Context) error {
	return a.run(ctx, false)
}

// Destroy removes every resource present in state, dependents first.
func (a *App) Destroy(ctx context.Context) error {
	return a.run(ctx, true)
}

func (a *App) run(ctx context.Context, destroy bool) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	g, err := a.buildGraph(ctx)
	if err != nil {
		return err
	}
	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	store, err := a.store(ctx)
	if err != nil {
		return err
	}

	if err := store.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := store.Unlock(ctx); err != nil {
			logger.Error("Failed to release state lock.", "error", err)
		}
	}()

	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}

	planner := plan.NewPlanner(snap)
	var p *plan.Plan
	runGraph := g
	if destroy {
		p, err = planner.Destroy(ctx, g)
		runGraph = g.Reversed()
	} else {
		p, err = planner.Plan(ctx, g)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, plan.Render(p, false))
	if !p.HasChanges() {
		logger.Info("Nothing to do.")
		return nil
	}

	execErr := executor.New(runGraph, p, reg, snap,
		executor.WithParallelism(a.cfg.Parallelism)).Run(ctx)

	if err := store.Save(ctx, snap); err != nil {
		if execErr != nil {
			logger.Error("Failed to save state after execution failure.", "error", err)
			return execErr
		}
		return fmt.Errorf("saving state: %w", err)
	}
	return execErr
}

// Graph renders the dependency graph in DOT format.
func (a *App) Graph(ctx context.Context) error {
	ctx = a.context(ctx)
	g, err := a.buildGraph(ctx)
	if err != nil {
		return err
	}

	order, err := dag.TopoSort(g)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "digraph resources {")
	for _, n := range order {
		if len(n.Deps) == 0 {
			fmt.Fprintf(a.out, "  %q;\n", n.ID)
			continue
		}
		for dep := range n.Deps {
			fmt.Fprintf(a.out, "  %q -> %q;\n", n.ID, dep)
		}
	}
	fmt.Fprintln(a.out, "}")
	return nil
}
