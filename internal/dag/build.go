package dag

import (
	"context"
	"fmt"

	"github.com/netweave/netweave/internal/config"
	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/provider"
)

// Build constructs a complete, validated dependency graph from a model.
// It fails on the first structural problem it finds: duplicate addresses,
// unknown resource types, missing or undeclared arguments, references to
// undeclared resources or attributes, cycles, and inconsistent CIDR layouts.
func Build(ctx context.Context, model *config.Model, schemas map[string]*provider.Schema) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting graph construction.", "resources", len(model.Resources))

	graph := &Graph{Nodes: make(map[string]*Node, len(model.Resources))}

	// First pass: one node per declaration.
	for _, res := range model.Resources {
		schema, ok := schemas[res.Type]
		if !ok {
			return nil, fmt.Errorf("resource %q %q: unknown resource type", res.Type, res.Name)
		}
		if err := checkArguments(res, schema); err != nil {
			return nil, err
		}
		n := newNode(res)
		if _, exists := graph.Nodes[n.ID]; exists {
			return nil, fmt.Errorf("duplicate resource address %q", n.ID)
		}
		graph.Nodes[n.ID] = n
	}
	logger.Debug("Node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: edges from depends_on and from argument expressions.
	for _, n := range graph.Nodes {
		if err := linkExplicitDeps(ctx, n, graph); err != nil {
			return nil, err
		}
		for _, expr := range n.Resource.Expressions() {
			if err := linkImplicitDeps(ctx, n, expr, graph, schemas); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("Node linking complete.")

	if err := detectCycles(graph); err != nil {
		return nil, fmt.Errorf("validating dependency graph: %w", err)
	}

	if err := checkCIDRLayout(graph); err != nil {
		return nil, err
	}

	for _, n := range graph.Nodes {
		n.ResetCounters()
	}

	logger.Debug("Graph construction successful.")
	return graph, nil
}

// checkArguments validates a declaration's argument names against the
// type's schema: required arguments must be present, and every declared
// argument or block must be one the schema knows.
func checkArguments(res *config.Resource, schema *provider.Schema) error {
	for name, attr := range schema.Arguments {
		if !attr.Required {
			continue
		}
		if _, ok := res.Attributes[name]; !ok {
			return fmt.Errorf("resource %q: required argument %q is missing", res.Address(), name)
		}
	}
	for name := range res.Attributes {
		if _, ok := schema.Arguments[name]; !ok {
			return fmt.Errorf("resource %q: unsupported argument %q", res.Address(), name)
		}
	}
	for _, block := range res.Blocks {
		blockSchema, ok := schema.Blocks[block.Type]
		if !ok {
			return fmt.Errorf("resource %q: unsupported block %q", res.Address(), block.Type)
		}
		for name, attr := range blockSchema.Attributes {
			if !attr.Required {
				continue
			}
			if _, ok := block.Attributes[name]; !ok {
				return fmt.Errorf("resource %q: block %q: required argument %q is missing", res.Address(), block.Type, name)
			}
		}
		for name := range block.Attributes {
			if _, ok := blockSchema.Attributes[name]; !ok {
				return fmt.Errorf("resource %q: block %q: unsupported argument %q", res.Address(), block.Type, name)
			}
		}
	}
	return nil
}
