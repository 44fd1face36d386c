package config

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/netweave/netweave/internal/addr"
)

// Desired states a declaration can request.
const (
	StatePresent = "present"
	StateAbsent  = "absent"
)

// Model is the unified representation of all loaded declarations.
type Model struct {
	Resources []*Resource
}

// Resource is the format-agnostic representation of a single `resource`
// block. Argument values stay as unevaluated expressions until the planner
// or executor supplies an evaluation context, because they may reference
// outputs of resources that do not exist yet.
type Resource struct {
	Type string
	Name string

	// Body is the raw arguments body, kept for typed decoding at apply time.
	Body hcl.Body
	// Attributes are the top-level argument expressions keyed by name.
	Attributes map[string]hcl.Expression
	// Blocks are nested argument blocks (e.g. the `route` blocks of a
	// tgw_route_table), in declaration order.
	Blocks []*Block
	// DependsOn lists explicit dependency addresses ("type.name").
	DependsOn []string
	// Desired is StatePresent or StateAbsent.
	Desired string
	// DeclRange locates the declaration for error messages.
	DeclRange hcl.Range
}

// Block is a nested block inside an arguments body.
type Block struct {
	Type       string
	Attributes map[string]hcl.Expression
}

// Address returns the canonical address of the declaration.
func (r *Resource) Address() addr.Address {
	return addr.New(r.Type, r.Name)
}

// Expressions returns every argument expression of the resource, including
// those nested in blocks. The graph builder walks these to discover
// implicit dependencies.
func (r *Resource) Expressions() []hcl.Expression {
	var exprs []hcl.Expression
	for _, expr := range r.Attributes {
		exprs = append(exprs, expr)
	}
	for _, block := range r.Blocks {
		for _, expr := range block.Attributes {
			exprs = append(exprs, expr)
		}
	}
	return exprs
}
