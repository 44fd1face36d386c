package plan

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/config"
	"github.com/netweave/netweave/internal/ctyutil"
	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/state"
)

// EvalContext builds the HCL evaluation context for argument expressions.
// known maps resource addresses to their object values (arguments merged
// with outputs); every declared resource missing from known evaluates to an
// unknown value, so downstream expressions stay evaluable and simply come
// out unknown.
func EvalContext(g *dag.Graph, known map[string]cty.Value) *hcl.EvalContext {
	byType := make(map[string]map[string]cty.Value)
	for id, n := range g.Nodes {
		val, ok := known[id]
		if !ok {
			val = cty.UnknownVal(cty.DynamicPseudoType)
		}
		if byType[n.Addr.Type] == nil {
			byType[n.Addr.Type] = make(map[string]cty.Value)
		}
		byType[n.Addr.Type][n.Addr.Name] = val
	}

	typeVals := make(map[string]cty.Value, len(byType))
	for t, names := range byType {
		typeVals[t] = cty.ObjectVal(names)
	}

	vars := map[string]cty.Value{}
	if len(typeVals) > 0 {
		vars["resource"] = cty.ObjectVal(typeVals)
	}
	return &hcl.EvalContext{Variables: vars}
}

// RecordValue converts a state record into the object value its address
// exposes to references: arguments overlaid with computed outputs.
func RecordValue(rec *state.Record) (cty.Value, error) {
	merged := make(map[string]any, len(rec.Attributes)+len(rec.Outputs))
	for k, v := range rec.Attributes {
		merged[k] = v
	}
	for k, v := range rec.Outputs {
		merged[k] = v
	}
	val, err := ctyutil.ObjectFromGoMap(merged)
	if err != nil {
		return cty.NilVal, fmt.Errorf("state record %s.%s: %w", rec.Type, rec.Name, err)
	}
	return val, nil
}

// DesiredAttributes evaluates a declaration's arguments under evalCtx into
// plain Go values. Nested blocks land as a list under the block type, so a
// tgw_route_table's routes become attrs["route"]. complete is false when
// any value is still unknown, i.e. depends on a resource not created yet.
func DesiredAttributes(res *config.Resource, evalCtx *hcl.EvalContext) (attrs map[string]any, complete bool, err error) {
	attrs = make(map[string]any, len(res.Attributes))
	complete = true

	for name, expr := range res.Attributes {
		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, false, fmt.Errorf("evaluating %q of %s: %w", name, res.Address(), diags)
		}
		if !val.IsWhollyKnown() {
			complete = false
			continue
		}
		converted, err := ctyutil.ToGo(val)
		if err != nil {
			return nil, false, fmt.Errorf("argument %q of %s: %w", name, res.Address(), err)
		}
		attrs[name] = converted
	}

	blockLists := make(map[string][]any)
	for _, block := range res.Blocks {
		blockAttrs := make(map[string]any, len(block.Attributes))
		for name, expr := range block.Attributes {
			val, diags := expr.Value(evalCtx)
			if diags.HasErrors() {
				return nil, false, fmt.Errorf("evaluating %q of %s block %q: %w", name, res.Address(), block.Type, diags)
			}
			if !val.IsWhollyKnown() {
				complete = false
				continue
			}
			converted, err := ctyutil.ToGo(val)
			if err != nil {
				return nil, false, fmt.Errorf("block %q of %s: %w", block.Type, res.Address(), err)
			}
			blockAttrs[name] = converted
		}
		blockLists[block.Type] = append(blockLists[block.Type], blockAttrs)
	}
	for blockType, list := range blockLists {
		attrs[blockType] = list
	}

	return attrs, complete, nil
}
