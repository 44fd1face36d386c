package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/netweave/netweave/internal/config"
	"github.com/netweave/netweave/internal/schema"
)

// translateResource converts a decoded HCL resource block into the agnostic
// model, splitting its arguments body into top-level attribute expressions
// and nested blocks.
func translateResource(res *schema.Resource) (*config.Resource, error) {
	desired := res.State
	switch desired {
	case "":
		desired = config.StatePresent
	case config.StatePresent, config.StateAbsent:
	default:
		return nil, fmt.Errorf("resource %q %q: invalid state %q (want %q or %q)",
			res.Type, res.Name, res.State, config.StatePresent, config.StateAbsent)
	}

	out := &config.Resource{
		Type:      res.Type,
		Name:      res.Name,
		DependsOn: res.DependsOn,
		Desired:   desired,
	}

	if res.Arguments != nil {
		out.Body = res.Arguments.Body
		attrs, blocks, err := splitBody(res.Arguments.Body)
		if err != nil {
			return nil, fmt.Errorf("resource %q %q: %w", res.Type, res.Name, err)
		}
		out.Attributes = attrs
		out.Blocks = blocks
		if syntaxBody, ok := res.Arguments.Body.(*hclsyntax.Body); ok {
			out.DeclRange = syntaxBody.SrcRange
		}
	} else {
		out.Attributes = map[string]hcl.Expression{}
	}

	return out, nil
}

// splitBody separates an arguments body into its top-level attribute
// expressions and its nested blocks. Nested blocks keep only their attribute
// expressions; blocks within blocks are not part of the declaration format.
func splitBody(body hcl.Body) (map[string]hcl.Expression, []*config.Block, error) {
	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		// Bodies from the JSON representation have no block/attribute split
		// we can walk, so fall back to attributes only.
		attrs, diags := body.JustAttributes()
		if diags.HasErrors() {
			return nil, nil, diags
		}
		exprs := make(map[string]hcl.Expression, len(attrs))
		for name, attr := range attrs {
			exprs[name] = attr.Expr
		}
		return exprs, nil, nil
	}

	exprs := make(map[string]hcl.Expression, len(syntaxBody.Attributes))
	for name, attr := range syntaxBody.Attributes {
		exprs[name] = attr.Expr
	}

	var blocks []*config.Block
	for _, blk := range syntaxBody.Blocks {
		if len(blk.Body.Blocks) > 0 {
			return nil, nil, fmt.Errorf("block %q: nested blocks inside argument blocks are not supported", blk.Type)
		}
		blockAttrs := make(map[string]hcl.Expression, len(blk.Body.Attributes))
		for name, attr := range blk.Body.Attributes {
			blockAttrs[name] = attr.Expr
		}
		blocks = append(blocks, &config.Block{Type: blk.Type, Attributes: blockAttrs})
	}

	return exprs, blocks, nil
}
