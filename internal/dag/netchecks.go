package dag

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/netcalc"
)

// literalString evaluates an expression without any context and returns its
// value when it is a plain string literal. References and computed values
// report false and are skipped by the static checks.
func literalString(expr hcl.Expression) (string, bool) {
	if expr == nil {
		return "", false
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() || !v.IsKnown() || v.IsNull() || v.Type() != cty.String {
		return "", false
	}
	return v.AsString(), true
}

// checkCIDRLayout runs the static network sanity checks: literal subnet
// CIDRs must nest inside their parent network's literal CIDR without
// overlapping siblings, and literal route destinations must parse.
// Values that only resolve at apply time are left to the provider.
func checkCIDRLayout(g *Graph) error {
	// Group subnets under the vpc node their vpc_id expression references.
	subnetsByVPC := make(map[string]map[string]string)

	for _, n := range g.Nodes {
		switch n.Addr.Type {
		case "subnet":
			cidr, ok := literalString(n.Resource.Attributes["cidr_block"])
			if !ok {
				continue
			}
			if _, err := netcalc.ParsePrefix(cidr); err != nil {
				return fmt.Errorf("resource %q: %w", n.ID, err)
			}
			parent := referencedNode(n.Resource.Attributes["vpc_id"], g)
			if parent == nil {
				continue
			}
			if subnetsByVPC[parent.ID] == nil {
				subnetsByVPC[parent.ID] = make(map[string]string)
			}
			subnetsByVPC[parent.ID][n.ID] = cidr

		case "vpc":
			if cidr, ok := literalString(n.Resource.Attributes["cidr_block"]); ok {
				if _, err := netcalc.ParsePrefix(cidr); err != nil {
					return fmt.Errorf("resource %q: %w", n.ID, err)
				}
			}

		case "tgw_route_table":
			for _, block := range n.Resource.Blocks {
				if block.Type != "route" {
					continue
				}
				if dest, ok := literalString(block.Attributes["dest_cidr"]); ok {
					if _, err := netcalc.ParsePrefix(dest); err != nil {
						return fmt.Errorf("resource %q: route: %w", n.ID, err)
					}
				}
			}
		}
	}

	for vpcID, subnets := range subnetsByVPC {
		vpcCIDR, ok := literalString(g.Nodes[vpcID].Resource.Attributes["cidr_block"])
		if !ok {
			continue
		}
		if err := netcalc.CheckSubnetLayout(vpcCIDR, subnets); err != nil {
			return fmt.Errorf("network layout of %q: %w", vpcID, err)
		}
	}
	return nil
}

// referencedNode resolves an expression that is a single resource reference
// to its graph node, or nil when the expression is anything else.
func referencedNode(expr hcl.Expression, g *Graph) *Node {
	if expr == nil {
		return nil
	}
	vars := expr.Variables()
	if len(vars) != 1 {
		return nil
	}
	ref, ok := parseResourceTraversal(vars[0])
	if !ok {
		return nil
	}
	return g.Nodes[ref.Addr.String()]
}
