package dag

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/netweave/netweave/internal/addr"
	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/provider"
)

// linkExplicitDeps resolves a declaration's depends_on entries.
func linkExplicitDeps(ctx context.Context, n *Node, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)
	for _, raw := range n.Resource.DependsOn {
		depAddr, err := addr.Parse(raw)
		if err != nil {
			return fmt.Errorf("resource %q: depends_on: %w", n.ID, err)
		}
		dep, ok := graph.Nodes[depAddr.String()]
		if !ok {
			return fmt.Errorf("resource %q depends on undeclared resource %q", n.ID, raw)
		}
		if dep == n {
			return fmt.Errorf("resource %q depends on itself", n.ID)
		}
		logger.Debug("Linking explicit dependency.", "from", n.ID, "to", dep.ID)
		n.link(dep)
	}
	return nil
}

// resourceRef is a reference extracted from an expression traversal.
type resourceRef struct {
	Addr addr.Address
	// Attr is the referenced attribute or output, or "" for a whole-object
	// reference.
	Attr string
	// Range locates the reference for error messages.
	Range hcl.Range
}

// parseResourceTraversal extracts a resource reference from an HCL traversal
// of the form resource.<type>.<name>[.<attr>...]. Traversals rooted
// elsewhere are not references and return false.
func parseResourceTraversal(traversal hcl.Traversal) (resourceRef, bool) {
	if len(traversal) < 3 || traversal.RootName() != "resource" {
		return resourceRef{}, false
	}
	typeAttr, typeOK := traversal[1].(hcl.TraverseAttr)
	nameAttr, nameOK := traversal[2].(hcl.TraverseAttr)
	if !typeOK || !nameOK {
		return resourceRef{}, false
	}
	ref := resourceRef{
		Addr:  addr.New(typeAttr.Name, nameAttr.Name),
		Range: traversal.SourceRange(),
	}
	if len(traversal) > 3 {
		if attr, ok := traversal[3].(hcl.TraverseAttr); ok {
			ref.Attr = attr.Name
		}
	}
	return ref, true
}

// linkImplicitDeps walks an expression's variable traversals and links every
// resource reference it finds. Unlike depends_on, these references also name
// an attribute, which is validated against the referenced type's schema so
// that a typo fails here rather than evaluating to a missing value later.
func linkImplicitDeps(ctx context.Context, n *Node, expr hcl.Expression, graph *Graph, schemas map[string]*provider.Schema) error {
	logger := ctxlog.FromContext(ctx)
	for _, traversal := range expr.Variables() {
		ref, ok := parseResourceTraversal(traversal)
		if !ok {
			continue
		}

		dep, found := graph.Nodes[ref.Addr.String()]
		if !found {
			return fmt.Errorf("%s: resource %q references undeclared resource %q",
				ref.Range, n.ID, ref.Addr)
		}
		if dep == n {
			return fmt.Errorf("%s: resource %q references itself", ref.Range, n.ID)
		}

		if ref.Attr != "" {
			schema := schemas[dep.Addr.Type]
			if !schema.Referenceable(ref.Attr) {
				return fmt.Errorf("%s: resource %q references undeclared attribute %q on %q",
					ref.Range, n.ID, ref.Attr, dep.ID)
			}
		}

		logger.Debug("Linking implicit dependency.", "from", n.ID, "to", dep.ID)
		n.link(dep)
	}
	return nil
}
