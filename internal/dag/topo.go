package dag

import (
	"fmt"
	"sort"
)

// TopoSort returns the nodes in dependency order. Ties are broken by
// address so that repeated runs over the same declarations produce the same
// order. Build already rejects cyclic graphs; the error return guards
// against graphs assembled by other means.
func TopoSort(g *Graph) ([]*Node, error) {
	remaining := make(map[string]int, len(g.Nodes))
	for id, n := range g.Nodes {
		remaining[id] = len(n.Deps)
	}

	var ready []string
	for id, count := range remaining {
		if count == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	out := make([]*Node, 0, len(g.Nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		n := g.Nodes[id]
		out = append(out, n)

		var unlocked []string
		for depID := range n.Dependents {
			remaining[depID]--
			if remaining[depID] == 0 {
				unlocked = append(unlocked, depID)
			}
		}
		sort.Strings(unlocked)
		ready = append(ready, unlocked...)
		sort.Strings(ready)
	}

	if len(out) != len(g.Nodes) {
		return nil, fmt.Errorf("graph is not acyclic: ordered %d of %d nodes", len(out), len(g.Nodes))
	}
	return out, nil
}
