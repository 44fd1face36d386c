package dag

import "fmt"

// detectCycles runs a depth-first search with the classic three node sets:
// permanent (fully visited, known safe), temporary (on the current stack),
// and unvisited. Hitting a temporary node means a cycle.
func detectCycles(g *Graph) error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID] {
			return nil
		}
		if temporary[n.ID] {
			return fmt.Errorf("dependency cycle involving %q", n.ID)
		}

		temporary[n.ID] = true
		for _, dependent := range n.Dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.ID)
		permanent[n.ID] = true
		return nil
	}

	for _, n := range g.Nodes {
		if !permanent[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
