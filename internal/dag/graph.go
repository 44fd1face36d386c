package dag

import (
	"sync"
	"sync/atomic"

	"github.com/netweave/netweave/internal/addr"
	"github.com/netweave/netweave/internal/config"
)

// NodeState tracks a node through an execution run.
type NodeState int32

const (
	Pending NodeState = iota
	Running
	Done
	Failed
)

// Graph is the validated dependency graph of all declared resources.
type Graph struct {
	// Nodes is keyed by canonical address string.
	Nodes map[string]*Node
}

// Node is a single resource declaration plus its edges and the counters the
// executor drives during a run.
type Node struct {
	ID       string
	Addr     addr.Address
	Resource *config.Resource

	// Deps are the nodes this node depends on; Dependents the inverse.
	Deps       map[string]*Node
	Dependents map[string]*Node

	// Error holds the failure that stopped this node, if any.
	Error error

	depCount atomic.Int32
	state    atomic.Int32
	skipOnce sync.Once
}

func newNode(res *config.Resource) *Node {
	a := res.Address()
	return &Node{
		ID:         a.String(),
		Addr:       a,
		Resource:   res,
		Deps:       make(map[string]*Node),
		Dependents: make(map[string]*Node),
	}
}

// link records that n depends on dep. Linking twice is a no-op.
func (n *Node) link(dep *Node) {
	if _, exists := n.Deps[dep.ID]; exists {
		return
	}
	n.Deps[dep.ID] = dep
	dep.Dependents[n.ID] = n
}

// ResetCounters primes the node for an execution run.
func (n *Node) ResetCounters() {
	n.depCount.Store(int32(len(n.Deps)))
	n.state.Store(int32(Pending))
}

// DecrementDeps marks one dependency satisfied and returns the remainder.
func (n *Node) DecrementDeps() int32 {
	return n.depCount.Add(-1)
}

// Ready reports whether all dependencies are satisfied.
func (n *Node) Ready() bool {
	return n.depCount.Load() == 0
}

// State returns the node's current execution state.
func (n *Node) State() NodeState {
	return NodeState(n.state.Load())
}

// SetState transitions the node's execution state.
func (n *Node) SetState(s NodeState) {
	n.state.Store(int32(s))
}

// MarkSkipped records err as the node's failure exactly once and reports
// whether this call was the one that did it.
func (n *Node) MarkSkipped(err error) bool {
	first := false
	n.skipOnce.Do(func() {
		n.state.Store(int32(Failed))
		n.Error = err
		first = true
	})
	return first
}

// Reversed returns a new graph over the same declarations with every edge
// flipped. Destroy runs execute over the reversed graph so that dependents
// are removed before the resources they reference.
func (g *Graph) Reversed() *Graph {
	out := &Graph{Nodes: make(map[string]*Node, len(g.Nodes))}
	for id, n := range g.Nodes {
		out.Nodes[id] = newNode(n.Resource)
	}
	for id, n := range g.Nodes {
		for depID := range n.Deps {
			// n depended on dep; in the reversed graph dep depends on n.
			out.Nodes[depID].link(out.Nodes[id])
		}
	}
	for _, n := range out.Nodes {
		n.ResetCounters()
	}
	return out
}
