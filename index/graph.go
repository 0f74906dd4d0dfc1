package index

import (
	"fmt"
	"sync"

	"github.com/smallnest/ragkit/schema"
)

// Graph is the arena for a hierarchical index: a node table, ordered
// child-id lists and an ordered root set. Nodes reference each other by id,
// never by embedded pointer.
//
// Graph methods are safe for concurrent readers. Writes have no internal
// coordination beyond the RWMutex; concurrent insertions must be serialized
// by the caller (tree.Inserter does this).
type Graph struct {
	mu        sync.RWMutex
	nodes     map[string]*schema.Node
	children  map[string][]string
	roots     []string
	nextIndex int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*schema.Node),
		children: make(map[string][]string),
	}
}

// register assigns the next insertion index and records the node. Re-adding
// a known node keeps its index. Callers hold the write lock.
func (g *Graph) register(n *schema.Node) {
	if existing, ok := g.nodes[n.ID]; ok {
		n.Index = existing.Index
		g.nodes[n.ID] = n
		return
	}
	g.nextIndex++
	n.Index = g.nextIndex
	g.nodes[n.ID] = n
}

// AddNode records a node without linking it anywhere.
func (g *Graph) AddNode(n *schema.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.register(n)
}

// InsertUnderParent links node under parentID, or as a root when parentID is
// empty. The node is registered if the graph has not seen it.
func (g *Graph) InsertUnderParent(n *schema.Node, parentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.register(n)

	n.ParentID = parentID
	if parentID == "" {
		g.roots = append(g.roots, n.ID)
		return
	}
	g.children[parentID] = append(g.children[parentID], n.ID)
	if p, ok := g.nodes[parentID]; ok {
		p.ChildIDs = append(p.ChildIDs, n.ID)
	}
}

// InsertWithChildren registers node and reparents the given children under
// it, in the order given.
func (g *Graph) InsertWithChildren(n *schema.Node, children []*schema.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.register(n)

	ids := make([]string, len(children))
	for i, c := range children {
		c.ParentID = n.ID
		ids[i] = c.ID
	}
	g.children[n.ID] = ids
	n.ChildIDs = ids
}

// ClearChildren empties parentID's direct child set (the nodes themselves
// stay in the table). An empty parentID clears the root set.
func (g *Graph) ClearChildren(parentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if parentID == "" {
		g.roots = nil
		return
	}
	g.children[parentID] = nil
	if p, ok := g.nodes[parentID]; ok {
		p.ChildIDs = nil
	}
}

// Children returns parentID's ordered child ids; empty parentID returns the
// roots. The result is a copy.
func (g *Graph) Children(parentID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var src []string
	if parentID == "" {
		src = g.roots
	} else {
		src = g.children[parentID]
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*schema.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Roots returns the ordered root ids.
func (g *Graph) Roots() []string {
	return g.Children("")
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Validate checks the structural invariants: every non-root node has exactly
// one parent, every child link points at a registered node, and no node's
// direct child count exceeds maxChildren (0 disables the fan-out check).
func (g *Graph) Validate(maxChildren int) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	parents := make(map[string]string)
	record := func(parent string, kids []string) error {
		if maxChildren > 0 && len(kids) > maxChildren {
			return fmt.Errorf("node %q has %d children, fan-out limit is %d", parent, len(kids), maxChildren)
		}
		for _, kid := range kids {
			if _, ok := g.nodes[kid]; !ok {
				return fmt.Errorf("child %q of %q is not registered", kid, parent)
			}
			if prev, dup := parents[kid]; dup {
				return fmt.Errorf("node %q has two parents: %q and %q", kid, prev, parent)
			}
			parents[kid] = parent
		}
		return nil
	}

	if err := record("", g.roots); err != nil {
		return err
	}
	for parent, kids := range g.children {
		if err := record(parent, kids); err != nil {
			return err
		}
	}

	for id := range g.nodes {
		if _, ok := parents[id]; !ok {
			return fmt.Errorf("node %q is unreachable: neither root nor child", id)
		}
	}
	return nil
}
