package tree

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyTree is returned by [Build] when no nodes are given.
	ErrEmptyTree = errors.New("tree has no nodes")

	// ErrUnknownAncestor is returned by [Tree.Validate] when an ancestor index
	// does not point at a node of the same tree.
	ErrUnknownAncestor = errors.New("unknown ancestor")

	// ErrSelfAncestor is returned by [Tree.Validate] when a node names itself
	// as its ancestor.
	ErrSelfAncestor = errors.New("node is its own ancestor")

	// ErrCycle is returned by [Tree.Validate] when following ancestor links
	// from some node never reaches a root.
	ErrCycle = errors.New("tree contains a cycle")

	// ErrNoRoot is returned by [Tree.Validate] for a non-empty tree in which
	// every node has an ancestor.
	ErrNoRoot = errors.New("tree has no root")

	// ErrMultipleRoots is returned by [Tree.Validate] when more than one node
	// has no ancestor.
	ErrMultipleRoots = errors.New("tree has more than one root")

	// ErrNonFinite is returned by [Tree.Validate] when a coordinate is NaN or
	// infinite.
	ErrNonFinite = errors.New("coordinate is not finite")
)

// NoAncestor marks the root of a tree.
const NoAncestor = -1

// Coordinate is an immutable (x, y) pair.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the component-wise sum of c and o.
func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{X: c.X + o.X, Y: c.Y + o.Y}
}

// IsFinite reports whether neither component is NaN or infinite.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.X) && !math.IsInf(c.X, 0) && !math.IsNaN(c.Y) && !math.IsInf(c.Y, 0)
}

// Node is one vertex of a genealogical tree.
//
// Coords is the abstract layout position (conventionally x = rank,
// y = time with larger values more ancestral). Ancestor is the index of the
// parent node within the owning [Tree], or [NoAncestor] for the root.
type Node struct {
	Coords   Coordinate
	Ancestor int
	Leaf     bool
	Label    string
}

// IsRoot reports whether n has no ancestor.
func (n Node) IsRoot() bool { return n.Ancestor == NoAncestor }

// Edge links a node to its ancestor, both given as node indices.
type Edge struct {
	Node     int
	Ancestor int
}

// Tree is an ordered collection of nodes forming a single rooted tree.
//
// The zero value is an empty tree. Tree is read-only for renderers; it is not
// safe for concurrent mutation.
type Tree struct {
	Nodes []Node
}

// New builds a tree from nodes and validates it.
func New(nodes ...Node) (*Tree, error) {
	t := &Tree{Nodes: nodes}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.Nodes) }

// Root returns the index of the root node, or [NoAncestor] if the tree is
// empty or has no root.
func (t *Tree) Root() int {
	for i, n := range t.Nodes {
		if n.IsRoot() {
			return i
		}
	}
	return NoAncestor
}

// Children returns the indices of the nodes whose ancestor is i, in node order.
func (t *Tree) Children(i int) []int {
	var out []int
	for j, n := range t.Nodes {
		if n.Ancestor == i && j != i {
			out = append(out, j)
		}
	}
	return out
}

// Edges returns one edge per non-root node, in node order.
func (t *Tree) Edges() []Edge {
	edges := make([]Edge, 0, len(t.Nodes))
	for i, n := range t.Nodes {
		if !n.IsRoot() {
			edges = append(edges, Edge{Node: i, Ancestor: n.Ancestor})
		}
	}
	return edges
}

// Leaves returns the indices of nodes flagged as leaves.
func (t *Tree) Leaves() []int {
	var out []int
	for i, n := range t.Nodes {
		if n.Leaf {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks that every ancestor index is in range, that exactly one
// root exists, that ancestor links are acyclic and that all coordinates are
// finite. An empty tree is valid.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return nil
	}

	roots := 0
	for i, n := range t.Nodes {
		if !n.Coords.IsFinite() {
			return fmt.Errorf("node %d: %w", i, ErrNonFinite)
		}
		switch {
		case n.IsRoot():
			roots++
		case n.Ancestor == i:
			return fmt.Errorf("node %d: %w", i, ErrSelfAncestor)
		case n.Ancestor < 0 || n.Ancestor >= len(t.Nodes):
			return fmt.Errorf("node %d: ancestor %d: %w", i, n.Ancestor, ErrUnknownAncestor)
		}
	}
	switch {
	case roots == 0:
		return ErrNoRoot
	case roots > 1:
		return fmt.Errorf("%w (%d roots)", ErrMultipleRoots, roots)
	}

	// Walk ancestor chains, memoizing nodes known to reach the root.
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make([]int, len(t.Nodes))
	for start := range t.Nodes {
		var path []int
		for cur := start; cur != NoAncestor && state[cur] != done; cur = t.Nodes[cur].Ancestor {
			if state[cur] == inProgress {
				return fmt.Errorf("node %d: %w", cur, ErrCycle)
			}
			state[cur] = inProgress
			path = append(path, cur)
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return nil
}

// Depths returns the number of edges between each node and the root.
// The tree must be valid.
func (t *Tree) Depths() []int {
	depths := make([]int, len(t.Nodes))
	known := make([]bool, len(t.Nodes))
	var depth func(i int) int
	depth = func(i int) int {
		if known[i] {
			return depths[i]
		}
		d := 0
		if a := t.Nodes[i].Ancestor; a != NoAncestor {
			d = depth(a) + 1
		}
		depths[i], known[i] = d, true
		return d
	}
	for i := range t.Nodes {
		depth(i)
	}
	return depths
}
