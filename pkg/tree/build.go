package tree

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrBadBranch is returned by [Build] for negative or non-finite branch lengths.
var ErrBadBranch = errors.New("branch length must be finite and non-negative")

// Build constructs a tree from an ancestry description.
//
// ancestors[i] is the index of the parent of node i, or -1 for the root.
// branches[i] is the length of the branch above node i; the root's entry is
// ignored. Leaves are the nodes without children.
//
// Raw coordinates follow the usual genealogy drawing: y is the height above
// the deepest tip, so the root has the largest y; leaves are ranked 0..n-1
// from left to right in depth-first order and every internal node sits at
// the mean x of its children. Node labels are 1-based node numbers.
func Build(ancestors []int, branches []float64) (*Tree, error) {
	if len(ancestors) == 0 {
		return nil, ErrEmptyTree
	}
	if len(branches) != len(ancestors) {
		return nil, fmt.Errorf("got %d ancestors but %d branch lengths", len(ancestors), len(branches))
	}

	t := &Tree{Nodes: make([]Node, len(ancestors))}
	for i, a := range ancestors {
		if a < 0 {
			a = NoAncestor
		}
		t.Nodes[i] = Node{Ancestor: a, Label: strconv.Itoa(i + 1)}
	}
	// Coordinates are still zero here; this only checks the topology.
	if err := t.Validate(); err != nil {
		return nil, err
	}

	root := t.Root()
	for i, b := range branches {
		if i == root {
			continue
		}
		if math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
			return nil, fmt.Errorf("node %d: %w", i, ErrBadBranch)
		}
	}

	children := make([][]int, len(t.Nodes))
	for i, n := range t.Nodes {
		if !n.IsRoot() {
			children[n.Ancestor] = append(children[n.Ancestor], i)
		}
	}

	// Distance from the root along branches, then flip so tips sit at y=0.
	dist := make([]float64, len(t.Nodes))
	maxDist := 0.0
	order := preorder(root, children)
	for _, i := range order {
		if a := t.Nodes[i].Ancestor; a != NoAncestor {
			dist[i] = dist[a] + branches[i]
		}
		maxDist = math.Max(maxDist, dist[i])
	}

	rank := 0.0
	for _, i := range order {
		t.Nodes[i].Coords.Y = maxDist - dist[i]
		if len(children[i]) == 0 {
			t.Nodes[i].Leaf = true
			t.Nodes[i].Coords.X = rank
			rank++
		}
	}
	// Reverse preorder visits children before their parents.
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		if len(children[i]) == 0 {
			continue
		}
		sum := 0.0
		for _, c := range children[i] {
			sum += t.Nodes[c].Coords.X
		}
		t.Nodes[i].Coords.X = sum / float64(len(children[i]))
	}
	return t, nil
}

// preorder returns node indices in depth-first order starting at root,
// visiting children in index order.
func preorder(root int, children [][]int) []int {
	order := make([]int, 0, len(children))
	stack := []int{root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, i)
		kids := children[i]
		for k := len(kids) - 1; k >= 0; k-- {
			stack = append(stack, kids[k])
		}
	}
	return order
}
