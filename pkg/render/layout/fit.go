// Package layout fits a tree's abstract coordinates onto a drawing canvas.
//
// [Fit] is a pure function: it reads node coordinates and returns a [Plot]
// indexed like the tree's nodes. The tree itself is never modified.
//
// Horizontally the tree fills the middle 90% of the width (5% margin per
// side). Vertically it fills the middle 80% of the height (10% margin top and
// bottom), reflected so that the most ancestral node (largest raw y) is drawn
// at the top. An axis on which every node shares the same raw value is
// centred on the canvas instead of being scaled.
package layout

import (
	"math"

	"github.com/matzehuels/coaldraw/pkg/tree"
)

// Canvas margins as fractions of the frame size.
const (
	MarginX = 0.05 // left and right margin
	SpanX   = 0.9  // horizontal fill
	MarginY = 0.1  // top and bottom margin
	SpanY   = 0.8  // vertical fill
)

// Plot holds the screen position of every node, indexed by node index.
type Plot []tree.Coordinate

// Fit maps each node's raw coordinate into a width x height canvas.
//
// An empty tree yields an empty plot. If all raw x values are equal every
// node is placed at x = width/2; likewise all-equal raw y values place every
// node at y = height/2. Single-node trees are centred on both axes.
func Fit(t *tree.Tree, width, height float64) Plot {
	n := len(t.Nodes)
	if n == 0 {
		return Plot{}
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	maxY, minY := math.Inf(-1), math.Inf(1)
	for _, node := range t.Nodes {
		minX = math.Min(minX, node.Coords.X)
		maxX = math.Max(maxX, node.Coords.X)
		minY = math.Min(minY, node.Coords.Y)
		maxY = math.Max(maxY, node.Coords.Y)
	}

	plot := make(Plot, n)
	for i, node := range t.Nodes {
		x := width / 2
		if maxX > minX {
			x = unit(node.Coords.X, minX, maxX)*SpanX*width + MarginX*width
		}
		y := height / 2
		if maxY > minY {
			// reflected: the largest raw y lands on the top margin
			y = unit(-node.Coords.Y, -maxY, -minY)*SpanY*height + MarginY*height
		}
		plot[i] = tree.Coordinate{X: x, Y: y}
	}
	return plot
}

// unit maps v from [lo, hi] onto [0, 1]. Spans too wide for a float64 are
// halved first so the result stays finite.
func unit(v, lo, hi float64) float64 {
	if span := hi - lo; !math.IsInf(span, 0) {
		return (v - lo) / span
	}
	return (v/2 - lo/2) / (hi/2 - lo/2)
}

// Bounds returns the smallest and largest plotted coordinates on each axis.
// It returns zero values for an empty plot.
func (p Plot) Bounds() (lo, hi tree.Coordinate) {
	if len(p) == 0 {
		return lo, hi
	}
	lo, hi = p[0], p[0]
	for _, c := range p[1:] {
		lo.X, lo.Y = math.Min(lo.X, c.X), math.Min(lo.Y, c.Y)
		hi.X, hi.Y = math.Max(hi.X, c.X), math.Max(hi.Y, c.Y)
	}
	return lo, hi
}

