// Package figures holds the fixed drawings used in the workshop workbooks.
package figures

import (
	"maps"
	"slices"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/render/scene"
)

// Figure names.
const (
	CoalescentTreeName = "coalescent_tree"
	CoalescentPlotName = "coalescent_plot"
)

// CoalescentAncestors and CoalescentBranches describe the seven-node tree of
// the coalescent hands-on: four samples (nodes 0-3) joined by three
// coalescent events (nodes 4-6).
var (
	CoalescentAncestors = []int{4, 4, 5, 6, 5, 6, -1}
	CoalescentBranches  = []float64{1, 1, 2, 3, 1, 2, 0}
)

var registry = map[string]func() (*scene.Scene, error){
	CoalescentTreeName: func() (*scene.Scene, error) { return CoalescentTree(), nil },
	CoalescentPlotName: CoalescentPlot,
}

// Names lists the available figures.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Lookup draws the named figure.
func Lookup(name string) (*scene.Scene, error) {
	draw, ok := registry[name]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeFigureNotFound, "no figure %q", name)
	}
	return draw()
}

// CoalescentTree is the hand-placed drawing of the hands-on tree on a
// 210x210 canvas. Sample labels sit below and right of their node.
func CoalescentTree() *scene.Scene {
	const (
		r        = 5
		fontSize = 18
		color    = "black"
	)
	nodes := []struct {
		x, y   float64
		label  string
		lx, ly float64
	}{
		{10, 190, "1", 20, 210},
		{70, 190, "2", 80, 210},
		{130, 190, "3", 140, 210},
		{200, 190, "4", 200, 210},
		{40, 140, "5", 50, 150},
		{90, 100, "6", 100, 110},
		{130, 10, "7", 140, 20},
	}

	s := scene.New(210, 210, "coal")
	for i, n := range nodes {
		s.Append(
			scene.Circle{Node: i, CX: n.x, CY: n.y, R: r, Fill: color, Stroke: color},
			scene.Text{Node: i, X: n.lx, Y: n.ly, Content: n.label, FontSize: fontSize},
		)
	}
	// branches run from the ancestor down, root first
	for _, e := range [][2]int{{6, 5}, {6, 3}, {5, 2}, {5, 4}, {4, 1}, {4, 0}} {
		a, c := nodes[e[0]], nodes[e[1]]
		s.Append(scene.Line{Node: e[1], Ancestor: e[0], X1: a.x, Y1: a.y, X2: c.x, Y2: c.y, Stroke: color})
	}
	return s
}

// CoalescentPlot draws the same tree from its ancestry with the automatic
// layout, for comparison with the hand-placed version.
func CoalescentPlot() (*scene.Scene, error) {
	return scene.PlotAncestry(CoalescentAncestors, CoalescentBranches,
		scene.WithSize(210, 210),
		scene.WithIDPrefix("coalplot"),
		scene.WithNodeSize(5),
		scene.WithNodeLabels(true),
		scene.WithLabelJitter(10, 10),
	)
}
