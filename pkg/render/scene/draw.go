package scene

import (
	"fmt"

	"github.com/matzehuels/coaldraw/pkg/render/layout"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

// Defaults for [Draw].
const (
	DefaultWidth    = 400.0
	DefaultHeight   = 200.0
	DefaultFontSize = 18.0
	DefaultColor    = "black"

	// mutationScale shrinks mutation labels relative to node labels.
	mutationScale = 0.75
)

// Option configures [Draw].
type Option func(*options)

type options struct {
	width, height  float64
	idPrefix       string
	nodeLabels     bool
	showInternal   bool
	fontSize       float64
	mutationLabels map[int]string
	nodeSize       float64
	jitter         tree.Coordinate
	fill, stroke   string
}

func defaultOptions() options {
	return options{
		width:    DefaultWidth,
		height:   DefaultHeight,
		fontSize: DefaultFontSize,
		fill:     DefaultColor,
		stroke:   DefaultColor,
	}
}

// WithSize sets the canvas size.
func WithSize(width, height float64) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithIDPrefix sets the prefix used for SVG element ids so several drawings
// can share one HTML page.
func WithIDPrefix(p string) Option { return func(o *options) { o.idPrefix = p } }

// WithNodeLabels draws labels for leaves, and for internal nodes too when
// showInternal is set.
func WithNodeLabels(showInternal bool) Option {
	return func(o *options) { o.nodeLabels, o.showInternal = true, showInternal }
}

// WithFontSize sets the label font size.
func WithFontSize(size float64) Option { return func(o *options) { o.fontSize = size } }

// WithNodeSize sets the radius of node markers. Zero keeps nodes invisible.
func WithNodeSize(r float64) Option { return func(o *options) { o.nodeSize = r } }

// WithLabelJitter offsets every node label from its node.
func WithLabelJitter(dx, dy float64) Option {
	return func(o *options) { o.jitter = tree.Coordinate{X: dx, Y: dy} }
}

// WithMutationLabels annotates branches. Keys are node indices; each label is
// placed at the midpoint of the branch above that node.
func WithMutationLabels(labels map[int]string) Option {
	return func(o *options) { o.mutationLabels = labels }
}

// WithColors sets the node fill and the stroke used for markers and edges.
func WithColors(fill, stroke string) Option {
	return func(o *options) { o.fill, o.stroke = fill, stroke }
}

// LabelVisible reports whether node n gets a label: labels must be requested,
// and the node must be a leaf unless internal labels are shown too.
func LabelVisible(n tree.Node, nodeLabels, showInternal bool) bool {
	return nodeLabels && (n.Leaf || showInternal)
}

// Draw lays out t on the canvas and returns the scene: for each node a circle
// at its plot coordinate, a line to its ancestor (roots have none) and, if
// visible, its label. The tree is not modified; plot coordinates are returned
// in [Scene.Plot].
func Draw(t *tree.Tree, opts ...Option) (*Scene, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tree: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	plot := layout.Fit(t, o.width, o.height)
	visible := make([]bool, len(t.Nodes))
	for i, n := range t.Nodes {
		visible[i] = LabelVisible(n, o.nodeLabels, o.showInternal)
	}

	s := New(o.width, o.height, o.idPrefix)
	s.Plot = plot
	for i, n := range t.Nodes {
		p := plot[i]
		s.Append(Circle{Node: i, CX: p.X, CY: p.Y, R: o.nodeSize, Fill: o.fill, Stroke: o.stroke})
		if !n.IsRoot() {
			a := plot[n.Ancestor]
			s.Append(Line{Node: i, Ancestor: n.Ancestor, X1: p.X, Y1: p.Y, X2: a.X, Y2: a.Y, Stroke: o.stroke})
		}
		if visible[i] {
			at := p.Add(o.jitter)
			s.Append(Text{Node: i, X: at.X, Y: at.Y, Content: n.Label, FontSize: o.fontSize, Center: true})
		}
	}
	appendMutations(s, t, plot, o)
	return s, nil
}

// appendMutations draws mutation labels at branch midpoints, in node order.
func appendMutations(s *Scene, t *tree.Tree, plot layout.Plot, o options) {
	if len(o.mutationLabels) == 0 {
		return
	}
	for i, n := range t.Nodes {
		label, ok := o.mutationLabels[i]
		if !ok || n.IsRoot() {
			continue
		}
		p, a := plot[i], plot[n.Ancestor]
		s.Append(Text{
			Node:     i,
			X:        (p.X+a.X)/2 + o.fontSize/2,
			Y:        (p.Y + a.Y) / 2,
			Content:  label,
			FontSize: o.fontSize * mutationScale,
			Mutation: true,
		})
	}
}

// PlotAncestry builds a tree from an ancestry description (see [tree.Build])
// and draws it.
func PlotAncestry(ancestors []int, branches []float64, opts ...Option) (*Scene, error) {
	t, err := tree.Build(ancestors, branches)
	if err != nil {
		return nil, err
	}
	return Draw(t, opts...)
}
