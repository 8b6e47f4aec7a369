package scene

import (
	"github.com/matzehuels/coaldraw/pkg/render/layout"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

// Element is one drawable primitive of a [Scene]: a [Circle], [Line] or [Text].
type Element interface {
	element()
}

// Circle is a filled disc.
type Circle struct {
	Node   int // node index, or -1 for free-standing figures
	CX, CY float64
	R      float64
	Fill   string
	Stroke string
}

// Line is a straight segment.
type Line struct {
	Node           int // node index of the child end, or -1
	Ancestor       int // node index of the ancestor end, or -1
	X1, Y1, X2, Y2 float64
	Stroke         string
}

// Text is a label anchored at (X, Y).
type Text struct {
	Node     int // node index, or -1
	X, Y     float64
	Content  string
	FontSize float64
	Center   bool // horizontally and vertically centred on the anchor
	Mutation bool // mutation label drawn on a branch
}

func (Circle) element() {}
func (Line) element()   {}
func (Text) element()   {}

// Scene is an ordered list of elements on a fixed-size canvas, ready for
// export by pkg/render/sink.
type Scene struct {
	Width    float64
	Height   float64
	IDPrefix string
	Elements []Element

	// Plot holds the plot coordinate of every node of the drawn tree.
	// It is nil for scenes not produced from a tree.
	Plot layout.Plot
}

// New creates an empty scene.
func New(width, height float64, idPrefix string) *Scene {
	return &Scene{Width: width, Height: height, IDPrefix: idPrefix}
}

// Append adds elements in drawing order.
func (s *Scene) Append(els ...Element) {
	s.Elements = append(s.Elements, els...)
}

// Circles returns the circles in drawing order.
func (s *Scene) Circles() []Circle { return collect[Circle](s) }

// Lines returns the lines in drawing order.
func (s *Scene) Lines() []Line { return collect[Line](s) }

// Texts returns the text elements in drawing order.
func (s *Scene) Texts() []Text { return collect[Text](s) }

func collect[T Element](s *Scene) []T {
	var out []T
	for _, el := range s.Elements {
		if v, ok := el.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// PlotOf returns the plot coordinate of node i, if the scene has one.
func (s *Scene) PlotOf(i int) (tree.Coordinate, bool) {
	if i < 0 || i >= len(s.Plot) {
		return tree.Coordinate{}, false
	}
	return s.Plot[i], true
}
