package figures

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/render/scene"
)

func TestCoalescentTree(t *testing.T) {
	s := CoalescentTree()
	if s.Width != 210 || s.Height != 210 || s.IDPrefix != "coal" {
		t.Errorf("canvas = %vx%v %q, want 210x210 coal", s.Width, s.Height, s.IDPrefix)
	}

	circles := s.Circles()
	if len(circles) != 7 {
		t.Fatalf("got %d circles, want 7", len(circles))
	}
	if want := (scene.Circle{Node: 6, CX: 130, CY: 10, R: 5, Fill: "black", Stroke: "black"}); circles[6] != want {
		t.Errorf("root circle = %+v, want %+v", circles[6], want)
	}

	var labels []string
	for _, txt := range s.Texts() {
		labels = append(labels, txt.Content)
	}
	if diff := cmp.Diff([]string{"1", "2", "3", "4", "5", "6", "7"}, labels); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}

	lines := s.Lines()
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6", len(lines))
	}
	want := scene.Line{Node: 5, Ancestor: 6, X1: 130, Y1: 10, X2: 90, Y2: 100, Stroke: "black"}
	if lines[0] != want {
		t.Errorf("first line = %+v, want %+v", lines[0], want)
	}
	last := scene.Line{Node: 0, Ancestor: 4, X1: 40, Y1: 140, X2: 10, Y2: 190, Stroke: "black"}
	if lines[5] != last {
		t.Errorf("last line = %+v, want %+v", lines[5], last)
	}
}

func TestCoalescentPlot(t *testing.T) {
	s, err := CoalescentPlot()
	if err != nil {
		t.Fatalf("CoalescentPlot() error: %v", err)
	}
	if len(s.Circles()) != 7 || len(s.Lines()) != 6 || len(s.Texts()) != 7 {
		t.Errorf("got %d circles, %d lines, %d texts", len(s.Circles()), len(s.Lines()), len(s.Texts()))
	}
	// the root sits on the top margin
	if p, _ := s.PlotOf(6); p.Y != 21 {
		t.Errorf("root y = %v, want 21", p.Y)
	}
}

func TestLookup(t *testing.T) {
	if diff := cmp.Diff([]string{CoalescentPlotName, CoalescentTreeName}, Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}
	s, err := Lookup(CoalescentTreeName)
	if err != nil || s == nil {
		t.Fatalf("Lookup(%q) = %v, %v", CoalescentTreeName, s, err)
	}
	if _, err := Lookup("nope"); !cerrors.Is(err, cerrors.ErrCodeFigureNotFound) {
		t.Errorf("Lookup(nope) error = %v, want FIGURE_NOT_FOUND", err)
	}
}
