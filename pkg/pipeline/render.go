package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/observability"
	"github.com/matzehuels/coaldraw/pkg/render"
	"github.com/matzehuels/coaldraw/pkg/render/nodelink"
	"github.com/matzehuels/coaldraw/pkg/render/scene"
	"github.com/matzehuels/coaldraw/pkg/render/sink"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

// Drawing is the output of the drawing stage: a scene for viz "plot", or DOT
// source for viz "dot". DOT is also set for a plot when the dot format is
// requested.
type Drawing struct {
	Viz   string
	Scene *scene.Scene
	DOT   string
}

// DrawTree runs the drawing stage. Options must already be validated.
func DrawTree(ctx context.Context, t *tree.Tree, opts Options) (d Drawing, err error) {
	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.VizType, t.Len())
	defer func() {
		observability.Pipeline().OnLayoutComplete(ctx, opts.VizType, time.Since(start), err)
	}()

	if err := t.Validate(); err != nil {
		return Drawing{}, invalidTree(err)
	}
	d.Viz = opts.VizType
	if opts.IsDot() || slices.Contains(opts.Formats, FormatDOT) {
		d.DOT = nodelink.ToDOT(t, nodelink.Options{Detailed: opts.Detailed, Lengths: true})
	}
	if !opts.IsDot() {
		s, err := scene.Draw(t, opts.SceneOptions()...)
		if err != nil {
			return Drawing{}, invalidTree(err)
		}
		d.Scene = s
	}
	return d, nil
}

// RenderDrawing exports a drawing in every requested format.
func RenderDrawing(ctx context.Context, d Drawing, opts Options) (artifacts map[string][]byte, err error) {
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error
		if d.Viz == VizDot || format == FormatDOT {
			data, err = renderDot(ctx, d.DOT, format, opts)
		} else {
			data, err = renderScene(ctx, d.Scene, format, opts)
		}
		if err != nil {
			return nil, renderError(format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderScene(ctx context.Context, s *scene.Scene, format string, opts Options) ([]byte, error) {
	svgOpts := buildSVGOptions(opts)
	switch format {
	case FormatSVG:
		return sink.RenderSVG(s, svgOpts...), nil
	case FormatJSON:
		return sink.RenderJSON(s, sink.WithJSONIndent(), sink.WithJSONViz(opts.VizType))
	case FormatPNG:
		return sink.RenderPNG(ctx, s, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(opts.Scale))
	case FormatPDF:
		return sink.RenderPDF(ctx, s, svgOpts...)
	}
	return nil, ValidateFormat(format)
}

func renderDot(ctx context.Context, dot, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		return nodelink.RenderPNG(ctx, dot, opts.Scale)
	case FormatPDF:
		return nodelink.RenderPDF(ctx, dot)
	case FormatJSON:
		return nil, cerrors.New(cerrors.ErrCodeInvalidOptions, "json output needs viz %q", VizPlot)
	}
	return nil, ValidateFormat(format)
}

func buildSVGOptions(opts Options) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.CSS != "" {
		out = append(out, sink.WithCSS(opts.CSS))
	}
	if opts.Class != "" {
		out = append(out, sink.WithClass(opts.Class))
	}
	if opts.Background != "" {
		out = append(out, sink.WithBackground(opts.Background))
	}
	return out
}

func renderError(format string, err error) error {
	if errors.Is(err, render.ErrConverterMissing) {
		return cerrors.Wrap(cerrors.ErrCodeUnsupported, err, "%s output needs rsvg-convert", format)
	}
	var coded *cerrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return fmt.Errorf("render %s: %w", format, err)
}

func invalidTree(err error) error {
	return cerrors.Wrap(cerrors.ErrCodeInvalidTree, err, "invalid tree")
}
