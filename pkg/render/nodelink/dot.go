package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/coaldraw/pkg/render"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds depth and branch length to node labels.
	Detailed bool

	// Lengths scales edges by branch length so that deeper coalescences
	// sit further from the leaves.
	Lengths bool
}

// ToDOT converts a tree to Graphviz DOT format. Edges point from ancestor to
// descendant so the root is drawn on top. Leaves share the bottom rank.
func ToDOT(t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14, width=0.4, fixedsize=true];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	depths := t.Depths()
	for i, n := range t.Nodes {
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(i), strings.Join(fmtAttrs(n, depths[i], opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range t.Edges() {
		attrs := ""
		if opts.Lengths {
			if l := t.Nodes[e.Ancestor].Coords.Y - t.Nodes[e.Node].Coords.Y; l > 1 {
				attrs = fmt.Sprintf(" [minlen=%d]", int(l+0.5))
			}
		}
		fmt.Fprintf(&buf, "  %s -> %s%s;\n", nodeID(e.Ancestor), nodeID(e.Node), attrs)
	}

	if leaves := t.Leaves(); len(leaves) > 1 {
		ids := make([]string, len(leaves))
		for i, l := range leaves {
			ids[i] = nodeID(l)
		}
		fmt.Fprintf(&buf, "\n  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(i int) string { return "n" + strconv.Itoa(i) }

func fmtAttrs(n tree.Node, depth int, detailed bool) []string {
	label := n.Label
	if detailed {
		label = fmt.Sprintf("%s\ndepth: %d\ny: %s", n.Label, depth, strconv.FormatFloat(n.Coords.Y, 'g', -1, 64))
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if detailed {
		attrs = append(attrs, "shape=box", "style=\"rounded,filled\"", "fixedsize=false")
	}
	if n.Leaf {
		attrs = append(attrs, "fillcolor=\"#a7c947\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based root element with one
// whose size matches its viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	loc := svgTagRe.FindIndex(svg)
	if loc == nil {
		return svg
	}
	out := make([]byte, 0, len(svg))
	out = append(out, svg[:loc[0]]...)
	out = append(out, root...)
	return append(out, svg[loc[1]:]...)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
