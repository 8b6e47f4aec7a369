package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/coaldraw/pkg/render/scene"
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	css        string
	class      string
	background string
}

// WithCSS embeds a stylesheet in the drawing.
func WithCSS(css string) SVGOption { return func(r *svgRenderer) { r.css = css } }

// WithClass sets the class attribute of the root element.
func WithClass(c string) SVGOption { return func(r *svgRenderer) { r.class = c } }

// WithBackground fills the canvas with a solid colour.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// RenderSVG serializes a scene as a standalone SVG document. Elements are
// written in scene order; element ids are derived from the scene's id prefix
// and the node index.
func RenderSVG(s *scene.Scene, opts ...SVGOption) []byte {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s"`,
		num(s.Width), num(s.Height), num(s.Width), num(s.Height))
	if r.class != "" {
		fmt.Fprintf(&buf, ` class="%s"`, escape(r.class))
	}
	buf.WriteString(">\n")

	if r.css != "" {
		fmt.Fprintf(&buf, "  <style><![CDATA[\n%s\n  ]]></style>\n", strings.ReplaceAll(r.css, "]]>", "]]]]><![CDATA[>"))
	}
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%s" height="%s" fill="%s"/>`+"\n",
			num(s.Width), num(s.Height), escape(r.background))
	}

	ids := newIDs(s.IDPrefix)
	for _, el := range s.Elements {
		switch e := el.(type) {
		case scene.Circle:
			fmt.Fprintf(&buf, `  <circle%s cx="%s" cy="%s" r="%s" fill="%s" stroke="%s"/>`+"\n",
				ids.attr("node", e.Node), num(e.CX), num(e.CY), num(e.R), escape(e.Fill), escape(e.Stroke))
		case scene.Line:
			fmt.Fprintf(&buf, `  <line%s x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
				ids.attr("edge", e.Node), num(e.X1), num(e.Y1), num(e.X2), num(e.Y2), escape(e.Stroke))
		case scene.Text:
			kind := "label"
			if e.Mutation {
				kind = "mut"
			}
			anchor := ""
			if e.Center {
				anchor = ` text-anchor="middle" dominant-baseline="central"`
			}
			fmt.Fprintf(&buf, `  <text%s x="%s" y="%s" font-size="%s"%s>%s</text>`+"\n",
				ids.attr(kind, e.Node), num(e.X), num(e.Y), num(e.FontSize), anchor, escape(e.Content))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// idSet hands out element ids, keeping them unique within one drawing.
type idSet struct {
	prefix string
	seen   map[string]int
}

func newIDs(prefix string) *idSet {
	return &idSet{prefix: prefix, seen: make(map[string]int)}
}

// attr returns an id attribute for a node-bound element, or "" for elements
// that are not tied to a node and no prefix is set.
func (s *idSet) attr(kind string, node int) string {
	if node < 0 && s.prefix == "" {
		return ""
	}
	base := kind
	if node >= 0 {
		base = fmt.Sprintf("%s-%d", kind, node)
	}
	if s.prefix != "" {
		base = s.prefix + "-" + base
	}
	id := base
	if n := s.seen[base]; n > 0 {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	s.seen[base]++
	return fmt.Sprintf(` id="%s"`, escape(id))
}

// num formats a coordinate compactly: integers without decimals, everything
// else with at most three.
func num(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
