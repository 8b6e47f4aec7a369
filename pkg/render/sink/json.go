package sink

import (
	"encoding/json"

	"github.com/matzehuels/coaldraw/pkg/render/scene"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	indent bool
	viz    string
}

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// WithJSONViz records the visualization type that produced the scene.
func WithJSONViz(v string) JSONOption { return func(r *jsonRenderer) { r.viz = v } }

type jsonOutput struct {
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	IDPrefix string        `json:"id_prefix,omitempty"`
	Viz      string        `json:"viz,omitempty"`
	Nodes    []jsonNode    `json:"nodes,omitempty"`
	Elements []jsonElement `json:"elements"`
}

type jsonNode struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type jsonElement struct {
	Kind     string  `json:"kind"`
	Node     int     `json:"node"`
	Ancestor *int    `json:"ancestor,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	X2       float64 `json:"x2,omitempty"`
	Y2       float64 `json:"y2,omitempty"`
	R        float64 `json:"r,omitempty"`
	Fill     string  `json:"fill,omitempty"`
	Stroke   string  `json:"stroke,omitempty"`
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Center   bool    `json:"center,omitempty"`
	Mutation bool    `json:"mutation,omitempty"`
}

// RenderJSON serializes a scene, including the plot coordinate of every node
// when the scene was drawn from a tree.
func RenderJSON(s *scene.Scene, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Width:    s.Width,
		Height:   s.Height,
		IDPrefix: s.IDPrefix,
		Viz:      r.viz,
		Elements: make([]jsonElement, 0, len(s.Elements)),
	}
	for i, p := range s.Plot {
		out.Nodes = append(out.Nodes, jsonNode{Index: i, X: p.X, Y: p.Y})
	}
	for _, el := range s.Elements {
		out.Elements = append(out.Elements, toJSONElement(el))
	}

	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

func toJSONElement(el scene.Element) jsonElement {
	switch e := el.(type) {
	case scene.Circle:
		return jsonElement{Kind: "circle", Node: e.Node, X: e.CX, Y: e.CY, R: e.R, Fill: e.Fill, Stroke: e.Stroke}
	case scene.Line:
		anc := e.Ancestor
		return jsonElement{Kind: "line", Node: e.Node, Ancestor: &anc, X: e.X1, Y: e.Y1, X2: e.X2, Y2: e.Y2, Stroke: e.Stroke}
	case scene.Text:
		return jsonElement{Kind: "text", Node: e.Node, X: e.X, Y: e.Y, Text: e.Content,
			FontSize: e.FontSize, Center: e.Center, Mutation: e.Mutation}
	}
	return jsonElement{Kind: "unknown", Node: -1}
}
