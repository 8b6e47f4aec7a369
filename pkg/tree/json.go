package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Document - Serialization Format
// =============================================================================

// Document is the JSON form of a tree. It accepts either an explicit node
// list or an ancestry description handled by [Build]:
//
//	{"nodes": [{"x": 1, "y": 2, "label": "R"}, {"x": 0, "y": 0, "ancestor": 0, "leaf": true}]}
//	{"ancestors": [2, 2, -1], "branches": [1, 1, 0]}
//
// When both are present the node list wins.
type Document struct {
	Nodes     []DocumentNode `json:"nodes,omitempty" bson:"nodes,omitempty"`
	Ancestors []int          `json:"ancestors,omitempty" bson:"ancestors,omitempty"`
	Branches  []float64      `json:"branches,omitempty" bson:"branches,omitempty"`
}

// DocumentNode is the JSON form of a [Node]. A missing or null ancestor marks
// the root.
type DocumentNode struct {
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	Ancestor *int    `json:"ancestor,omitempty" bson:"ancestor,omitempty"`
	Leaf     bool    `json:"leaf,omitempty" bson:"leaf,omitempty"`
	Label    string  `json:"label,omitempty" bson:"label,omitempty"`
}

// ToDocument converts t into its serialization form. The node list is always
// populated.
func ToDocument(t *Tree) Document {
	doc := Document{Nodes: make([]DocumentNode, len(t.Nodes))}
	for i, n := range t.Nodes {
		dn := DocumentNode{X: n.Coords.X, Y: n.Coords.Y, Leaf: n.Leaf, Label: n.Label}
		if !n.IsRoot() {
			a := n.Ancestor
			dn.Ancestor = &a
		}
		doc.Nodes[i] = dn
	}
	return doc
}

// Tree converts the document into a validated tree.
func (d Document) Tree() (*Tree, error) {
	if len(d.Nodes) == 0 {
		if len(d.Ancestors) == 0 {
			return nil, ErrEmptyTree
		}
		return Build(d.Ancestors, d.Branches)
	}

	nodes := make([]Node, len(d.Nodes))
	for i, dn := range d.Nodes {
		n := Node{
			Coords:   Coordinate{X: dn.X, Y: dn.Y},
			Ancestor: NoAncestor,
			Leaf:     dn.Leaf,
			Label:    dn.Label,
		}
		if dn.Ancestor != nil {
			n.Ancestor = *dn.Ancestor
		}
		nodes[i] = n
	}
	return New(nodes...)
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal encodes t as indented JSON in node-list form.
func Marshal(t *Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a validated tree.
func Unmarshal(data []byte) (*Tree, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes t as indented JSON to w.
func Write(t *Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(t)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes t as JSON to path.
func WriteFile(t *Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(t, f)
}

// Read decodes a JSON document from r into a validated tree.
func Read(r io.Reader) (*Tree, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.Tree()
}

// ReadFile reads a JSON tree document from path.
func ReadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
