// Package tree provides the genealogical tree model drawn by coaldraw.
//
// # Overview
//
// A [Tree] is an ordered slice of [Node] values. Each node carries an
// abstract layout coordinate (conventionally rank on x and time on y, with
// larger y more ancestral), a leaf flag, a display label and the index of its
// ancestor. Ancestor links are plain indices into the same slice, so a tree
// owns no pointers and copying or discarding it is trivial. The root has
// [NoAncestor].
//
// Renderers only read a tree. Plot coordinates are computed separately by
// pkg/render/layout and never written back onto nodes.
//
// # Construction
//
// Trees come either from explicit nodes:
//
//	t, err := tree.New(
//	    tree.Node{Coords: tree.Coordinate{X: 1, Y: 2}, Ancestor: tree.NoAncestor, Label: "R"},
//	    tree.Node{Coords: tree.Coordinate{X: 0, Y: 0}, Ancestor: 0, Leaf: true, Label: "A"},
//	    tree.Node{Coords: tree.Coordinate{X: 2, Y: 0}, Ancestor: 0, Leaf: true, Label: "B"},
//	)
//
// or from an ancestry description with branch lengths, see [Build]:
//
//	t, err := tree.Build([]int{2, 2, -1}, []float64{1, 1, 0})
//
// # Serialization
//
// [Document] is the JSON wire format used for files, the HTTP API, cache keys
// and the gallery store. [Read], [ReadFile], [Write] and [WriteFile] convert
// between trees and JSON.
package tree
