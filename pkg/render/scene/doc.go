// Package scene turns a genealogical tree into a list of drawing primitives.
//
// # Drawing
//
// [Draw] fits the tree onto the canvas with pkg/render/layout and then emits,
// node by node:
//
//   - a [Circle] at the node's plot coordinate (radius from [WithNodeSize],
//     zero by default so nodes are invisible anchors)
//   - a [Line] from the node to its ancestor, unless the node is the root
//   - a centred [Text] label when [LabelVisible] holds
//
// Branch annotations requested with [WithMutationLabels] follow after all
// nodes.
//
//	s, err := scene.Draw(t,
//	    scene.WithSize(400, 200),
//	    scene.WithNodeLabels(false), // leaves only
//	    scene.WithLabelJitter(0, 15),
//	)
//	svg := sink.RenderSVG(s)
//
// [PlotAncestry] does the same starting from ancestor indices and branch
// lengths.
//
// Scenes can also be assembled by hand with [New] and [Scene.Append], which
// is how the fixed workbook figures are built.
package scene
