// Package nodelink renders trees as Graphviz node-link diagrams.
//
// Unlike pkg/render/scene, which keeps the tree's own coordinates, this view
// lets Graphviz place the nodes. It is handy for checking topology when the
// coordinates are off.
//
//	dot := nodelink.ToDOT(t, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [RenderPDF] and [RenderPNG] go through SVG and need rsvg-convert.
package nodelink
