// Package sink writes scenes in their output formats.
//
// [RenderSVG] produces a standalone SVG document. Every element carries an id
// built from the scene's prefix, the element kind and the node index:
//
//	<prefix>-node-3   circle of node 3
//	<prefix>-edge-3   branch from node 3 to its ancestor
//	<prefix>-label-3  label of node 3
//	<prefix>-mut-3    mutation label on the branch above node 3
//
// [RenderJSON] dumps the same elements plus the node plot coordinates for
// clients that draw themselves. [RenderPNG] and [RenderPDF] go through SVG and
// need rsvg-convert (see pkg/render).
package sink
