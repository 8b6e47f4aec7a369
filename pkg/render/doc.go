// Package render turns genealogical trees into pictures.
//
// # Overview
//
// Rendering happens in three steps, each in its own subpackage:
//
//   - [layout] maps tree coordinates onto a canvas
//   - [scene] turns the fitted tree into circles, lines and labels
//   - [sink] writes a scene as SVG, JSON, PNG or PDF
//
// The [nodelink] subpackage offers an alternative view: the same tree handed
// to Graphviz, which picks its own node positions.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// from librsvg. Both the scene sinks and the Graphviz renderer use them.
//
//	svg := sink.RenderSVG(s)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// Use [Available] to check for the tool up front.
package render
