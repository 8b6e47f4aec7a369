// Package pkg provides the libraries behind coaldraw, a tool that draws
// coalescent genealogies for population genetics workshops.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [tree] - genealogical trees: nodes, validation, construction from
//     ancestor indices and branch lengths, JSON encoding
//  2. [render] - layout, drawing primitives and output sinks
//  3. [pipeline] - orchestration (validate → layout → render → cache)
//  4. [workbook] - the workshop notebooks: palette, stylesheet, figures
//  5. [quiz] - quiz questions and answer checking
//  6. [cache], [store], [config], [errors], [observability] - infrastructure
//
// # Architecture
//
//	ancestor indices + branch lengths
//	         ↓
//	    [tree] package (Build, Validate)
//	         ↓
//	    [render/layout] package (fit onto the canvas)
//	         ↓
//	    [render/scene] or [render/nodelink] (primitives or Graphviz DOT)
//	         ↓
//	    [render/sink] (SVG/JSON/PNG/PDF)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/coaldraw/pkg/render/scene"
//	    "github.com/matzehuels/coaldraw/pkg/render/sink"
//	    "github.com/matzehuels/coaldraw/pkg/tree"
//	)
//
//	t, err := tree.Build([]int{4, 4, 5, 6, 5, 6, -1}, []float64{1, 1, 2, 3, 1, 2, 0})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := scene.Draw(t, scene.WithNodeLabels(false))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("tree.svg", sink.RenderSVG(s), 0644)
//
// For cached, multi-format rendering use [pipeline.Runner]; the coaldraw
// command and its HTTP server are built on it.
package pkg
