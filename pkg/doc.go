// Package pkg provides the core libraries for Stackflow diagram compilation.
//
// # Overview
//
// Stackflow turns flowchart text into a canonical node/edge graph and then
// into a positioned layout. The pkg directory is organized into three areas:
//
//  1. Domain logic: [diagram], [parser], [dag], [layout]
//  2. Serialization and orchestration: [graph], [pipeline]
//  3. Infrastructure: [cache], [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow through Stackflow:
//
//	Flowchart text
//	      ↓
//	 [parser] package (preprocess → grammar or heuristic fallback → build)
//	      ↓
//	 [diagram] Graph (typed nodes, groups, edges)
//	      ↓
//	 [layout] package (per-group placement via [dag] or Graphviz, overlap resolver)
//	      ↓
//	 [graph] Layout JSON
//
// # Quick Start
//
//	res, _ := parser.Compile(ctx, "flowchart LR\n  A[Client] --> B[(DB)]")
//	out, _ := layout.Layout(ctx, res.Graph, layout.DefaultConfig())
//	data, _ := graph.MarshalLayout(graph.FromLayout(out.Layout, ""))
//
// With caching, as the CLI and HTTP server do it:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, _ := runner.Execute(ctx, src, pipeline.Options{Direction: "LR"})
//
// # Main Packages
//
// [diagram] - The canonical model: node types, categories, shapes, groups,
// edges and positioned layouts, plus the label classifier.
//
// [parser] - Source preprocessing, the grammar interpreter, the heuristic
// fallback and the graph builder. Compilation never fails on malformed text.
//
// [dag] - Layered graph structure used by the built-in Sugiyama placer, with
// cycle breaking, layering and crossing reduction in [dag/transform].
//
// [layout] - Group-aware layout engine with pluggable placers and the
// pairwise overlap resolver for flat diagrams.
//
// [graph] - JSON formats for graphs and layouts.
//
// [pipeline] - Compile → layout orchestration with result caching, used by
// the CLI and the HTTP server.
//
// [cache] - File, Redis and MongoDB cache backends behind one interface.
//
// [diagram]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/diagram
// [parser]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/parser
// [dag]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/dag/transform
// [layout]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/stackflow/pkg/buildinfo
package pkg
