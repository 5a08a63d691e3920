// Package graph provides the JSON wire format for compiled graphs and
// positioned layouts.
//
// The same format is used for files written by the CLI, HTTP API bodies and
// cache entries.
//
// # Graph Serialization
//
// A compiled graph is written as:
//
//	{
//	  "direction": "LR",
//	  "nodes": [{"id": "A", "type": "start", "category": "other", "label": "Start"}],
//	  "edges": [{"id": "e0-A-B", "source": "A", "target": "B", "stroke": "solid", "directed": true}]
//	}
//
// Empty graphs are written as {"nodes": [], "edges": []}. Reading a graph
// validates it, so dangling edges and bad parents are rejected.
//
//	g, _ := graph.ReadGraphFile("flow.json")
//	graph.WriteGraphFile(g, "out.json")
//
// # Layout Serialization
//
// [Layout] adds x, y, width and height to every node plus the page extent:
//
//	l := graph.FromLayout(result.Layout, "flow.mmd")
//	data, _ := graph.MarshalLayout(l)
package graph
