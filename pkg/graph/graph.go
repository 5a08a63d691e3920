package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes. Node and edge order
// is preserved and nil slices are written as empty arrays.
func MarshalGraph(g diagram.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g diagram.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g diagram.Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
func ReadGraphFile(path string) (diagram.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return diagram.Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader. The result is checked
// with [diagram.Graph.Validate].
func ReadGraph(r io.Reader) (diagram.Graph, error) {
	return readGraphFrom(r)
}

// UnmarshalGraph decodes and validates a JSON graph.
func UnmarshalGraph(data []byte) (diagram.Graph, error) {
	return readGraphFrom(bytes.NewReader(data))
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g diagram.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalizeGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (diagram.Graph, error) {
	var g diagram.Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return diagram.Graph{}, fmt.Errorf("decode: %w", err)
	}
	g = normalizeGraph(g)
	if err := g.Validate(); err != nil {
		return diagram.Graph{}, fmt.Errorf("invalid graph: %w", err)
	}
	return g, nil
}

func normalizeGraph(g diagram.Graph) diagram.Graph {
	if g.Nodes == nil {
		g.Nodes = []diagram.Node{}
	}
	if g.Edges == nil {
		g.Edges = []diagram.Edge{}
	}
	return g
}
