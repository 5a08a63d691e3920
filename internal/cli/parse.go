package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/pkg/graph"
	"github.com/matzehuels/stackflow/pkg/parser"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// Output formats for the parse command.
const (
	formatJSON = "json"
	formatText = "text"
)

// parseCommand creates the parse command for compiling diagram text into a graph.
func (c *CLI) parseCommand() *cobra.Command {
	var (
		output  string
		format  string
		noCache bool
		refresh bool
		flags   compileFlags
	)

	cmd := &cobra.Command{
		Use:   "parse [diagram.mmd|-]",
		Short: "Compile flowchart text into a graph",
		Long: `Compile flowchart text into the canonical graph.

The grammar parser is tried first. If it rejects the input, or the records it
produces cannot be built into a consistent graph, the heuristic parser takes
over, so parse never fails on malformed text.

With --format json (default) the output is graph.json, the input of 'layout'.
With --format text the graph is written back as normalized flowchart text.

Use "-" to read from stdin. The output defaults to <input>.graph.json, or
stdout when reading from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatText {
				return fmt.Errorf("unknown format %q (want json or text)", format)
			}
			opts := c.config.PipelineOptions()
			opts.Refresh = refresh
			flags.apply(cmd.Flags(), &opts)

			src, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return c.runParse(cmd, string(src), args[0], output, format, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json, - for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, text")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompile and overwrite cached results")
	flags.register(cmd.Flags())

	return cmd
}

func (c *CLI) runParse(cmd *cobra.Command, src, input, output, format string, noCache bool, opts pipeline.Options) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx), "compiled")
	res, cacheHit, err := runner.CompileWithCacheInfo(ctx, src, opts)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	prog.done("path", res.Path, "nodes", len(res.Graph.Nodes), "edges", len(res.Graph.Edges), "cached", cacheHit)

	var data []byte
	switch format {
	case formatText:
		data = []byte(parser.Format(res.Graph))
	default:
		var buf bytes.Buffer
		if err := graph.WriteGraph(res.Graph, &buf); err != nil {
			return fmt.Errorf("encode graph: %w", err)
		}
		data = buf.Bytes()
	}

	if output == "" {
		suffix := ".graph.json"
		if format == formatText {
			suffix = ".flow.mmd"
		}
		output = defaultOutput(input, suffix)
	}
	if err := writeOutput(cmd, output, data); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	r := newReporter(cmd)
	r.done("Diagram compiled")
	r.file(output)
	r.summary(summarizeCompile(res, cacheHit))
	r.fallback(res.FallbackReason)
	if format == formatJSON {
		r.next("Layout", appName+" layout "+output)
	}
	return nil
}
