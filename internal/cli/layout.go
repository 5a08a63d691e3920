package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/pkg/diagram"
	pkgerrors "github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/graph"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// layoutCommand creates the layout command for positioning a compiled graph.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json|-]",
		Short: "Compute a positioned layout from a graph",
		Long: `Compute a positioned layout from a graph.

The layout command takes a graph.json file (produced by 'parse') and assigns
every node a position and size. Diagrams with groups are laid out group by
group and stacked; flat diagrams are placed in one pass and then run through
the overlap resolver.

The output is a layout.json file that 'inspect' can display.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.config.PipelineOptions()
			opts.Refresh = refresh
			flags.apply(cmd.Flags(), &opts)
			return c.runLayout(cmd, args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, - for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute and overwrite cached results")
	flags.register(cmd.Flags())

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(cmd *cobra.Command, input string, opts pipeline.Options, output string, noCache bool) error {
	ctx := cmd.Context()

	data, err := readInput(cmd, input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	g, err := graph.UnmarshalGraph(data)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx), "laid out")
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	res, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("nodes", len(res.Layout.Nodes), "cached", cacheHit)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = defaultOutput(input, ".layout.json")
	}
	if err := writeLayout(cmd, res.Layout, sourcePathFor(input), output); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	r := newReporter(cmd)
	r.done("Layout complete")
	r.file(output)
	r.summary(summarizeGraph(g, cacheHit))
	r.layoutReport(res.Overlap, res.Unplaced)
	r.next("Inspect", appName+" inspect "+output)

	return nil
}

func writeLayout(cmd *cobra.Command, l diagram.Layout, sourcePath, output string) error {
	data, err := graph.MarshalLayout(graph.FromLayout(l, sourcePath))
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return writeOutput(cmd, output, data)
}

// sourcePathFor returns input when it is safe to record in a layout file.
func sourcePathFor(input string) string {
	if input == "-" || pkgerrors.ValidatePath(input) != nil {
		return ""
	}
	return input
}
