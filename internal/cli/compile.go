package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/pkg/graph"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// compileCommand creates the compile command, which runs parse and layout in one step.
func (c *CLI) compileCommand() *cobra.Command {
	var (
		output   string
		graphOut string
		noCache  bool
		refresh  bool
		cflags   compileFlags
		lflags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "compile [diagram.mmd|-]",
		Short: "Compile flowchart text straight into a positioned layout",
		Long: `Compile flowchart text straight into a positioned layout.

This is 'parse' followed by 'layout' without the intermediate file. Pass
--graph-out to keep the compiled graph as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.config.PipelineOptions()
			opts.Refresh = refresh
			opts.SourcePath = sourcePathFor(args[0])
			cflags.apply(cmd.Flags(), &opts)
			lflags.apply(cmd.Flags(), &opts)

			src, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return c.runCompile(cmd, string(src), args[0], opts, output, graphOut, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, - for stdout)")
	cmd.Flags().StringVar(&graphOut, "graph-out", "", "also write the compiled graph to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute and overwrite cached results")
	cflags.register(cmd.Flags())
	lflags.register(cmd.Flags())

	return cmd
}

func (c *CLI) runCompile(cmd *cobra.Command, src, input string, opts pipeline.Options, output, graphOut string, noCache bool) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx), "compiled and laid out")
	spinner := newSpinnerWithContext(ctx, "Compiling diagram...")
	spinner.Start()

	res, err := runner.Execute(ctx, src, opts)
	if err != nil {
		spinner.StopWithError("Compile failed")
		return err
	}
	spinner.Stop()
	prog.done("path", res.Path, "compile", res.Stats.CompileTime, "layout", res.Stats.LayoutTime)

	if graphOut != "" {
		var buf bytes.Buffer
		if err := graph.WriteGraph(res.Graph, &buf); err != nil {
			return fmt.Errorf("encode graph: %w", err)
		}
		if err := writeOutput(cmd, graphOut, buf.Bytes()); err != nil {
			return err
		}
	}

	if output == "" {
		output = defaultOutput(input, ".layout.json")
	}
	if err := writeLayout(cmd, res.Layout, opts.SourcePath, output); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	r := newReporter(cmd)
	r.done("Diagram compiled")
	r.file(output)
	r.file(graphOut)
	r.summary(summarizePipeline(res))
	r.fallback(res.FallbackReason)
	r.layoutReport(res.Overlap, res.Stats.Unplaced)
	r.next("Inspect", appName+" inspect "+output)

	return nil
}
