package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/internal/api"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile and layout API over HTTP",
		Long: `Serve the compile and layout API over HTTP.

Endpoints:
  GET  /healthz      liveness probe
  GET  /version      build information
  POST /v1/parse     {"source": "..."} → graph
  POST /v1/layout    {"graph": {...}} → layout
  POST /v1/compile   {"source": "..."} → graph and layout

Every POST body may carry an "options" object with the same settings as the
command-line flags. The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			srv := api.NewServer(runner, c.Logger, cfg)
			newReporter(cmd).note("Serving on %s", styleLink.Render("http://"+cfg.Addr))
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", api.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
