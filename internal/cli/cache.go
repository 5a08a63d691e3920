package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the graph and layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached graphs and layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.backendName() == cache.BackendNone {
				newReporter(cmd).note("Cache is disabled")
				return nil
			}
			cc, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				return fmt.Errorf("cache backend %s cannot be cleared", c.backendName())
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			r := newReporter(cmd)
			r.done("Cache cleared")
			r.field("Backend", c.backendName())
			if fc, ok := cc.(*cache.FileCache); ok {
				r.field("Directory", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if b := c.backendName(); b != cache.BackendFile {
				return fmt.Errorf("cache backend is %s, not a directory", b)
			}
			dir := c.config.Cache.Dir
			if dir == "" {
				var err error
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func (c *CLI) backendName() string {
	if c.config.Cache.Backend == "" {
		return cache.BackendFile
	}
	return c.config.Cache.Backend
}
