package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackflow/internal/cli"
	"github.com/matzehuels/stackflow/pkg/cache"
	pkgerrors "github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/observability"
)

// Exit statuses. Scripts can tell bad input apart from an unreachable cache.
const (
	exitFailure     = 1
	exitInvalid     = 2
	exitCacheDown   = 3
	exitInterrupted = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx)
	if err == nil {
		return
	}
	code := exitCode(err)
	if code != exitInterrupted {
		fmt.Fprintln(os.Stderr, "Error:", pkgerrors.UserMessage(err))
	}
	os.Exit(code)
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	observability.Register(observability.NewLogHooks(c.Logger))
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// The level must be set before the root hook loads the config file.
	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if loadConfig == nil {
			return nil
		}
		return loadConfig(cmd, args)
	}

	return root.ExecuteContext(ctx)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, cache.ErrNetwork):
		return exitCacheDown
	}
	if status := pkgerrors.HTTPStatus(pkgerrors.GetCode(err)); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return exitInvalid
	}
	return exitFailure
}
