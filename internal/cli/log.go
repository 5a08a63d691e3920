// Package cli implements the stackflow command-line interface.
//
// This package provides commands for compiling flowchart text into graphs,
// computing layouts, browsing the result and serving the same pipeline over
// HTTP. The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - parse: Compile diagram text into graph.json
//   - layout: Position a graph.json as layout.json
//   - compile: Run parse and layout in one step
//   - inspect: Browse a layout in the terminal
//   - serve: Run the HTTP API
//   - cache, config: Manage the result cache and the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at level, stamped with
// sub-second wall-clock times.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one pipeline stage of a command.
type progress struct {
	logger *log.Logger
	stage  string
	start  time.Time
}

func newProgress(l *log.Logger, stage string) *progress {
	return &progress{logger: l, stage: stage, start: time.Now()}
}

// done logs the stage with its elapsed time and the given key-value pairs.
func (p *progress) done(keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(p.stage, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
