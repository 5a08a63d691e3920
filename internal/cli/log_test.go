package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/parser"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"InfoAtInfo", log.InfoLevel, func(l *log.Logger) { l.Info("cache hit") }, true},
		{"DebugAtInfo", log.InfoLevel, func(l *log.Logger) { l.Debug("cache key") }, false},
		{"DebugAtDebug", log.DebugLevel, func(l *log.Logger) { l.Debug("cache key") }, true},
		{"WarnAtError", log.ErrorLevel, func(l *log.Logger) { l.Warn("fallback") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("wrote output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressLogsStageFields(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel), "compiled")
	prog.done("path", parser.PathFallback, "nodes", 3)

	got := buf.String()
	for _, want := range []string{"compiled", "path=fallback", "nodes=3", "elapsed="} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestProgressQuietBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel), "laid out").done("nodes", 1)
	if buf.Len() != 0 {
		t.Errorf("progress at warn level wrote %q", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("bare context should yield the default logger")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Fatal("attached logger not returned")
	}
	loggerFromContext(ctx).Info("runner ready")
	if !strings.Contains(buf.String(), "runner ready") {
		t.Errorf("output = %q", buf.String())
	}
}
