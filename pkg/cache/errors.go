package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNetwork is returned when a remote backend cannot be reached.
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrUnknownBackend is returned by [Open] for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Startup ping schedule for remote backends. The delay doubles after each
// failed attempt.
var (
	pingAttempts = 3
	pingDelay    = time.Second
)

// BackendError reports a remote backend that never answered its startup
// ping. It matches [ErrNetwork] with errors.Is.
type BackendError struct {
	Backend  string
	Target   string
	Attempts int
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s cache at %s: no answer after %d attempts: %v", e.Backend, e.Target, e.Attempts, e.Err)
}

func (e *BackendError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// waitForBackend calls ping until it succeeds, the attempts run out or ctx
// is done.
func waitForBackend(ctx context.Context, backend, target string, ping func(context.Context) error) error {
	delay := pingDelay
	for attempt := 1; ; attempt++ {
		err := ping(ctx)
		if err == nil {
			return nil
		}
		if attempt >= pingAttempts {
			return &BackendError{Backend: backend, Target: target, Attempts: attempt, Err: err}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
