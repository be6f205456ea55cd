package sharedresource

import (
	"time"

	"github.com/SatelliteQE/rendezvous/internal/logging"
)

// Default poll intervals.
const (
	DefaultPollInterval      = 60 * time.Second
	DefaultReadyPollInterval = time.Second
)

// Option configures a Resource.
type Option func(*Resource)

// WithRecoverable declares the action recoverable: a failed invocation
// publishes action_error and a ready follower may retry it.
func WithRecoverable(recoverable bool) Option {
	return func(r *Resource) {
		r.recoverable = recoverable
	}
}

// WithDir sets the directory holding the state file. Defaults to
// os.TempDir(). The directory is never created.
func WithDir(dir string) Option {
	return func(r *Resource) {
		r.dir = dir
	}
}

// WithArgs sets the positional arguments passed to the action.
func WithArgs(args ...any) Option {
	return func(r *Resource) {
		r.args = args
	}
}

// WithKwargs sets the keyword arguments passed to the action.
func WithKwargs(kwargs map[string]any) Option {
	return func(r *Resource) {
		r.kwargs = kwargs
	}
}

// WithPollInterval sets how often a follower re-reads the leader status.
func WithPollInterval(d time.Duration) Option {
	return func(r *Resource) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithReadyPollInterval sets how often the leader re-checks readiness
// and teardown progress.
func WithReadyPollInterval(d time.Duration) Option {
	return func(r *Resource) {
		if d > 0 {
			r.readyPollInterval = d
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resource) {
		if logger != nil {
			r.baseLogger = logger
		}
	}
}

// WithFileEvents wakes pollers early when the state file changes. Polling
// stays in place as a fallback.
func WithFileEvents(enabled bool) Option {
	return func(r *Resource) {
		r.fileEvents = enabled
	}
}

// WithID overrides the generated watcher id.
func WithID(id string) Option {
	return func(r *Resource) {
		r.id = id
	}
}
