package sharedresource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SatelliteQE/rendezvous/internal/errors"
	"github.com/SatelliteQE/rendezvous/internal/logging"
)

// Action is the expensive step run by the leader once every watcher is
// ready.
type Action func(ctx context.Context, inv Invocation) error

// Invocation describes one run of the action.
type Invocation struct {
	Resource string
	Watcher  string
	// Recovering is true when the leader took over after a failed run.
	Recovering bool
	Args       []any
	Kwargs     map[string]any
}

// ActionFunc adapts a function that ignores the invocation details.
func ActionFunc(fn func(ctx context.Context) error) Action {
	return func(ctx context.Context, _ Invocation) error {
		return fn(ctx)
	}
}

// Resource is one participant's handle on a named shared resource.
// A Resource is entered once and exited once.
type Resource struct {
	name   string
	dir    string
	id     string
	action Action

	recoverable       bool
	args              []any
	kwargs            map[string]any
	pollInterval      time.Duration
	readyPollInterval time.Duration
	fileEvents        bool

	baseLogger *logging.Logger
	logger     *logging.Logger
	file       *stateFile
	notify     *notifier

	mu         sync.Mutex
	entered    bool
	exited     bool
	isMain     bool
	wasMain    bool // led at some point; may close the file after stepping down
	recovering bool
	done       bool
	demoted    bool
	actionErr  error // the failure that made this participant step down
}

// New creates a participant for resource name. Nothing touches the
// filesystem until Enter.
func New(name string, action Action, opts ...Option) (*Resource, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if action == nil {
		return nil, errors.NewValidationError("action is required").WithField("action")
	}

	r := &Resource{
		name:              name,
		dir:               os.TempDir(),
		pollInterval:      DefaultPollInterval,
		readyPollInterval: DefaultReadyPollInterval,
		action:            action,
		baseLogger:        logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.dir == "" {
		r.dir = os.TempDir()
	}

	r.file = &stateFile{path: Path(r.dir, name)}
	r.logger = r.baseLogger.WithResource(name).WithWatcher(r.id)
	return r, nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.NewValidationError("resource name is required").WithField("name")
	case name == "." || name == "..":
		return errors.NewValidationError("resource name is reserved").WithField("name").WithValue(name)
	case strings.ContainsRune(name, filepath.Separator):
		return errors.NewValidationError("resource name must not contain a path separator").
			WithField("name").
			WithValue(name)
	}
	return nil
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// ID returns this participant's watcher id.
func (r *Resource) ID() string { return r.id }

// Path returns the state file path.
func (r *Resource) Path() string { return r.file.path }

// Recoverable reports whether failed actions may be retried by a peer.
func (r *Resource) Recoverable() bool { return r.recoverable }

// IsMain reports whether this participant is currently the leader.
func (r *Resource) IsMain() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isMain
}

// Recovering reports whether this participant took over after a failure.
func (r *Resource) Recovering() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recovering
}

// Enter registers this participant. The first registrant becomes leader.
func (r *Resource) Enter(ctx context.Context) error {
	r.mu.Lock()
	if r.entered {
		r.mu.Unlock()
		return errors.NewValidationError("resource already entered").WithField("name").WithValue(r.name)
	}
	r.entered = true
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if r.fileEvents {
		n, err := newNotifier(r.dir, filepath.Base(r.Path()), r.logger)
		if err != nil {
			r.logger.Warn("file events unavailable, polling only", "error", err)
		} else {
			r.notify = n
		}
	}

	leader, err := r.register()
	if err != nil {
		r.closeNotifier()
		return r.wrap("register", err)
	}

	r.mu.Lock()
	r.isMain = leader
	r.wasMain = leader
	r.mu.Unlock()

	r.log().Info("registered", "path", r.Path())
	return nil
}

// Ready marks this participant ready and blocks until the action has
// completed. The leader runs the action itself.
func (r *Resource) Ready(ctx context.Context) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	if err := r.setSelf(StatusReady); err != nil {
		return r.wrap("signal ready", err)
	}
	r.log().Debug("ready")
	return r.wait(ctx)
}

// Done marks this participant complete. Exit calls it on normal exit;
// calling it first is harmless. The status is written even when ctx is
// already canceled.
func (r *Resource) Done(ctx context.Context) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	return r.markDone()
}

// markDone publishes done. It does not look at any context: a participant
// leaving its scope must not stay pending or ready in the state file.
func (r *Resource) markDone() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done {
		return nil
	}

	if err := r.setSelf(StatusDone); err != nil {
		return r.wrap("mark done", err)
	}
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
	r.log().Debug("done")
	return nil
}

// Exit leaves the scope. scopeErr is the caller's failure inside the
// scope, if any.
//
// On normal exit the participant is marked done. The leader then waits
// for every watcher to finish and removes the state file when all of
// them are done. On abnormal exit the participant is marked error, the
// leader also publishes error, and scopeErr is returned, joined with
// any teardown failure. The state file is kept for inspection.
//
// Status writes ignore ctx; it only bounds the leader's teardown wait.
func (r *Resource) Exit(ctx context.Context, scopeErr error) error {
	r.mu.Lock()
	if !r.entered || r.exited {
		r.mu.Unlock()
		return scopeErr
	}
	r.exited = true
	r.mu.Unlock()
	defer r.closeNotifier()

	if scopeErr != nil {
		if err := r.fail(); err != nil {
			return errors.Join(scopeErr, err)
		}
		return scopeErr
	}

	if err := r.markDone(); err != nil {
		return err
	}

	// Only the teardown wait honors cancellation.
	return r.finish(ctx)
}

// fail publishes the abnormal exit of this participant.
func (r *Resource) fail() error {
	log := r.log()
	var err error
	if r.IsMain() {
		err = r.setBoth(StatusError, MainError)
	} else {
		err = r.setSelf(StatusError)
	}
	if err != nil {
		log.Error("failed to publish error status", "error", err)
		return r.wrap("publish error", err)
	}
	log.Warn("exited with error")
	return nil
}

// finish runs the normal teardown after Done. The leader waits for
// every watcher to settle; a former leader makes one pass. Whoever finds
// every watcher done removes the file.
func (r *Resource) finish(ctx context.Context) error {
	r.mu.Lock()
	leader, former := r.isMain, r.wasMain
	r.mu.Unlock()
	if !leader && !former {
		return nil
	}

	log := r.log()
	for {
		var finished bool
		err := r.file.withLock(false, func(t *tx) error {
			st, err := t.load()
			if err != nil {
				return err
			}
			switch {
			case st.AllIn(StatusDone):
				finished = true
				log.Info("all watchers done, removing state file")
				return t.remove()
			case st.Settled() || !leader:
				finished = true
				log.Info("leaving state file in place", "counts", st.Counts())
			}
			return nil
		})
		if errors.Is(err, errors.ErrNotInitialized) {
			// Every watcher was done and a peer already removed the file.
			return nil
		}
		if err != nil {
			return r.wrap("teardown", err)
		}
		if finished {
			return nil
		}
		if err := r.sleep(ctx, r.readyPollInterval); err != nil {
			return err
		}
	}
}

// With runs fn inside the scope: Enter, fn, Exit. fn's error is the scope
// error. A panic in fn is published as a scope failure and re-raised
// after Exit.
func (r *Resource) With(ctx context.Context, fn func(ctx context.Context, r *Resource) error) (err error) {
	if err := r.Enter(ctx); err != nil {
		return err
	}

	var panicked any
	func() {
		defer func() {
			if p := recover(); p != nil {
				panicked = p
				err = fmt.Errorf("panic in scope: %v", p)
			}
		}()
		err = fn(ctx, r)
	}()

	err = r.Exit(ctx, err)
	if panicked != nil {
		panic(panicked)
	}
	return err
}

// Run creates a participant for name and runs fn inside its scope.
func Run(ctx context.Context, name string, action Action, fn func(ctx context.Context, r *Resource) error, opts ...Option) error {
	r, err := New(name, action, opts...)
	if err != nil {
		return err
	}
	return r.With(ctx, fn)
}

func (r *Resource) checkActive() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.entered {
		return errors.NewValidationError("resource not entered").WithField("name").WithValue(r.name)
	}
	if r.exited {
		return errors.NewValidationError("resource already exited").WithField("name").WithValue(r.name)
	}
	return nil
}

func (r *Resource) role() string {
	if r.IsMain() {
		return "leader"
	}
	return "follower"
}

func (r *Resource) log() *logging.Logger {
	return r.logger.WithRole(r.role())
}

func (r *Resource) wrap(op string, err error) error {
	var resErr *errors.ResourceError
	if errors.As(err, &resErr) {
		return err
	}
	return errors.NewResourceError(op, err).WithResource(r.name).WithWatcher(r.id)
}

func (r *Resource) closeNotifier() {
	if r.notify == nil {
		return
	}
	if err := r.notify.Close(); err != nil {
		r.logger.Debug("closing file watcher", "error", err)
	}
	r.notify = nil
}
