package sharedresource

import (
	"context"
	"fmt"
	"slices"

	"github.com/SatelliteQE/rendezvous/internal/errors"
)

// wait blocks until the action has completed, running it when this
// participant leads. Leadership can change hands inside the loop: a
// failed recoverable leader steps down and a follower can take over.
func (r *Resource) wait(ctx context.Context) error {
	for {
		if r.IsMain() {
			steppedDown, err := r.lead(ctx)
			if err != nil || !steppedDown {
				return err
			}
			continue
		}

		promoted, err := r.follow(ctx)
		if err != nil || !promoted {
			return err
		}
	}
}

// lead runs one leadership episode: gate, acting, action, result.
func (r *Resource) lead(ctx context.Context) (steppedDown bool, err error) {
	if err := r.awaitGate(ctx); err != nil {
		return false, err
	}
	if err := r.setMain(MainActing); err != nil {
		return false, r.wrap("publish acting", err)
	}

	log := r.log()
	log.Info("running action", "recovering", r.Recovering())

	actErr := r.invoke(ctx)
	if actErr == nil {
		if err := r.setMain(MainDone); err != nil {
			return false, r.wrap("publish done", err)
		}
		log.Info("action completed")
		return false, nil
	}

	log.Error("action failed", "error", actErr, "recoverable", r.recoverable)
	failure := errors.NewResourceError("run action", fmt.Errorf("%w: %w", errors.ErrActionFailed, actErr)).
		WithResource(r.name).
		WithWatcher(r.id)

	if !r.recoverable {
		if err := r.setMain(MainError); err != nil {
			return false, errors.Join(failure, r.wrap("publish error", err))
		}
		return false, failure.WithStatus(string(MainError))
	}

	handedOff, err := r.handOff(failure)
	if err != nil {
		return false, errors.Join(failure, r.wrap("publish action_error", err))
	}
	if !handedOff {
		log.Warn("no watcher left to retry the action")
		return false, failure.WithStatus(string(MainError))
	}
	log.Info("stepped down after recoverable failure")
	return true, nil
}

// awaitGate polls until every watcher is ready. A recovering leader
// also accepts watchers that have already finished or failed.
func (r *Resource) awaitGate(ctx context.Context) error {
	accept := []WatcherStatus{StatusReady}
	if r.Recovering() {
		accept = append(accept, StatusDone, StatusError)
	}

	// A first episode never accepts error, so a failed watcher stalls the
	// gate until ctx ends. Warn whenever that set changes.
	var stalled []string
	for {
		ok, failed, err := r.allHave(accept...)
		if err != nil {
			return r.wrap("check readiness", err)
		}
		if ok {
			return nil
		}
		if !r.Recovering() && !slices.Equal(failed, stalled) {
			if len(failed) > 0 {
				r.log().Warn("waiting on failed watchers", "watchers", failed)
			}
			stalled = failed
		}
		if err := r.sleep(ctx, r.readyPollInterval); err != nil {
			return err
		}
	}
}

// invoke runs the action, turning a panic into an error.
func (r *Resource) invoke(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("action panicked: %v", p)
		}
	}()

	return r.action(ctx, Invocation{
		Resource:   r.name,
		Watcher:    r.id,
		Recovering: r.Recovering(),
		Args:       r.args,
		Kwargs:     r.kwargs,
	})
}
