package sharedresource

import (
	"context"
	"time"

	"github.com/SatelliteQE/rendezvous/internal/errors"
)

// follow polls the leader status until the action is done or has failed
// for good. It returns promoted=true when this participant took over.
func (r *Resource) follow(ctx context.Context) (promoted bool, err error) {
	log := r.log()
	var last MainStatus

	for {
		st, err := r.file.read()
		if err != nil {
			return false, r.wrap("read leader status", err)
		}
		if st.MainStatus != last {
			log.Debug("leader status", "main_status", st.MainStatus, "main_watcher", st.MainWatcher)
			last = st.MainStatus
		}

		r.mu.Lock()
		demoted, actionErr := r.demoted, r.actionErr
		r.mu.Unlock()

		switch st.MainStatus {
		case MainDone:
			log.Info("leader finished")
			return false, nil

		case MainError:
			if demoted {
				return false, actionErr
			}
			return false, errors.NewResourceError("wait for leader", errors.ErrLeaderFailed).
				WithResource(r.name).
				WithWatcher(r.id).
				WithStatus(string(st.MainStatus))

		case MainActionError:
			switch {
			case demoted:
				abandoned, err := r.abandon()
				if err != nil {
					return false, r.wrap("abandon failover", err)
				}
				if abandoned {
					log.Warn("no watcher left to retry the action")
					return false, actionErr
				}
			case r.recoverable:
				took, err := r.tryTakeOver()
				if err != nil {
					return false, r.wrap("take over", err)
				}
				if took {
					return true, nil
				}
			}
		}

		if err := r.sleep(ctx, r.pollInterval); err != nil {
			return false, err
		}
	}
}

// sleep waits for d, an early wake-up from file events, or ctx.
func (r *Resource) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	var wake <-chan struct{}
	if r.notify != nil {
		wake = r.notify.C()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case <-wake:
	}
	return nil
}
