package sharedresource

import (
	"github.com/SatelliteQE/rendezvous/internal/errors"
)

// register adds this participant to the state file, creating it if
// needed. The creator of the document is the leader.
func (r *Resource) register() (leader bool, err error) {
	err = r.file.withLock(true, func(t *tx) error {
		st, err := t.load()
		if errors.Is(err, errors.ErrNotInitialized) {
			leader = true
			return t.store(newState(r.id))
		}
		if err != nil {
			return err
		}

		if st.Has(r.id) {
			return errors.NewValidationError("watcher id is already registered").
				WithField("id").
				WithValue(r.id)
		}
		st.Watchers = append(st.Watchers, r.id)
		st.Statuses[r.id] = StatusPending
		return t.store(st)
	})
	return leader, err
}

// setSelf publishes this participant's status.
func (r *Resource) setSelf(status WatcherStatus) error {
	return r.file.update(func(st *State) error {
		st.Statuses[r.id] = status
		return nil
	})
}

// setMain publishes the leader status.
func (r *Resource) setMain(status MainStatus) error {
	return r.file.update(func(st *State) error {
		st.MainStatus = status
		return nil
	})
}

// setBoth publishes this participant's status and the leader status in
// one critical section.
func (r *Resource) setBoth(self WatcherStatus, main MainStatus) error {
	return r.file.update(func(st *State) error {
		st.Statuses[r.id] = self
		st.MainStatus = main
		return nil
	})
}

// allHave reports whether every watcher has one of statuses, along with
// the watchers currently in error.
func (r *Resource) allHave(statuses ...WatcherStatus) (bool, []string, error) {
	st, err := r.file.read()
	if err != nil {
		return false, nil, err
	}
	return st.AllIn(statuses...), st.InStatus(StatusError), nil
}
