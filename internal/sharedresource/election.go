package sharedresource

// handOff publishes a recoverable failure of this leader. If another
// watcher could still take over, the resource moves to action_error and
// this participant steps down; otherwise it moves to error.
//
// Stepping down happens inside the critical section so no peer can
// claim leadership while this participant still considers itself leader.
func (r *Resource) handOff(failure error) (handedOff bool, err error) {
	err = r.file.update(func(st *State) error {
		st.Statuses[r.id] = StatusError
		if !st.hasCandidates(r.id) {
			st.MainStatus = MainError
			return nil
		}
		st.MainStatus = MainActionError
		handedOff = true

		r.mu.Lock()
		r.isMain = false
		r.demoted = true
		r.actionErr = failure
		r.mu.Unlock()
		return nil
	})
	if err != nil && handedOff {
		// The document was not written; keep leading.
		r.mu.Lock()
		r.isMain = true
		r.demoted = false
		r.actionErr = nil
		r.mu.Unlock()
		handedOff = false
	}
	return handedOff, err
}

// tryTakeOver claims leadership after a failed leader. Only one ready
// follower wins: the check and the write share one critical section.
func (r *Resource) tryTakeOver() (bool, error) {
	var took bool
	err := r.file.withLock(false, func(t *tx) error {
		st, err := t.load()
		if err != nil {
			return err
		}
		if !st.MainStatus.Failed() || st.StatusOf(r.id) != StatusReady {
			return nil
		}

		st.MainStatus = MainRecovering
		st.MainWatcher = r.id
		if err := t.store(st); err != nil {
			return err
		}
		took = true
		return nil
	})
	if err != nil || !took {
		return false, err
	}

	r.mu.Lock()
	r.isMain = true
	r.wasMain = true
	r.recovering = true
	r.mu.Unlock()
	r.log().Info("took over leadership")
	return true, nil
}

// abandon ends a failover that nobody can pick up: the resource is
// still in action_error but no watcher is pending or ready any more.
func (r *Resource) abandon() (bool, error) {
	var abandoned bool
	err := r.file.withLock(false, func(t *tx) error {
		st, err := t.load()
		if err != nil {
			return err
		}
		if st.MainStatus != MainActionError || st.hasCandidates("") {
			return nil
		}
		st.MainStatus = MainError
		if err := t.store(st); err != nil {
			return err
		}
		abandoned = true
		return nil
	})
	return abandoned, err
}
