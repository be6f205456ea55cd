package sharedresource

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/SatelliteQE/rendezvous/internal/errors"
)

// requiredKeys are the top-level keys every state document carries.
var requiredKeys = []string{"watchers", "statuses", "main_watcher", "main_status"}

// stateFile is the on-disk state document of one resource.
type stateFile struct {
	path string
}

// tx is a locked view of the state file, valid inside withLock.
type tx struct {
	f    *os.File
	path string
}

// withLock runs fn while holding the state file lock. The lock is
// released on every return path, including panics in fn.
func (sf *stateFile) withLock(create bool, fn func(*tx) error) (err error) {
	lock := NewFileLock(sf.path)
	if err := lock.Lock(create); err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", sf.path, unlockErr)
		}
	}()

	return fn(&tx{f: lock.File(), path: sf.path})
}

// tryWithLock is withLock without blocking. It reports false, running
// nothing, when another process holds the lock.
func (sf *stateFile) tryWithLock(fn func(*tx) error) (acquired bool, err error) {
	lock := NewFileLock(sf.path)
	ok, err := lock.TryLock()
	if err != nil || !ok {
		return false, err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", sf.path, unlockErr)
		}
	}()

	return true, fn(&tx{f: lock.File(), path: sf.path})
}

// update loads the document, applies fn and stores the result.
func (sf *stateFile) update(fn func(*State) error) error {
	return sf.withLock(false, func(t *tx) error {
		st, err := t.load()
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		return t.store(st)
	})
}

// read returns a snapshot of the document.
func (sf *stateFile) read() (*State, error) {
	var st *State
	err := sf.withLock(false, func(t *tx) error {
		var err error
		st, err = t.load()
		return err
	})
	return st, err
}

// load reads and validates the document. An empty file, as left by a
// registrant that created it, is ErrNotInitialized.
func (t *tx) load() (*State, error) {
	if _, err := t.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", t.path, err)
	}
	data, err := io.ReadAll(t.f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.path, err)
	}
	return decodeState(data)
}

// store rewrites the document in place. The file is not renamed so the
// inode other participants lock stays the same.
func (t *tx) store(st *State) error {
	data, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	if err := t.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", t.path, err)
	}
	if _, err := t.f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("write %s: %w", t.path, err)
	}
	return nil
}

// remove deletes the state file. Waiters holding a stale descriptor
// notice on their next acquisition.
func (t *tx) remove() error {
	if err := os.Remove(t.path); err != nil {
		return fmt.Errorf("remove %s: %w", t.path, err)
	}
	return nil
}

func decodeState(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, errors.ErrNotInitialized
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCorruptState, err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", errors.ErrCorruptState, key)
		}
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCorruptState, err)
	}
	if err := st.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCorruptState, err)
	}
	return &st, nil
}

func (s *State) validate() error {
	if s.Watchers == nil || s.Statuses == nil {
		return errors.New("watchers and statuses must not be null")
	}
	if !s.MainStatus.Valid() {
		return fmt.Errorf("unknown main_status %q", s.MainStatus)
	}
	if !s.Has(s.MainWatcher) {
		return fmt.Errorf("main_watcher %q is not registered", s.MainWatcher)
	}
	for id, status := range s.Statuses {
		if !s.Has(id) {
			return fmt.Errorf("status for unregistered watcher %q", id)
		}
		if !status.Valid() {
			return fmt.Errorf("unknown status %q for watcher %q", status, id)
		}
	}
	return nil
}
