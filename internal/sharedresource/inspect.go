package sharedresource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SatelliteQE/rendezvous/internal/errors"
)

// Inspect returns the state of resource name in dir under the lock. It
// never creates the file; a missing resource yields a NotFoundError
// wrapping ErrNotInitialized.
func Inspect(dir, name string) (*State, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	sf := &stateFile{path: Path(dir, name)}
	st, err := sf.read()
	if errors.Is(err, errors.ErrNotInitialized) {
		return nil, errors.NewNotFoundError("shared resource", name).WithCause(err)
	}
	if err != nil {
		return nil, errors.NewResourceError("inspect", err).WithResource(name)
	}
	return st, nil
}

// List summarizes every state file in dir, sorted by name. Unreadable
// or corrupt files are reported through Summary.Err.
func List(dir string) ([]Summary, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+FileSuffix))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(matches)

	summaries := make([]Summary, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), FileSuffix)
		summary := Summary{Name: name, Path: path}

		st, err := (&stateFile{path: path}).read()
		if err != nil {
			if errors.Is(err, errors.ErrNotInitialized) {
				// Removed between the glob and the read, or still empty.
				if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
					continue
				}
			}
			summary.Err = err
			summaries = append(summaries, summary)
			continue
		}

		summary.Watchers = len(st.Watchers)
		summary.Counts = st.Counts()
		summary.MainWatcher = st.MainWatcher
		summary.MainStatus = st.MainStatus
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Clean removes the state file of resource name. It refuses with
// ErrResourceActive while participants may still be using it, unless
// force is set. A corrupt file can only be removed with force.
//
// Without force Clean never waits: a lock held by another process means
// a participant is mid-update, reported as a retryable ErrResourceActive
// with status "locked".
func Clean(dir, name string, force bool) error {
	if err := validateName(name); err != nil {
		return err
	}
	sf := &stateFile{path: Path(dir, name)}

	var err error
	if force {
		err = sf.withLock(false, func(t *tx) error { return t.remove() })
	} else {
		var acquired bool
		acquired, err = sf.tryWithLock(func(t *tx) error {
			st, err := t.load()
			if err != nil {
				return err
			}
			if !st.Terminal() {
				return errors.NewResourceError("clean", errors.ErrResourceActive).
					WithResource(name).
					WithStatus(string(st.MainStatus))
			}
			return t.remove()
		})
		if err == nil && !acquired {
			err = errors.NewResourceError("clean", errors.ErrResourceActive).
				WithResource(name).
				WithStatus("locked").
				WithSeverity(errors.SeverityWarning).
				WithRetryable(true)
		}
	}
	if errors.Is(err, errors.ErrNotInitialized) {
		return errors.NewNotFoundError("shared resource", name).WithCause(err)
	}
	return err
}
