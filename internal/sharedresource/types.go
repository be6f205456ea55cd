package sharedresource

import (
	"path/filepath"
	"slices"
)

// FileSuffix is appended to the resource name to form the state file name.
const FileSuffix = ".shared"

// WatcherStatus is the status of one participant.
type WatcherStatus string

// Per-watcher statuses.
const (
	StatusPending WatcherStatus = "pending"
	StatusReady   WatcherStatus = "ready"
	StatusDone    WatcherStatus = "done"
	StatusError   WatcherStatus = "error"
)

// Valid reports whether s is a known watcher status.
func (s WatcherStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReady, StatusDone, StatusError:
		return true
	}
	return false
}

// MainStatus is the status published by the current leader.
type MainStatus string

// Leader statuses.
const (
	MainWaiting     MainStatus = "waiting"
	MainActing      MainStatus = "acting"
	MainDone        MainStatus = "done"
	MainActionError MainStatus = "action_error"
	MainRecovering  MainStatus = "recovering"
	MainError       MainStatus = "error"
)

// Valid reports whether s is a known leader status.
func (s MainStatus) Valid() bool {
	switch s {
	case MainWaiting, MainActing, MainDone, MainActionError, MainRecovering, MainError:
		return true
	}
	return false
}

// Failed reports whether s is one of the leader failure statuses.
func (s MainStatus) Failed() bool {
	return s == MainActionError || s == MainError
}

// State is the document persisted in the state file.
type State struct {
	Watchers    []string                 `json:"watchers"`
	Statuses    map[string]WatcherStatus `json:"statuses"`
	MainWatcher string                   `json:"main_watcher"`
	MainStatus  MainStatus               `json:"main_status"`
}

// newState returns the document written by the first registrant.
func newState(leader string) *State {
	return &State{
		Watchers:    []string{leader},
		Statuses:    map[string]WatcherStatus{leader: StatusPending},
		MainWatcher: leader,
		MainStatus:  MainWaiting,
	}
}

// Has reports whether id is registered.
func (s *State) Has(id string) bool {
	return slices.Contains(s.Watchers, id)
}

// StatusOf returns the status of watcher id.
func (s *State) StatusOf(id string) WatcherStatus {
	return s.Statuses[id]
}

// AllIn reports whether every registered watcher has one of statuses.
func (s *State) AllIn(statuses ...WatcherStatus) bool {
	for _, id := range s.Watchers {
		if !slices.Contains(statuses, s.Statuses[id]) {
			return false
		}
	}
	return true
}

// InStatus returns the watchers with status, in registration order.
func (s *State) InStatus(status WatcherStatus) []string {
	var ids []string
	for _, id := range s.Watchers {
		if s.Statuses[id] == status {
			ids = append(ids, id)
		}
	}
	return ids
}

// Counts returns the number of watchers in each status.
func (s *State) Counts() map[WatcherStatus]int {
	counts := make(map[WatcherStatus]int, 4)
	for _, id := range s.Watchers {
		counts[s.Statuses[id]]++
	}
	return counts
}

// Settled reports whether no watcher is still pending or ready.
func (s *State) Settled() bool {
	return s.AllIn(StatusDone, StatusError)
}

// Terminal reports whether the resource can no longer make progress:
// the leader failed or every watcher has finished.
func (s *State) Terminal() bool {
	return s.MainStatus.Failed() || s.Settled()
}

// hasCandidates reports whether a watcher other than except could still
// take over leadership.
func (s *State) hasCandidates(except string) bool {
	for _, id := range s.Watchers {
		if id == except {
			continue
		}
		if st := s.Statuses[id]; st == StatusPending || st == StatusReady {
			return true
		}
	}
	return false
}

// Path returns the state file path for resource name inside dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+FileSuffix)
}

// Summary describes one state file found by List.
type Summary struct {
	Name        string
	Path        string
	Watchers    int
	Counts      map[WatcherStatus]int
	MainWatcher string
	MainStatus  MainStatus
	// Err is set when the file could not be read or is corrupt.
	Err error
}
