package sharedresource

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/SatelliteQE/rendezvous/internal/logging"
)

// notifier turns fsnotify events on the state file into wake-ups. It
// watches the directory so it survives the file being removed and
// recreated.
type notifier struct {
	watcher *fsnotify.Watcher
	base    string
	logger  *logging.Logger
	c       chan struct{}
	wg      sync.WaitGroup
}

func newNotifier(dir, base string, logger *logging.Logger) (*notifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	n := &notifier{
		watcher: w,
		base:    base,
		logger:  logger,
		c:       make(chan struct{}, 1),
	}
	n.wg.Add(1)
	go n.run()
	return n, nil
}

func (n *notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != n.base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			select {
			case n.c <- struct{}{}:
			default:
			}
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Debug("file watcher error", "error", err)
		}
	}
}

// C delivers at most one pending wake-up.
func (n *notifier) C() <-chan struct{} {
	return n.c
}

// Close stops the watcher and waits for the event loop to exit.
func (n *notifier) Close() error {
	err := n.watcher.Close()
	n.wg.Wait()
	return err
}
