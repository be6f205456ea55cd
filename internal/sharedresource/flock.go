package sharedresource

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/SatelliteQE/rendezvous/internal/errors"
)

// FileLock provides cross-process mutual exclusion using flock(2) on the
// state file itself, so no separate lock file is created.
//
// flock locks belong to the open file description, so two FileLocks in
// the same process exclude each other just like two processes do.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock for the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock acquires an exclusive lock, blocking until available. With create
// the file is created if missing; without it a missing file yields
// ErrNotInitialized.
//
// The file may be removed by the last participant while we wait for the
// lock. After acquiring, the locked descriptor is compared against the
// path and the open is retried if they no longer match.
func (fl *FileLock) Lock(create bool) error {
	if fl.file != nil {
		return fmt.Errorf("lock %s: already held", fl.path)
	}

	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}

	for {
		f, err := os.OpenFile(fl.path, flags, 0644)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("open %s: %w", fl.path, errors.ErrNotInitialized)
			}
			return fmt.Errorf("open %s: %w: %w", fl.path, errors.ErrLockFailure, err)
		}

		if err := flock(f, unix.LOCK_EX); err != nil {
			_ = f.Close()
			return fmt.Errorf("flock %s: %w: %w", fl.path, errors.ErrLockFailure, err)
		}

		same, err := sameFile(f, fl.path)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("stat %s: %w: %w", fl.path, errors.ErrLockFailure, err)
		}
		if same {
			fl.file = f
			return nil
		}

		// Stale descriptor: the path was removed or replaced while we waited.
		_ = f.Close()
	}
}

// TryLock attempts to acquire the lock without blocking. It never creates
// the file. Returns false if another holder has it.
func (fl *FileLock) TryLock() (bool, error) {
	if fl.file != nil {
		return false, fmt.Errorf("lock %s: already held", fl.path)
	}

	f, err := os.OpenFile(fl.path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("open %s: %w", fl.path, errors.ErrNotInitialized)
		}
		return false, fmt.Errorf("open %s: %w: %w", fl.path, errors.ErrLockFailure, err)
	}

	if err := flock(f, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock %s: %w: %w", fl.path, errors.ErrLockFailure, err)
	}

	same, err := sameFile(f, fl.path)
	if err != nil || !same {
		_ = f.Close()
		return false, fmt.Errorf("open %s: %w", fl.path, errors.ErrNotInitialized)
	}

	fl.file = f
	return true, nil
}

// Unlock releases the lock and closes the descriptor.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := flock(fl.file, unix.LOCK_UN); err != nil {
		_ = fl.file.Close()
		fl.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := fl.file.Close()
	fl.file = nil
	return err
}

// File returns the locked descriptor, or nil when not held.
func (fl *FileLock) File() *os.File {
	return fl.file
}

// Path returns the locked path.
func (fl *FileLock) Path() string {
	return fl.path
}

func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			return err
		}
	}
}

// sameFile reports whether f is still the file named by path. A missing
// path is not an error.
func sameFile(f *os.File, path string) (bool, error) {
	fi, err := f.Stat()
	if err != nil {
		return false, err
	}
	pi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return os.SameFile(fi, pi), nil
}
