package sharedresource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SatelliteQE/rendezvous/internal/errors"
)

func TestFileLock_LockUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.shared")
	fl := NewFileLock(path)

	if err := fl.Lock(true); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if fl.File() == nil {
		t.Error("File() should return the locked descriptor")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file should exist: %v", err)
	}

	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if fl.File() != nil {
		t.Error("File() should be nil after Unlock")
	}
}

func TestFileLock_NoCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.shared")
	fl := NewFileLock(path)

	err := fl.Lock(false)
	if !errors.Is(err, errors.ErrNotInitialized) {
		t.Fatalf("Lock(false) on missing file = %v, want ErrNotInitialized", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("Lock(false) must not create the file")
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	fl := NewFileLock(filepath.Join(t.TempDir(), "r.shared"))
	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock without Lock should not error: %v", err)
	}
}

func TestFileLock_DoubleLock(t *testing.T) {
	fl := NewFileLock(filepath.Join(t.TempDir(), "r.shared"))
	if err := fl.Lock(true); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer fl.Unlock()

	if err := fl.Lock(true); err == nil {
		t.Error("second Lock on the same FileLock should fail")
	}
}

func TestFileLock_Exclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.shared")

	holder := NewFileLock(path)
	if err := holder.Lock(true); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	other := NewFileLock(path)
	acquired, err := other.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if acquired {
		t.Fatal("TryLock should fail while another descriptor holds the lock")
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	acquired, err = other.TryLock()
	if err != nil {
		t.Fatalf("TryLock after release: %v", err)
	}
	if !acquired {
		t.Error("TryLock should succeed after release")
	}
	_ = other.Unlock()
}

func TestFileLock_BlocksUntilReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.shared")

	holder := NewFileLock(path)
	if err := holder.Lock(true); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	acquired := make(chan error, 1)
	go func() {
		waiter := NewFileLock(path)
		err := waiter.Lock(false)
		if err == nil {
			_ = waiter.Unlock()
		}
		acquired <- err
	}()

	select {
	case err := <-acquired:
		t.Fatalf("Lock returned while held: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("waiter Lock: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestFileLock_RemovedWhileWaiting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.shared")

	holder := NewFileLock(path)
	if err := holder.Lock(true); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		waiter := NewFileLock(path)
		err := waiter.Lock(false)
		if err == nil {
			_ = waiter.Unlock()
		}
		result <- err
	}()

	// Give the waiter time to open the file and block in flock.
	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := holder.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	select {
	case err := <-result:
		if !errors.Is(err, errors.ErrNotInitialized) {
			t.Errorf("waiter on removed file = %v, want ErrNotInitialized", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never returned")
	}
}

func TestFileLock_TryLockMissing(t *testing.T) {
	fl := NewFileLock(filepath.Join(t.TempDir(), "r.shared"))
	if _, err := fl.TryLock(); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("TryLock on missing file = %v, want ErrNotInitialized", err)
	}
}
