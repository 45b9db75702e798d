package camera

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when another process already holds the device
var ErrBusy = errors.New("camera is in use by another process")

// Lock is an exclusive, process-wide claim on a capture device
type Lock struct {
	lock *flock.Flock
}

// LockPath returns the lock file used for a device index inside dir
func LockPath(dir string, deviceID int) string {
	return filepath.Join(dir, fmt.Sprintf("livecam-video%d.lock", deviceID))
}

// AcquireLock takes the lock at path without waiting
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}

	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrBusy)
	}
	return &Lock{lock: l}, nil
}

// Release drops the lock
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
