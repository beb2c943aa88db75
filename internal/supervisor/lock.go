package supervisor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another supervisor invocation holds the operation lock.
// Start/Stop/Restart fail fast instead of racing over the process table;
// Status never locks.
var ErrLocked = errors.New("another supervisor operation is in progress")

// DefaultLockPath places the advisory lock in the system temp dir.
func DefaultLockPath() string {
	return filepath.Join(os.TempDir(), "appsup.lock")
}

// opLock is a file-based advisory lock around mutating operations. It only
// excludes other appsup invocations on the same host; the managed processes
// themselves are never locked.
type opLock struct {
	fl *flock.Flock
}

func newOpLock(path string) *opLock {
	return &opLock{fl: flock.New(path)}
}

func (l *opLock) acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

func (l *opLock) release() {
	_ = l.fl.Unlock()
}
