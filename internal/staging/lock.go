package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DirLockName is the lock file LockDir holds in a reconciled directory while
// a run is in progress.
const DirLockName = ".barcoder.lock"

// ErrLocked is returned when another run or request already holds a lock.
var ErrLocked = errors.New("directory is locked by another run")

// LockDir takes an exclusive, non-blocking lock on dir for the duration of a
// run. The returned function deletes the lock file while still holding the
// lock, then releases it, so the directory is left as it was found.
func LockDir(dir string) (func() error, error) {
	lockPath := filepath.Join(dir, DirLockName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return func() error {
		removeErr := os.Remove(lockPath)
		if errors.Is(removeErr, fs.ErrNotExist) {
			removeErr = nil
		}
		unlockErr := lock.Unlock()
		if removeErr != nil {
			return fmt.Errorf("remove lock %s: %w", lockPath, removeErr)
		}
		return unlockErr
	}, nil
}
