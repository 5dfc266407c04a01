// Package filelock provides advisory, cross-process exclusive locks on a
// side-car ".<name>.lock" file, bounded by a timeout.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Standard is the timeout used for ordinary state-file mutations.
const Standard = 10 * time.Second

// NetworkFS is the timeout used when the state directory may live on a
// network-fronted filesystem.
const NetworkFS = 30 * time.Second

// UserFacing is the timeout used for operations a human is waiting on
// interactively (task create/switch).
const UserFacing = 60 * time.Second

// Lock acquires an exclusive lock on the side-car lock file for path (its
// base name, prefixed with a dot when it has none, plus ".lock") within
// timeout, runs fn, then releases the lock. It returns a wrapped,
// actionable error if the lock cannot be acquired in time.
func Lock(path string, timeout time.Duration, fn func() error) error {
	dir, base := filepath.Split(path)
	if !strings.HasPrefix(base, ".") {
		base = "." + base
	}
	lockPath := filepath.Join(dir, base+".lock")
	fl := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquire lock on %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("timed out after %s waiting for lock on %s: is another brainworm operation running?", timeout, lockPath)
	}
	defer fl.Unlock()

	return fn()
}
