package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"

	// DefaultDBName is the history file used when no path is configured.
	DefaultDBName = "mdscan.sqlite"
)

// DBLock serialises writers of the scan history with a lock file next to
// the database.
type DBLock struct {
	lock *flock.Flock
	path string
}

// NewDBLock creates a lock for the given database path.
func NewDBLock(dbPath string) (*DBLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute db path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &DBLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the lock, logging once if another process holds it.
func (l *DBLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if locked {
		return nil
	}
	Log.Warnf("Another mdscan process is writing to the scan history, waiting for it to finish...")
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
	}
	return nil
}

// Unlock releases the lock. Releasing a lock file that is gone is not an error.
func (l *DBLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// WithLock runs fn while holding the lock for dbPath.
func WithLock(dbPath string, fn func() error) error {
	l, err := NewDBLock(dbPath)
	if err != nil {
		return err
	}
	if err := l.Lock(); err != nil {
		return err
	}
	defer l.Unlock()
	return fn()
}

// GetAbsDBPath resolves the history path; empty means DefaultDBName in the
// working directory.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = DefaultDBName
	}
	return filepath.Abs(dbPath)
}
