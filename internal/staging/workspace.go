package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	workspaceLockName = ".workspace.lock"
	documentsDirName  = "documents"
)

var (
	// ErrWorkspaceNotFound is returned by Open for unknown or already released workspaces.
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrInvalidWorkspaceID is returned by Open for IDs that are not workspace names.
	ErrInvalidWorkspaceID = errors.New("invalid workspace id")
)

// Workspace is a locked staging directory.
type Workspace struct {
	id   string
	path string
	lock *flock.Flock
}

// Acquire creates a new workspace under stagingDir and locks it. The
// workspace directory is locked before anything is placed in it, and a
// workspace lost to a concurrent sweep is replaced by a fresh one.
func Acquire(stagingDir string) (*Workspace, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, errors.New("staging directory not configured")
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	var lastErr error
	for range acquireAttempts {
		ws, err := tryAcquire(stagingDir, uuid.NewString())
		if err == nil {
			return ws, nil
		}
		if !errors.Is(err, errWorkspaceLost) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

const acquireAttempts = 3

var errWorkspaceLost = errors.New("workspace removed before it was locked")

// workspaceCreated runs between creating a workspace directory and locking it.
// Tests replace it to interleave a sweep.
var workspaceCreated = func(string) {}

func tryAcquire(stagingDir, id string) (*Workspace, error) {
	path := filepath.Join(stagingDir, id)
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	workspaceCreated(path)

	ws := &Workspace{id: id, path: path, lock: flock.New(filepath.Join(path, workspaceLockName))}
	ok, err := ws.lock.TryLock()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("lock workspace %s: %w", id, errWorkspaceLost)
	case err != nil:
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("lock workspace %s: %w", id, err)
	case !ok:
		// Another process holds the new directory; a sweep will remove it.
		return nil, fmt.Errorf("lock workspace %s: %w", id, errWorkspaceLost)
	}

	// Mkdir fails with ErrNotExist if a sweep removed the directory between
	// creating it and locking it.
	if err := os.Mkdir(ws.DocumentsDir(), 0o755); err != nil {
		_ = ws.lock.Unlock()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("create workspace %s: %w", id, errWorkspaceLost)
		}
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("create workspace documents: %w", err)
	}
	return ws, nil
}

// Open locks an existing workspace by ID.
func Open(stagingDir, id string) (*Workspace, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWorkspaceID, id)
	}
	path := filepath.Join(strings.TrimSpace(stagingDir), id)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
		}
		return nil, fmt.Errorf("stat workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}

	ws := &Workspace{id: id, path: path, lock: flock.New(filepath.Join(path, workspaceLockName))}
	ok, err := ws.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock workspace %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: workspace %s", ErrLocked, id)
	}
	// The sweeper may have removed the directory between Stat and TryLock.
	if _, err := os.Stat(path); err != nil {
		_ = ws.lock.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}
	return ws, nil
}

// ID returns the workspace name.
func (w *Workspace) ID() string { return w.id }

// Path returns the workspace root.
func (w *Workspace) Path() string { return w.path }

// DocumentsDir is where uploaded documents are stored and reconciled.
func (w *Workspace) DocumentsDir() string { return filepath.Join(w.path, documentsDirName) }

// Unlock keeps the workspace on disk but allows another caller (or the sweeper)
// to take it.
func (w *Workspace) Unlock() error {
	if w == nil || w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}

// Release removes the workspace and drops its lock.
func (w *Workspace) Release() error {
	if w == nil {
		return nil
	}
	removeErr := os.RemoveAll(w.path)
	unlockErr := w.Unlock()
	if removeErr != nil {
		return fmt.Errorf("remove workspace %s: %w", w.id, removeErr)
	}
	return unlockErr
}
