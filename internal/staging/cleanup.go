package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"barcoder/internal/logging"
)

// CleanResult contains the outcome of a workspace sweep.
type CleanResult struct {
	Removed []string
	Skipped []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

func (r *CleanResult) fail(path string, err error) {
	r.Errors = append(r.Errors, CleanupError{Path: path, Error: err})
}

// CleanStale removes unlocked workspaces last modified more than maxAge ago.
// Locked workspaces are skipped.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, stagingDir, logger, func(mod time.Time) bool { return mod.Before(cutoff) })
}

// CleanAll removes every unlocked workspace regardless of age.
func CleanAll(ctx context.Context, stagingDir string, logger *slog.Logger) CleanResult {
	return sweep(ctx, stagingDir, logger, func(time.Time) bool { return true })
}

func sweep(ctx context.Context, stagingDir string, logger *slog.Logger, expired func(time.Time) bool) CleanResult {
	var result CleanResult
	entries, err := readStaging(stagingDir)
	if err != nil {
		result.fail(stagingDir, err)
		return result
	}

	logger = logging.NewComponentLogger(logger, "staging")
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		dir := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.fail(dir, err)
			continue
		}
		if !expired(info.ModTime()) {
			continue
		}
		removed, err := removeUnlocked(dir)
		switch {
		case err != nil:
			result.fail(dir, err)
			logging.WarnWithContext(logger, "failed to remove staging workspace", "staging_cleanup_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		case !removed:
			result.Skipped = append(result.Skipped, dir)
			logger.Debug("skipping workspace in use", logging.String("path", dir))
		default:
			result.Removed = append(result.Removed, dir)
			logger.Info("removed staging workspace",
				logging.String("path", dir),
				logging.Duration("age", time.Since(info.ModTime()).Round(time.Second)),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}
	return result
}

// removeUnlocked deletes dir while holding its workspace lock. It reports
// false without touching anything when another holder owns the lock.
func removeUnlocked(dir string) (bool, error) {
	lock := flock.New(filepath.Join(dir, workspaceLockName))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		return false, err
	}
	defer func() { _ = lock.Unlock() }()
	if err := os.RemoveAll(dir); err != nil {
		return false, err
	}
	return true, nil
}

// readStaging lists the workspace directories under stagingDir. A blank or
// missing staging dir has no workspaces.
func readStaging(stagingDir string) ([]fs.DirEntry, error) {
	if strings.TrimSpace(stagingDir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dirs := entries[:0]
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
		}
	}
	return dirs, nil
}
