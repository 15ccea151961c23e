package staging

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DirInfo contains metadata about a staging workspace.
type DirInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"modified"`
	Size    int64     `json:"size_bytes"`
	Files   int       `json:"files"`
	InUse   bool      `json:"in_use"`
}

// ListDirectories describes every workspace under stagingDir.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	entries, err := readStaging(stagingDir)
	if err != nil {
		return nil, err
	}
	var dirs []DirInfo
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		d := DirInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(stagingDir, entry.Name()),
			ModTime: info.ModTime(),
		}
		d.Size, d.Files = dirUsage(d.Path)
		d.InUse = inUse(d.Path)
		dirs = append(dirs, d)
	}
	return dirs, nil
}

func inUse(dir string) bool {
	path := filepath.Join(dir, workspaceLockName)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	ok, err := lock.TryRLock()
	if err != nil {
		return false
	}
	if ok {
		_ = lock.Unlock()
	}
	return !ok
}

// dirUsage sums regular file sizes below dir, ignoring lock files.
func dirUsage(dir string) (size int64, files int) {
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch d.Name() {
		case workspaceLockName, DirLockName:
			return nil
		}
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() {
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files
}
