package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"barcoder/internal/textutil"
)

// candidate is a regular file present in the directory when the run started.
type candidate struct {
	name string
	ext  string
	path string
}

// fileIndex maps normalized base names to the files that carry them. Files
// are listed in directory name order.
type fileIndex map[string][]candidate

// buildIndex scans dir once. Directories, dot-files, names that normalize to
// nothing and excluded names are left out.
func buildIndex(dir string, exclude map[string]struct{}) (fileIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document directory: %w", err)
	}

	idx := make(fileIndex)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, skip := exclude[name]; skip {
			continue
		}
		path := filepath.Join(dir, name)
		if !isRegular(entry, path) {
			continue
		}
		base, ext := textutil.SplitExt(name)
		key := textutil.NormalizeKey(base)
		if key == "" {
			continue
		}
		idx[key] = append(idx[key], candidate{name: name, ext: ext, path: path})
	}
	return idx, nil
}

// take removes and returns every file stored under key.
func (idx fileIndex) take(key string) []candidate {
	if key == "" {
		return nil
	}
	files, ok := idx[key]
	if !ok {
		return nil
	}
	delete(idx, key)
	return files
}

func isRegular(entry os.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
