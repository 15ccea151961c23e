package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SaveResult describes a file written by SaveReader.
type SaveResult struct {
	Path   string
	Bytes  int64
	SHA256 string
}

// SaveReader streams r into dst with the given mode. Data is written to a
// temporary sibling first and renamed into place, so dst is either complete
// or absent.
func SaveReader(dst string, r io.Reader, mode os.FileMode) (SaveResult, error) {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return SaveResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		return SaveResult{}, fmt.Errorf("write %s: %w", filepath.Base(dst), err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return SaveResult{}, fmt.Errorf("chmod %s: %w", filepath.Base(dst), err)
	}
	if err := tmp.Close(); err != nil {
		return SaveResult{}, fmt.Errorf("close %s: %w", filepath.Base(dst), err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return SaveResult{}, fmt.Errorf("move %s into place: %w", filepath.Base(dst), err)
	}

	return SaveResult{
		Path:   dst,
		Bytes:  written,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
