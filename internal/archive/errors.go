package archive

import (
	"errors"
	"fmt"
)

// ErrArchiveWrite classifies every failure to write the archive.
var ErrArchiveWrite = errors.New("archive write failed")

// DefaultName is the archive file name used when none is configured.
const DefaultName = "processed_files.zip"

// ErrClosed is returned when a builder is used after Finalize or Abort.
var ErrClosed = errors.New("archive builder closed")

// WriteError records the operation and entry that failed.
type WriteError struct {
	Op    string
	Path  string
	Entry string
	Err   error
}

func (e *WriteError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("archive %s %s (entry %s): %v", e.Op, e.Path, e.Entry, e.Err)
	}
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is reports true for ErrArchiveWrite so callers can classify with errors.Is.
func (e *WriteError) Is(target error) bool { return target == ErrArchiveWrite }
