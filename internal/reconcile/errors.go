package reconcile

import (
	"errors"
	"fmt"
)

// ErrDirectoryNotFound is returned when the document directory is missing.
var ErrDirectoryNotFound = errors.New("document directory not found")

// RenameError reports a document that could not be renamed to its barcode.
type RenameError struct {
	From string
	To   string
	Err  error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("rename %s to %s: %v", e.From, e.To, e.Err)
}

func (e *RenameError) Unwrap() error { return e.Err }
