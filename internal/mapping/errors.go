package mapping

import "errors"

var (
	// ErrSourceNotFound is returned when the mapping file does not exist.
	ErrSourceNotFound = errors.New("mapping source not found")
	// ErrSheetNotFound is returned when the configured worksheet is absent.
	ErrSheetNotFound = errors.New("worksheet not found")
	// ErrUnsupportedFormat is returned for spreadsheet formats the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported mapping format")
)
