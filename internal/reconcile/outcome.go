package reconcile

import "barcoder/internal/mapping"

// Outcome classifies how a single mapping record was handled.
type Outcome int

const (
	MatchedAndArchived Outcome = iota
	MissingIdentifier
	// MissingBarcode means both the identifier and the barcode were absent.
	MissingBarcode
	MissingBarcodeForIdentifier
	NoFileMatch
)

func (o Outcome) String() string {
	switch o {
	case MatchedAndArchived:
		return "matched"
	case MissingIdentifier:
		return "missing_identifier"
	case MissingBarcode:
		return "missing_identifier_and_barcode"
	case MissingBarcodeForIdentifier:
		return "missing_barcode"
	case NoFileMatch:
		return "no_file_match"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome by name in JSON reports.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// RecordOutcome pairs a record with its classification. Files lists the
// archive entry names produced for a matched record.
type RecordOutcome struct {
	Record  mapping.Record `json:"record"`
	Outcome Outcome        `json:"outcome"`
	Files   []string       `json:"files,omitempty"`
}

// Match describes one renamed and archived document.
type Match struct {
	Row        int    `json:"row"`
	Identifier string `json:"identifier"`
	Barcode    string `json:"barcode"`
	Source     string `json:"source"`
	Entry      string `json:"entry"`
}
