package mapping

// Record is one data row of the mapping source. Empty strings mean the cell
// was absent or blank.
type Record struct {
	// Row is the 1-based row number in the source sheet.
	Row        int    `json:"row"`
	Identifier string `json:"identifier,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
}

// HasIdentifier reports whether the identifier cell was present.
func (r Record) HasIdentifier() bool { return r.Identifier != "" }

// HasBarcode reports whether the barcode cell was present.
func (r Record) HasBarcode() bool { return r.Barcode != "" }

// Columns names the header cells holding identifiers and barcodes.
type Columns struct {
	Identifier string
	Barcode    string
}

// DefaultColumns returns the reference schema headers.
func DefaultColumns() Columns {
	return Columns{Identifier: "Ipd No.", Barcode: "Barcode"}
}
