package reconcile

import (
	"fmt"
	"strings"

	"barcoder/internal/mapping"
)

// Kind groups diagnostics by problem category.
type Kind string

const (
	KindMissingBoth       Kind = "missing_identifier_and_barcode"
	KindMissingIdentifier Kind = "missing_identifier"
	KindMissingBarcode    Kind = "missing_barcode"
	KindNoFileMatch       Kind = "no_file_match"
)

// Diagnostic is the structured form of one report line.
type Diagnostic struct {
	Kind        Kind     `json:"kind"`
	Message     string   `json:"message"`
	Identifiers []string `json:"identifiers,omitempty"`
	Barcode     string   `json:"barcode,omitempty"`
	Rows        []int    `json:"rows,omitempty"`
}

// Collector is an append-only, ordered list of diagnostics. Lines are never
// deduplicated across categories.
type Collector struct {
	items []Diagnostic
}

// Add appends d.
func (c *Collector) Add(d Diagnostic) {
	c.items = append(c.items, d)
}

// Len returns the number of collected lines.
func (c *Collector) Len() int { return len(c.items) }

// Messages returns the human-readable lines in insertion order.
func (c *Collector) Messages() []string {
	out := make([]string, 0, len(c.items))
	for _, d := range c.items {
		out = append(out, d.Message)
	}
	return out
}

// Diagnostics returns a copy of the structured lines.
func (c *Collector) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.items...)
}

// labels are the column names used in messages.
type labels struct {
	identifier string
	barcode    string
}

func newLabels(columns mapping.Columns) labels {
	def := mapping.DefaultColumns()
	l := labels{identifier: strings.TrimSpace(columns.Identifier), barcode: strings.TrimSpace(columns.Barcode)}
	if l.identifier == "" {
		l.identifier = def.Identifier
	}
	if l.barcode == "" {
		l.barcode = def.Barcode
	}
	return l
}

func (l labels) missingBoth(row int) Diagnostic {
	return Diagnostic{
		Kind:    KindMissingBoth,
		Message: fmt.Sprintf("Invalid entry found: both %s and %s are missing.", l.identifier, l.barcode),
		Rows:    []int{row},
	}
}

func (l labels) missingIdentifier(row int, barcode string) Diagnostic {
	return Diagnostic{
		Kind:    KindMissingIdentifier,
		Message: fmt.Sprintf("Invalid entry found: %s is missing. %s: %s", l.identifier, l.barcode, barcode),
		Barcode: barcode,
		Rows:    []int{row},
	}
}

func (l labels) missingBarcodes(group *orderedGroup) Diagnostic {
	return Diagnostic{
		Kind:        KindMissingBarcode,
		Message:     fmt.Sprintf("Invalid entry barcode not found in mapping. %s: %s", l.identifier, strings.Join(group.keys, ", ")),
		Identifiers: append([]string(nil), group.keys...),
		Rows:        group.allRows(),
	}
}

func (l labels) unmatched(group *orderedGroup) Diagnostic {
	return Diagnostic{
		Kind:        KindNoFileMatch,
		Message:     fmt.Sprintf("Document not found for %s: %s", l.identifier, strings.Join(group.keys, ", ")),
		Identifiers: append([]string(nil), group.keys...),
		Rows:        group.allRows(),
	}
}

// orderedGroup is an insertion-ordered set of identifiers with the rows that
// mentioned each.
type orderedGroup struct {
	keys []string
	rows map[string][]int
}

func (g *orderedGroup) add(identifier string, row int) {
	if g.rows == nil {
		g.rows = make(map[string][]int)
	}
	if _, seen := g.rows[identifier]; !seen {
		g.keys = append(g.keys, identifier)
	}
	g.rows[identifier] = append(g.rows[identifier], row)
}

func (g *orderedGroup) empty() bool { return len(g.keys) == 0 }

func (g *orderedGroup) allRows() []int {
	var rows []int
	for _, key := range g.keys {
		rows = append(rows, g.rows[key]...)
	}
	return rows
}
