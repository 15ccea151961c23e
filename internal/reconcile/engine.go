package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"barcoder/internal/logging"
	"barcoder/internal/mapping"
	"barcoder/internal/textutil"
)

// Collision policies for documents that end up with the same barcode name.
const (
	// CollisionSuffix keeps every document: B001.pdf, B001-2.pdf, ...
	CollisionSuffix = "suffix"
	// CollisionOverwrite lets a later rename replace an earlier one on disk.
	CollisionOverwrite = "overwrite"
)

// Sink receives each renamed document.
type Sink interface {
	Add(path, entryName string) error
}

// Options tune a reconciliation pass.
type Options struct {
	// Labels are the column names quoted in diagnostic messages.
	Labels    mapping.Columns
	Collision string
	// Exclude lists file names in the directory that are never candidates,
	// such as the archive being written and the mapping source.
	Exclude []string
	Logger  *slog.Logger
}

// Report is the outcome of a pass.
type Report struct {
	Outcomes    []RecordOutcome `json:"outcomes"`
	Matches     []Match         `json:"matches"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
}

// Messages returns the diagnostic lines in order.
func (r Report) Messages() []string {
	out := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.Message)
	}
	return out
}

// Count returns how many records ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, ro := range r.Outcomes {
		if ro.Outcome == o {
			n++
		}
	}
	return n
}

// Reconcile matches records against the files in dir, renames matches to
// their barcode and adds them to sink in record order.
func Reconcile(ctx context.Context, records []mapping.Record, dir string, sink Sink, opts Options) (Report, error) {
	if sink == nil {
		return Report{}, errors.New("reconcile: nil sink")
	}
	collision := strings.ToLower(strings.TrimSpace(opts.Collision))
	switch collision {
	case "":
		collision = CollisionSuffix
	case CollisionSuffix, CollisionOverwrite:
	default:
		return Report{}, fmt.Errorf("reconcile: unknown collision policy %q", opts.Collision)
	}

	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, name := range opts.Exclude {
		exclude[name] = struct{}{}
	}
	idx, err := buildIndex(dir, exclude)
	if err != nil {
		return Report{}, err
	}

	e := &engine{
		dir:       dir,
		sink:      sink,
		collision: collision,
		labels:    newLabels(opts.Labels),
		index:     idx,
		taken:     make(map[string]struct{}),
		replaced:  make(map[string]struct{}),
		logger:    logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "reconcile")),
	}
	report := Report{Outcomes: make([]RecordOutcome, 0, len(records))}
	for _, rec := range records {
		outcome, err := e.handle(rec, &report)
		if err != nil {
			return Report{}, err
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if !e.missingBarcode.empty() {
		e.diagnostics.Add(e.labels.missingBarcodes(&e.missingBarcode))
	}
	if !e.unmatched.empty() {
		e.diagnostics.Add(e.labels.unmatched(&e.unmatched))
	}
	report.Diagnostics = e.diagnostics.Diagnostics()
	if report.Diagnostics == nil {
		report.Diagnostics = []Diagnostic{}
	}
	if report.Matches == nil {
		report.Matches = []Match{}
	}
	return report, nil
}

type engine struct {
	dir       string
	sink      Sink
	collision string
	labels    labels
	index     fileIndex
	// taken holds entry names already produced in this run.
	taken map[string]struct{}
	// replaced holds paths of original documents destroyed by an overwrite
	// rename. Index entries pointing at them are stale.
	replaced map[string]struct{}
	logger   *slog.Logger

	diagnostics    Collector
	missingBarcode orderedGroup
	unmatched      orderedGroup
}

func (e *engine) handle(rec mapping.Record, report *Report) (RecordOutcome, error) {
	out := RecordOutcome{Record: rec}
	switch {
	case !rec.HasIdentifier() && !rec.HasBarcode():
		out.Outcome = MissingBarcode
		e.diagnostics.Add(e.labels.missingBoth(rec.Row))
		return out, nil
	case !rec.HasIdentifier():
		out.Outcome = MissingIdentifier
		e.diagnostics.Add(e.labels.missingIdentifier(rec.Row, rec.Barcode))
		return out, nil
	case !rec.HasBarcode():
		out.Outcome = MissingBarcodeForIdentifier
		e.missingBarcode.add(rec.Identifier, rec.Row)
		return out, nil
	}

	barcode := textutil.SanitizeFileName(rec.Barcode)
	if barcode == "" {
		logging.WarnWithContext(e.logger, "barcode is not usable as a file name", "barcode_unusable",
			logging.Int("row", rec.Row),
			logging.String("identifier", rec.Identifier),
			logging.String("barcode", rec.Barcode),
			logging.String(logging.FieldImpact, "record reported as missing a barcode"),
		)
		out.Outcome = MissingBarcodeForIdentifier
		e.missingBarcode.add(rec.Identifier, rec.Row)
		return out, nil
	}

	files := e.live(e.index.take(textutil.NormalizeKey(rec.Identifier)))
	if len(files) == 0 {
		out.Outcome = NoFileMatch
		e.unmatched.add(rec.Identifier, rec.Row)
		return out, nil
	}

	if len(files) > 1 {
		e.logger.Debug("identifier matched several documents",
			logging.String("identifier", rec.Identifier),
			logging.Int("files", len(files)),
		)
	}
	for _, file := range files {
		if _, gone := e.replaced[file.path]; gone {
			continue
		}
		entry, err := e.place(file, barcode)
		if err != nil {
			return out, err
		}
		if err := e.sink.Add(filepath.Join(e.dir, entry), entry); err != nil {
			return out, fmt.Errorf("archive %s: %w", entry, err)
		}
		out.Files = append(out.Files, entry)
		report.Matches = append(report.Matches, Match{
			Row:        rec.Row,
			Identifier: rec.Identifier,
			Barcode:    rec.Barcode,
			Source:     file.name,
			Entry:      entry,
		})
	}
	out.Outcome = MatchedAndArchived
	return out, nil
}

// place renames file to its barcode name and returns the new name.
func (e *engine) place(file candidate, barcode string) (string, error) {
	target := barcode + file.ext
	if e.collision == CollisionSuffix {
		for n := 2; e.occupied(target, file); n++ {
			target = barcode + "-" + strconv.Itoa(n) + file.ext
		}
	} else if e.occupied(target, file) {
		logging.WarnWithContext(e.logger, "document overwrites an earlier one with the same barcode", "barcode_collision",
			logging.String("source", file.name),
			logging.String("target", target),
			logging.String(logging.FieldErrorHint, "set archive.collision = \"suffix\" to keep both documents"),
			logging.String(logging.FieldImpact, "archive contains duplicate entry names"),
		)
	}

	if target != file.name {
		dst := filepath.Join(e.dir, target)
		_, clobbers := os.Lstat(dst)
		if err := os.Rename(file.path, dst); err != nil {
			return "", &RenameError{From: file.path, To: dst, Err: err}
		}
		if clobbers == nil {
			e.replaced[dst] = struct{}{}
		}
	}
	e.taken[target] = struct{}{}
	e.logger.Debug("document renamed",
		logging.String("source", file.name),
		logging.String("target", target),
	)
	return target, nil
}

// live drops candidates whose original file was replaced by an earlier
// rename in this run.
func (e *engine) live(files []candidate) []candidate {
	out := files[:0]
	for _, f := range files {
		if _, gone := e.replaced[f.path]; !gone {
			out = append(out, f)
		}
	}
	return out
}

// occupied reports whether target was already produced in this run or names
// a different file already on disk.
func (e *engine) occupied(target string, file candidate) bool {
	if _, ok := e.taken[target]; ok {
		return true
	}
	if target == file.name {
		return false
	}
	_, err := os.Lstat(filepath.Join(e.dir, target))
	return err == nil
}
