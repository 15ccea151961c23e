package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"barcoder/internal/logging"
)

// Loader reads mapping records from a workbook or CSV file.
type Loader struct {
	Columns Columns
	// Sheet selects a worksheet by name; empty selects the first sheet.
	Sheet  string
	Logger *slog.Logger
}

// Load reads path with the given columns and default settings.
func Load(path string, columns Columns) ([]Record, error) {
	return Loader{Columns: columns}.Load(path)
}

// Load returns one Record per non-blank data row, in source order.
func (l Loader) Load(path string) ([]Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("stat mapping source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx", ErrUnsupportedFormat)
	default:
		rows, err = l.readWorkbook(path)
	}
	if err != nil {
		return nil, err
	}

	return l.records(path, rows), nil
}

func (l Loader) readWorkbook(path string) ([][]string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheet := strings.TrimSpace(l.Sheet)
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		sheet = sheets[0]
	} else if idx, err := book.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// records turns raw rows into Records. The first non-blank row is the header.
func (l Loader) records(path string, rows [][]string) []Record {
	columns := l.Columns
	if strings.TrimSpace(columns.Identifier) == "" {
		columns.Identifier = DefaultColumns().Identifier
	}
	if strings.TrimSpace(columns.Barcode) == "" {
		columns.Barcode = DefaultColumns().Barcode
	}

	headerIdx := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return []Record{}
	}

	header := rows[headerIdx]
	idCol := findColumn(header, columns.Identifier)
	barcodeCol := findColumn(header, columns.Barcode)

	logger := logging.NewComponentLogger(l.Logger, "mapping")
	for _, missing := range []struct {
		name string
		idx  int
	}{{columns.Identifier, idCol}, {columns.Barcode, barcodeCol}} {
		if missing.idx >= 0 {
			continue
		}
		logging.WarnWithContext(logger, "mapping column not found", "mapping_column_missing",
			logging.String("column", missing.name),
			logging.String("source", filepath.Base(path)),
			logging.Strings("header", header),
			logging.String(logging.FieldErrorHint, "check the header row or the [mapping] column names"),
			logging.String(logging.FieldImpact, "every row will be reported with this field missing"),
		)
	}

	records := make([]Record, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		records = append(records, Record{
			Row:        i + 1,
			Identifier: cell(row, idCol),
			Barcode:    cell(row, barcodeCol),
		})
	}
	return records
}

func findColumn(header []string, name string) int {
	want := foldHeader(name)
	for i, value := range header {
		if foldHeader(value) == want {
			return i
		}
	}
	return -1
}

func foldHeader(value string) string {
	return cases.Fold().String(strings.Join(strings.Fields(value), " "))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
