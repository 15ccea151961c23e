package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook saves rows into the first sheet of a new .xlsx file at path.
// The first row is usually the header.
func WriteWorkbook(t testing.TB, path string, rows [][]string) {
	t.Helper()
	WriteWorkbookSheet(t, path, "Sheet1", rows)
}

// WriteWorkbookSheet is WriteWorkbook with an explicit first-sheet name.
func WriteWorkbookSheet(t testing.TB, path, sheet string, rows [][]string) {
	t.Helper()

	book := excelize.NewFile()
	defer book.Close()

	if sheet != "Sheet1" {
		if err := book.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := book.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	if err := book.SaveAs(filepath.Clean(path)); err != nil {
		t.Fatalf("save workbook %s: %v", path, err)
	}
}
