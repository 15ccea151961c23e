// Package mapping reads the identifier-to-barcode spreadsheet into raw
// records.
//
// The loader is deliberately permissive: it never validates rows. A row with
// a blank identifier or barcode still produces a Record, and the
// reconciliation engine decides what that means. Only structural failures
// (missing file, unreadable workbook, unknown sheet) are errors.
package mapping
