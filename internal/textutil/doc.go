// Package textutil provides the string canonicalization used to compare
// spreadsheet identifiers with document file names, and the sanitization
// applied before a barcode becomes a file name.
//
// NormalizeKey projects free text onto lowercase ASCII letters and digits so
// "A-123", "a 123" and "a123" all compare equal. SanitizeFileName keeps
// user-supplied values from escaping the target directory.
package textutil
