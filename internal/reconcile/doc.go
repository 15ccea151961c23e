// Package reconcile matches mapping records against the documents in a
// directory, renames every match to its barcode and feeds the renamed files to
// an archive sink.
//
// Reconcile is a single synchronous pass in source-row order. Problems with
// individual rows never stop the pass; they are collected as diagnostics and
// returned in the Report. Only a failed rename, a failed archive write or an
// unreadable directory abort the run.
//
// Run wraps Reconcile with the mapping loader, the archive builder and a
// directory lock, and is what the CLI and the upload server call.
package reconcile
