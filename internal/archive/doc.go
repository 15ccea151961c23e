// Package archive streams renamed documents into a single deflate-compressed
// zip file.
//
// A Builder is created with Begin, fed with Add and closed with exactly one of
// Finalize or Abort. Every write failure surfaces as a *WriteError matching
// ErrArchiveWrite; after one the builder refuses further additions and Abort
// removes the partial file.
package archive
