// Package main hosts the barcoder CLI entrypoint and command graph.
//
// The Cobra-based command tree runs reconciliations against a local
// spreadsheet and document folder, serves the upload UI, scaffolds
// configuration and maintains the staging area used by the server. It
// centralizes configuration resolution, output mode selection and logging
// setup so subcommands only deal with presentation.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
