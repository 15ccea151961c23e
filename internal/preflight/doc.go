// Package preflight provides readiness checks for the filesystem paths and
// listen address barcoder depends on.
//
// These checks run in two contexts:
//   - "barcoder serve" calls RunAll before binding and refuses to start when a
//     check fails.
//   - "barcoder config validate" and "barcoder run" use the individual checks
//     to report what is wrong before any file is touched.
package preflight
