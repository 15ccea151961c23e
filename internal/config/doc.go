// Package config loads, normalizes, and validates barcoder configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BARCODER_API_TOKEN. The Config type centralizes every knob the CLI and the
// upload server need: staging and log directories, spreadsheet column names,
// archive naming and the collision policy for duplicate barcodes.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
