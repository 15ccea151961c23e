package testsupport

import (
	"path/filepath"
	"testing"

	"barcoder/internal/config"
)

// ConfigOption adjusts the config returned by NewConfig.
type ConfigOption func(*config.Config)

// NewConfig returns a validated default config whose staging and log
// directories live under a per-test temp dir. The server binds an ephemeral
// loopback port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(root, "staging")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Server.Bind = "127.0.0.1:0"
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithAPIToken requires bearer authentication on the test server.
func WithAPIToken(token string) ConfigOption {
	return func(c *config.Config) { c.Server.APIToken = token }
}

// WithColumns overrides the spreadsheet header names.
func WithColumns(identifier, barcode string) ConfigOption {
	return func(c *config.Config) {
		c.Mapping.IdentifierColumn = identifier
		c.Mapping.BarcodeColumn = barcode
	}
}
