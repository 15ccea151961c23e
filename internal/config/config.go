package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Server contains configuration for the HTTP upload service.
type Server struct {
	Bind                   string `toml:"bind"`
	APIToken               string `toml:"api_token"`
	MaxUploadMiB           int    `toml:"max_upload_mib"`
	WorkspaceMaxAgeMinutes int    `toml:"workspace_max_age_minutes"`
	CleanupIntervalMinutes int    `toml:"cleanup_interval_minutes"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`
}

// Mapping describes the spreadsheet schema.
type Mapping struct {
	IdentifierColumn string `toml:"identifier_column"`
	BarcodeColumn    string `toml:"barcode_column"`
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string `toml:"sheet"`
}

// Archive contains configuration for the generated zip file.
type Archive struct {
	Name string `toml:"name"`
	// Collision is "suffix" (B001.pdf, B001-2.pdf) or "overwrite".
	Collision string `toml:"collision"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for barcoder.
//
// Configuration sections by subsystem:
//   - Paths: staging workspaces and log directory
//   - Server: upload service bind address, auth and workspace lifetime
//   - Mapping: spreadsheet column names and sheet selection
//   - Archive: archive file name and duplicate-barcode policy
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Server  Server  `toml:"server"`
	Mapping Mapping `toml:"mapping"`
	Archive Archive `toml:"archive"`
	Logging Logging `toml:"logging"`
}

// EnsureDirectories creates the staging and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MaxUploadBytes returns the multipart size limit for a single upload request.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMiB) << 20
}

// WorkspaceMaxAge is how long an undownloaded workspace survives before the sweeper removes it.
func (c *Config) WorkspaceMaxAge() time.Duration {
	return time.Duration(c.Server.WorkspaceMaxAgeMinutes) * time.Minute
}

// CleanupInterval is the period between stale workspace sweeps.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Server.CleanupIntervalMinutes) * time.Minute
}

// ShutdownTimeout bounds graceful HTTP shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// RequestTimeout bounds reading and writing a single HTTP request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
