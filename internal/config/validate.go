package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateMapping(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	return ensurePositiveMap(map[string]int{
		"server.max_upload_mib":            c.Server.MaxUploadMiB,
		"server.workspace_max_age_minutes": c.Server.WorkspaceMaxAgeMinutes,
		"server.cleanup_interval_minutes":  c.Server.CleanupIntervalMinutes,
		"server.shutdown_timeout_seconds":  c.Server.ShutdownTimeoutSeconds,
		"server.request_timeout_seconds":   c.Server.RequestTimeoutSeconds,
	})
}

func (c *Config) validateMapping() error {
	if strings.EqualFold(c.Mapping.IdentifierColumn, c.Mapping.BarcodeColumn) {
		return fmt.Errorf("mapping.identifier_column and mapping.barcode_column must differ (both %q)", c.Mapping.IdentifierColumn)
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.Name != filepath.Base(c.Archive.Name) || strings.HasPrefix(c.Archive.Name, ".") {
		return fmt.Errorf("archive.name must be a plain file name, got %q", c.Archive.Name)
	}
	switch c.Archive.Collision {
	case CollisionSuffix, CollisionOverwrite:
		return nil
	default:
		return fmt.Errorf("archive.collision must be %q or %q, got %q", CollisionSuffix, CollisionOverwrite, c.Archive.Collision)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
