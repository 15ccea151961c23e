package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeMapping()
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = ExpandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if value, ok := os.LookupEnv("BARCODER_API_TOKEN"); ok {
		c.Server.APIToken = value
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
}

func (c *Config) normalizeMapping() {
	c.Mapping.IdentifierColumn = strings.TrimSpace(c.Mapping.IdentifierColumn)
	if c.Mapping.IdentifierColumn == "" {
		c.Mapping.IdentifierColumn = defaultIdentifierColumn
	}
	c.Mapping.BarcodeColumn = strings.TrimSpace(c.Mapping.BarcodeColumn)
	if c.Mapping.BarcodeColumn == "" {
		c.Mapping.BarcodeColumn = defaultBarcodeColumn
	}
	c.Mapping.Sheet = strings.TrimSpace(c.Mapping.Sheet)
}

func (c *Config) normalizeArchive() {
	c.Archive.Name = strings.TrimSpace(c.Archive.Name)
	if c.Archive.Name == "" {
		c.Archive.Name = defaultArchiveName
	}
	if !strings.EqualFold(filepath.Ext(c.Archive.Name), ".zip") {
		c.Archive.Name += ".zip"
	}
	c.Archive.Collision = strings.ToLower(strings.TrimSpace(c.Archive.Collision))
	if c.Archive.Collision == "" {
		c.Archive.Collision = CollisionSuffix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
