package config

const (
	defaultConfigPath             = "~/.config/barcoder/config.toml"
	defaultStagingDir             = "~/.local/share/barcoder/staging"
	defaultLogDir                 = "~/.local/share/barcoder/logs"
	defaultBind                   = "127.0.0.1:2700"
	defaultMaxUploadMiB           = 512
	defaultWorkspaceMaxAgeMinutes = 60
	defaultCleanupIntervalMinutes = 10
	defaultShutdownTimeoutSeconds = 5
	defaultRequestTimeoutSeconds  = 300
	defaultIdentifierColumn       = "Ipd No."
	defaultBarcodeColumn          = "Barcode"
	defaultArchiveName            = "processed_files.zip"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Collision policies for archive entries that share a barcode.
const (
	CollisionSuffix    = "suffix"
	CollisionOverwrite = "overwrite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Server: Server{
			Bind:                   defaultBind,
			MaxUploadMiB:           defaultMaxUploadMiB,
			WorkspaceMaxAgeMinutes: defaultWorkspaceMaxAgeMinutes,
			CleanupIntervalMinutes: defaultCleanupIntervalMinutes,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
			RequestTimeoutSeconds:  defaultRequestTimeoutSeconds,
		},
		Mapping: Mapping{
			IdentifierColumn: defaultIdentifierColumn,
			BarcodeColumn:    defaultBarcodeColumn,
		},
		Archive: Archive{
			Name:      defaultArchiveName,
			Collision: CollisionSuffix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
