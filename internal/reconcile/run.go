package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"barcoder/internal/archive"
	"barcoder/internal/logging"
	"barcoder/internal/mapping"
	"barcoder/internal/staging"
)

// Request describes one end-to-end run.
type Request struct {
	MappingPath string
	Dir         string
	// ArchivePath defaults to <Dir>/processed_files.zip.
	ArchivePath string
	Columns     mapping.Columns
	Sheet       string
	Collision   string
	Logger      *slog.Logger
}

// Result is returned only when every step succeeded.
type Result struct {
	Archive archive.Result `json:"archive"`
	Report  Report         `json:"report"`
	Records int            `json:"records"`
}

// Messages returns the diagnostic lines of the run.
func (r Result) Messages() []string { return r.Report.Messages() }

// Run loads the mapping, reconciles it against Dir and packages the renamed
// documents. Any fatal error removes the partial archive and returns a zero
// Result.
func Run(ctx context.Context, req Request) (Result, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(req.Logger, "reconcile"))
	start := time.Now()

	dir := strings.TrimSpace(req.Dir)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
		}
		return Result{}, fmt.Errorf("stat document directory: %w", err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}

	unlock, err := staging.LockDir(dir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Warn("failed to release directory lock", logging.Error(err))
		}
	}()

	loader := mapping.Loader{Columns: req.Columns, Sheet: req.Sheet, Logger: req.Logger}
	records, err := loader.Load(req.MappingPath)
	if err != nil {
		return Result{}, fmt.Errorf("load mapping: %w", err)
	}

	archivePath := strings.TrimSpace(req.ArchivePath)
	if archivePath == "" {
		archivePath = filepath.Join(dir, archive.DefaultName)
	}
	builder, err := archive.Begin(archivePath)
	if err != nil {
		return Result{}, err
	}

	report, err := Reconcile(ctx, records, dir, builder, Options{
		Labels:    req.Columns,
		Collision: req.Collision,
		Exclude:   excludedNames(dir, archivePath, req.MappingPath),
		Logger:    req.Logger,
	})
	if err != nil {
		abort(logger, builder)
		return Result{}, err
	}

	archived, err := builder.Finalize()
	if err != nil {
		abort(logger, builder)
		return Result{}, err
	}

	logger.Info("reconciliation finished",
		logging.Int("records", len(records)),
		logging.Int("matched", len(report.Matches)),
		logging.Int("diagnostics", len(report.Diagnostics)),
		logging.String("archive", archived.Path),
		logging.String("archive_size", logging.FormatBytes(archived.Bytes)),
		logging.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "reconcile_complete"),
	)
	return Result{Archive: archived, Report: report, Records: len(records)}, nil
}

func abort(logger *slog.Logger, builder *archive.Builder) {
	if err := builder.Abort(); err != nil {
		logging.WarnWithContext(logger, "failed to remove partial archive", "archive_abort_failed",
			logging.String("path", builder.Path()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the file manually"),
			logging.String(logging.FieldImpact, "an incomplete archive was left on disk"),
		)
	}
}

// excludedNames returns the base names of paths that live directly in dir.
func excludedNames(dir string, paths ...string) []string {
	cleanDir := absPath(dir)
	var names []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if filepath.Dir(absPath(p)) == cleanDir {
			names = append(names, filepath.Base(p))
		}
	}
	return names
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
