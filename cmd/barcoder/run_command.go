package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"barcoder/internal/config"
	"barcoder/internal/logging"
	"barcoder/internal/mapping"
	"barcoder/internal/preflight"
	"barcoder/internal/reconcile"
)

type runOptions struct {
	mappingPath      string
	dir              string
	archivePath      string
	identifierColumn string
	barcodeColumn    string
	sheet            string
	collision        string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run --mapping FILE --dir DIR",
		Short: "Rename matched documents to their barcodes and build the archive",
		Long: `Read the identifier/barcode mapping from a spreadsheet, rename every document
in DIR whose name matches an identifier to its barcode, and package the renamed
documents into a zip archive (DIR/processed_files.zip unless --archive is set).

Rows that cannot be reconciled are reported but never stop the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			req, err := opts.request(cfg)
			if err != nil {
				return err
			}
			checks := []preflight.Result{
				preflight.CheckReadableFile("Mapping", req.MappingPath),
				preflight.CheckDirectoryAccess("Documents", req.Dir),
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%s: %s", strings.ToLower(failed[0].Name), failed[0].Detail)
			}
			req.Logger = logger

			result, err := reconcile.Run(cmd.Context(), req)
			if err != nil {
				return describeRunError(err)
			}
			if ctx.jsonMode(cmd) {
				return writeJSON(cmd, runPayload(result))
			}
			printRunResult(cmd, result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.mappingPath, "mapping", "m", "", "Spreadsheet (.xlsx or .csv) with identifier and barcode columns")
	flags.StringVarP(&opts.dir, "dir", "d", "", "Directory holding the documents to rename")
	flags.StringVarP(&opts.archivePath, "archive", "o", "", "Archive output path (default DIR/<archive.name>)")
	flags.StringVar(&opts.identifierColumn, "identifier-column", "", "Override mapping.identifier_column")
	flags.StringVar(&opts.barcodeColumn, "barcode-column", "", "Override mapping.barcode_column")
	flags.StringVar(&opts.sheet, "sheet", "", "Override mapping.sheet")
	flags.StringVar(&opts.collision, "collision", "", "Override archive.collision (suffix, overwrite)")
	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

// request merges flags over configuration.
func (o *runOptions) request(cfg *config.Config) (reconcile.Request, error) {
	mappingPath, err := config.ExpandPath(strings.TrimSpace(o.mappingPath))
	if err != nil {
		return reconcile.Request{}, fmt.Errorf("resolve --mapping: %w", err)
	}
	dir, err := config.ExpandPath(strings.TrimSpace(o.dir))
	if err != nil {
		return reconcile.Request{}, fmt.Errorf("resolve --dir: %w", err)
	}
	archivePath, err := config.ExpandPath(strings.TrimSpace(o.archivePath))
	if err != nil {
		return reconcile.Request{}, fmt.Errorf("resolve --archive: %w", err)
	}
	if archivePath == "" {
		archivePath = filepath.Join(dir, cfg.Archive.Name)
	}

	columns := mapping.Columns{
		Identifier: firstNonEmpty(o.identifierColumn, cfg.Mapping.IdentifierColumn),
		Barcode:    firstNonEmpty(o.barcodeColumn, cfg.Mapping.BarcodeColumn),
	}
	if strings.EqualFold(columns.Identifier, columns.Barcode) {
		return reconcile.Request{}, fmt.Errorf("identifier and barcode columns must differ (both %q)", columns.Identifier)
	}
	collision := strings.ToLower(firstNonEmpty(o.collision, cfg.Archive.Collision))
	if collision != reconcile.CollisionSuffix && collision != reconcile.CollisionOverwrite {
		return reconcile.Request{}, fmt.Errorf("--collision must be %q or %q, got %q", reconcile.CollisionSuffix, reconcile.CollisionOverwrite, collision)
	}

	return reconcile.Request{
		MappingPath: mappingPath,
		Dir:         dir,
		ArchivePath: archivePath,
		Columns:     columns,
		Sheet:       firstNonEmpty(o.sheet, cfg.Mapping.Sheet),
		Collision:   collision,
	}, nil
}

func describeRunError(err error) error {
	switch {
	case errors.Is(err, mapping.ErrUnsupportedFormat):
		return fmt.Errorf("%w (save the workbook as .xlsx or export it as .csv)", err)
	case errors.Is(err, mapping.ErrSheetNotFound):
		return fmt.Errorf("%w (check mapping.sheet or --sheet)", err)
	default:
		var renameErr *reconcile.RenameError
		if errors.As(err, &renameErr) {
			return fmt.Errorf("%w (documents renamed before the failure keep their new names)", err)
		}
		return err
	}
}

type runJSON struct {
	Archive     string                 `json:"archive"`
	ArchiveSize int64                  `json:"archive_size_bytes"`
	Records     int                    `json:"records"`
	Matched     int                    `json:"matched"`
	Messages    []string               `json:"messages"`
	Diagnostics []reconcile.Diagnostic `json:"diagnostics"`
	Matches     []reconcile.Match      `json:"matches"`
}

func runPayload(result reconcile.Result) runJSON {
	return runJSON{
		Archive:     result.Archive.Path,
		ArchiveSize: result.Archive.Bytes,
		Records:     result.Records,
		Matched:     len(result.Report.Matches),
		Messages:    result.Messages(),
		Diagnostics: result.Report.Diagnostics,
		Matches:     result.Report.Matches,
	}
}

func printRunResult(cmd *cobra.Command, result reconcile.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Archive: %s (%s)\n", result.Archive.Path, logging.FormatBytes(result.Archive.Bytes))
	fmt.Fprintf(out, "Records: %d, documents archived: %d\n\n", result.Records, len(result.Report.Matches))

	if len(result.Report.Matches) > 0 {
		rows := make([][]string, 0, len(result.Report.Matches))
		for _, m := range result.Report.Matches {
			rows = append(rows, []string{strconv.Itoa(m.Row), m.Identifier, m.Source, m.Entry})
		}
		fmt.Fprint(out, renderTable(tableSpec{
			headers: []string{"Row", "Identifier", "Document", "Archived as"},
			rows:    rows,
			aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		}))
		fmt.Fprintln(out)
	}

	if len(result.Report.Diagnostics) == 0 {
		fmt.Fprintln(out, "No problems found")
		return
	}
	rows := make([][]string, 0, len(result.Report.Diagnostics))
	for i, d := range result.Report.Diagnostics {
		rows = append(rows, []string{strconv.Itoa(i + 1), d.Message, formatRows(d.Rows)})
	}
	fmt.Fprint(out, renderTable(tableSpec{
		headers:  []string{"#", "Problem", "Rows"},
		rows:     rows,
		aligns:   []columnAlignment{alignRight, alignLeft, alignLeft},
		widthMax: map[int]int{1: 80, 2: 24},
	}))
}

func formatRows(rows []int) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, strconv.Itoa(r))
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
