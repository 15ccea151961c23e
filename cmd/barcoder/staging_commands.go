package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"barcoder/internal/logging"
	"barcoder/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage upload workspaces",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List upload workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			var totalSize int64
			for _, dir := range dirs {
				totalSize += dir.Size
			}

			if ctx.jsonMode(cmd) {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir":      stagingDir,
					"directories":      dirs,
					"total_size_bytes": totalSize,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No workspaces found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{
					shortName(dir.Name),
					formatDuration(time.Since(dir.ModTime).Truncate(time.Minute)),
					strconv.Itoa(dir.Files),
					logging.FormatBytes(dir.Size),
					yesNo(dir.InUse),
				})
			}
			fmt.Fprint(out, renderTable(tableSpec{
				headers: []string{"Workspace", "Age", "Files", "Size", "In use"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
				footer:  []string{fmt.Sprintf("%d total", len(dirs)), "", "", logging.FormatBytes(totalSize), ""},
			}))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove abandoned upload workspaces",
		Long: `Remove upload workspaces whose archive was never downloaded.

By default only workspaces older than server.workspace_max_age_minutes are
removed. Use --all to remove every workspace regardless of age. Workspaces in
use by a running server are always skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var result staging.CleanResult
			label := "stale"
			if cleanAll {
				label = "unused"
				result = staging.CleanAll(cmd.Context(), cfg.Paths.StagingDir, logger)
			} else {
				result = staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, cfg.WorkspaceMaxAge(), logger)
			}

			if ctx.jsonMode(cmd) {
				return writeStagingCleanJSON(cmd, result)
			}
			return printStagingCleanResult(cmd, result, label)
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all workspaces that are not in use")

	return cmd
}

func printStagingCleanResult(cmd *cobra.Command, result staging.CleanResult, label string) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintf(out, "No %s workspaces to clean\n", label)
	} else {
		fmt.Fprintf(out, "Removed %d %s workspaces", len(result.Removed), label)
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, ", %d errors", len(result.Errors))
		}
		fmt.Fprintln(out)
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped %d workspaces in use\n", len(result.Skipped))
	}
	return nil
}

func writeStagingCleanJSON(cmd *cobra.Command, result staging.CleanResult) error {
	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
	}
	return writeJSON(cmd, map[string]any{
		"removed": len(result.Removed),
		"skipped": len(result.Skipped),
		"errors":  errs,
	})
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd", days)
}

func shortName(name string) string {
	if len(name) > 8 {
		return name[:8]
	}
	return name
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
