package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"barcoder/internal/logging"
	"barcoder/internal/preflight"
	"barcoder/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP upload service",
		Long: `Serve the upload form and API. Each upload is processed in its own staging
workspace; downloading the archive deletes the workspace. Runs until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.Server.Bind = b
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
				for _, r := range failed {
					logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
						logging.String("check", r.Name),
						logging.String("detail", r.Detail),
					)
				}
				return fmt.Errorf("preflight failed: %s: %s", failed[0].Name, failed[0].Detail)
			}

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())

			<-runCtx.Done()
			srv.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
