package server

import (
	"context"
	"time"

	"barcoder/internal/logging"
	"barcoder/internal/staging"
)

// sweep removes abandoned workspaces every cleanup interval until ctx ends.
func (s *Server) sweep(ctx context.Context) {
	interval := s.cfg.CleanupInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Server) sweepOnce(ctx context.Context) staging.CleanResult {
	result := staging.CleanStale(ctx, s.cfg.Paths.StagingDir, s.cfg.WorkspaceMaxAge(), s.logger)
	if len(result.Removed) > 0 || len(result.Errors) > 0 {
		s.logger.Info("stale workspace sweep finished",
			logging.Int("removed", len(result.Removed)),
			logging.Int("skipped", len(result.Skipped)),
			logging.Int("errors", len(result.Errors)),
			logging.String(logging.FieldEventType, "staging_sweep"),
		)
	}
	return result
}
