package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"barcoder/internal/logging"
	"barcoder/internal/staging"
)

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	logger := logging.WithContext(r.Context(), s.logger)

	rest := strings.TrimPrefix(r.URL.Path, "/download/")
	id, name, ok := strings.Cut(rest, "/")
	if !ok || id == "" || name == "" || strings.Contains(name, "/") || name != filepath.Base(name) {
		s.writeError(w, http.StatusNotFound, "archive not found")
		return
	}

	ws, err := staging.Open(s.cfg.Paths.StagingDir, id)
	if err != nil {
		switch {
		case errors.Is(err, staging.ErrLocked):
			s.writeError(w, http.StatusConflict, "archive is being prepared or downloaded")
		case errors.Is(err, staging.ErrWorkspaceNotFound), errors.Is(err, staging.ErrInvalidWorkspaceID):
			s.writeError(w, http.StatusNotFound, "archive not found")
		default:
			logger.Error("failed to open workspace", logging.String("workspace", id), logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to open archive")
		}
		return
	}
	logger = logger.With(logging.String("workspace", id))

	archivePath := filepath.Join(ws.Path(), name)
	file, err := os.Open(archivePath)
	if err != nil || !strings.EqualFold(filepath.Ext(name), ".zip") {
		if file != nil {
			file.Close()
		}
		_ = ws.Unlock()
		s.writeError(w, http.StatusNotFound, "archive not found")
		return
	}
	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		file.Close()
		_ = ws.Unlock()
		s.writeError(w, http.StatusNotFound, "archive not found")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	written, copyErr := io.Copy(w, file)
	file.Close()

	if copyErr != nil || written != info.Size() {
		// Keep the workspace so the client can retry until the sweeper expires it.
		logging.WarnWithContext(logger, "archive download interrupted", "download_interrupted",
			logging.Int64("sent", written),
			logging.Int64("size", info.Size()),
			logging.Error(copyErr),
			logging.String(logging.FieldImpact, "workspace kept for another attempt"),
		)
		_ = ws.Unlock()
		return
	}

	if err := ws.Release(); err != nil {
		logging.WarnWithContext(logger, "failed to release workspace", "workspace_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.staging_dir permissions"),
			logging.String(logging.FieldImpact, "workspace removed by the next stale sweep"),
		)
		return
	}
	logger.Info("archive downloaded",
		logging.String("archive", name),
		logging.String("size", logging.FormatBytes(info.Size())),
		logging.String(logging.FieldEventType, "workspace_released"),
	)
}
