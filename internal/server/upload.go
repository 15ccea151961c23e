package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"barcoder/internal/fileutil"
	"barcoder/internal/logging"
	"barcoder/internal/mapping"
	"barcoder/internal/reconcile"
	"barcoder/internal/staging"
	"barcoder/internal/textutil"
)

const (
	mappingField  = "excelFile"
	documentField = "pdfDirectory[]"
	// documentFieldAlt accepts clients that omit the array suffix.
	documentFieldAlt = "pdfDirectory"

	multipartMemory = 32 << 20
)

// uploadResponse mirrors the JSON the upload form expects.
type uploadResponse struct {
	ZipFilePath  string                 `json:"zipFilePath"`
	Messages     []string               `json:"messages"`
	ArchiveBytes int64                  `json:"archiveBytes"`
	Matched      int                    `json:"matched"`
	Diagnostics  []reconcile.Diagnostic `json:"diagnostics"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	logger := logging.WithContext(r.Context(), s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds %d MiB.", s.cfg.Server.MaxUploadMiB))
			return
		}
		s.writeError(w, http.StatusBadRequest, "No files uploaded.")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Debug("remove multipart temp files", logging.Error(err))
		}
	}()

	mappingFiles := r.MultipartForm.File[mappingField]
	documents := append(r.MultipartForm.File[documentField], r.MultipartForm.File[documentFieldAlt]...)
	switch {
	case len(mappingFiles) == 0 && len(documents) == 0:
		s.writeError(w, http.StatusBadRequest, "No files uploaded.")
		return
	case len(mappingFiles) == 0:
		s.writeError(w, http.StatusBadRequest, "No Excel file uploaded.")
		return
	case len(documents) == 0:
		s.writeError(w, http.StatusBadRequest, "No PDF files uploaded.")
		return
	}

	ws, err := staging.Acquire(s.cfg.Paths.StagingDir)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to create workspace", "workspace_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.staging_dir permissions"),
		)
		s.writeError(w, http.StatusInternalServerError, "Failed to create workspace.")
		return
	}
	logger = logger.With(logging.String("workspace", ws.ID()))

	resp, failure := s.process(r.Context(), logger, ws, mappingFiles[0], documents)
	if failure != nil {
		if err := ws.Release(); err != nil {
			logger.Warn("failed to release workspace", logging.Error(err))
		}
		s.writeError(w, failure.status, failure.message)
		return
	}
	if err := ws.Unlock(); err != nil {
		logger.Warn("failed to unlock workspace", logging.Error(err))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// uploadFailure is the status and client-facing message of a failed upload.
type uploadFailure struct {
	status  int
	message string
}

// process saves the uploads into ws and runs the reconciliation.
func (s *Server) process(ctx context.Context, logger *slog.Logger, ws *staging.Workspace, mappingHeader *multipart.FileHeader, documents []*multipart.FileHeader) (uploadResponse, *uploadFailure) {
	ext := strings.ToLower(filepath.Ext(uploadName(mappingHeader.Filename)))
	if ext == "" {
		ext = ".xlsx"
	}
	mappingPath := filepath.Join(ws.Path(), "mapping"+ext)
	if err := saveUpload(mappingHeader, mappingPath); err != nil {
		logger.Error("failed to store mapping upload", logging.Error(err))
		return uploadResponse{}, &uploadFailure{http.StatusInternalServerError, "Failed to store uploaded files."}
	}

	saved := 0
	for _, header := range documents {
		name := uploadName(header.Filename)
		if name == "" {
			logging.WarnWithContext(logger, "skipping upload without a usable file name", "upload_skipped",
				logging.String("filename", header.Filename),
				logging.String(logging.FieldImpact, "document not considered for matching"),
			)
			continue
		}
		if err := saveUpload(header, filepath.Join(ws.DocumentsDir(), name)); err != nil {
			logger.Error("failed to store document upload", logging.String("filename", name), logging.Error(err))
			return uploadResponse{}, &uploadFailure{http.StatusInternalServerError, "Failed to store uploaded files."}
		}
		saved++
	}
	if saved == 0 {
		return uploadResponse{}, &uploadFailure{http.StatusBadRequest, "No PDF files uploaded."}
	}
	logger.Info("upload stored",
		logging.String("mapping", mappingHeader.Filename),
		logging.Int("documents", saved),
	)

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout())
	defer cancel()
	result, err := reconcile.Run(runCtx, reconcile.Request{
		MappingPath: mappingPath,
		Dir:         ws.DocumentsDir(),
		ArchivePath: filepath.Join(ws.Path(), s.cfg.Archive.Name),
		Columns:     s.columns(),
		Sheet:       s.cfg.Mapping.Sheet,
		Collision:   s.cfg.Archive.Collision,
		Logger:      logger,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mapping.ErrUnsupportedFormat) || errors.Is(err, mapping.ErrSheetNotFound) {
			status = http.StatusBadRequest
		}
		logging.ErrorWithContext(logger, "reconciliation failed", "reconcile_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the uploaded spreadsheet"),
		)
		return uploadResponse{}, &uploadFailure{status, "Error processing files: " + err.Error()}
	}

	messages := result.Messages()
	return uploadResponse{
		ZipFilePath:  path.Join(ws.ID(), filepath.Base(result.Archive.Path)),
		Messages:     messages,
		ArchiveBytes: result.Archive.Bytes,
		Matched:      len(result.Report.Matches),
		Diagnostics:  result.Report.Diagnostics,
	}, nil
}

// uploadName reduces a client-supplied file name to a safe base name.
func uploadName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return textutil.SanitizeFileName(path.Base(name))
}

func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = fileutil.SaveReader(dst, src, 0o644)
	return err
}
