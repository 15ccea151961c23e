package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"barcoder/internal/config"
	"barcoder/internal/logging"
	"barcoder/internal/mapping"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Server is the upload service.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
	stopped  chan struct{}
}

// New builds a server for cfg. Nothing is bound until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if strings.TrimSpace(cfg.Paths.StagingDir) == "" {
		return nil, errors.New("server: staging directory not configured")
	}
	s := &Server{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", authMiddleware(cfg.Server.APIToken, s.handleIndex))
	mux.HandleFunc("/upload", authMiddleware(cfg.Server.APIToken, s.handleUpload))
	mux.HandleFunc("/download/", authMiddleware(cfg.Server.APIToken, s.handleDownload))
	mux.HandleFunc("/healthz", s.handleHealth)
	s.handler = requestIDMiddleware(s.logger, mux)
	return s, nil
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listener and serves in the background until ctx is done or
// Stop is called. The stale workspace sweeper runs for the same lifetime.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Bind, err)
	}
	timeout := s.cfg.RequestTimeout()
	s.listener = listener
	s.stopped = make(chan struct{})
	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       60 * time.Second,
	}

	srv := s.http
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	sweepCtx, cancel := context.WithCancel(ctx)
	stopped := s.stopped
	go func() {
		defer cancel()
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopped:
		}
	}()
	go s.sweep(sweepCtx)

	s.logger.Info("upload server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.cfg.Server.APIToken != ""),
		logging.String(logging.FieldEventType, "server_started"),
	)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully. It is safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown incomplete", logging.Error(err))
	}
	close(s.stopped)
	s.http = nil
	s.listener = nil
	s.logger.Info("upload server stopped", logging.String(logging.FieldEventType, "server_stopped"))
}

func (s *Server) columns() mapping.Columns {
	return mapping.Columns{
		Identifier: s.cfg.Mapping.IdentifierColumn,
		Barcode:    s.cfg.Mapping.BarcodeColumn,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cols := s.columns()
	data := struct {
		IdentifierColumn string
		BarcodeColumn    string
		MaxUploadMiB     int
	}{cols.Identifier, cols.Barcode, s.cfg.Server.MaxUploadMiB}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		logging.WithContext(r.Context(), s.logger).Error("render index", logging.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
