package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"chatvault/internal/constants"
	apperrors "chatvault/internal/errors"
	"chatvault/internal/metrics"
	"chatvault/internal/models"
	"chatvault/internal/service"
	"chatvault/internal/tracing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router   *mux.Router
	logger   *logrus.Logger
	importer service.Importer
	cfg      *models.Config
	server   *http.Server
}

func NewServer(cfg *models.Config, importer service.Importer, logger *logrus.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		importer: importer,
		cfg:      cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)

	// Metrics
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	// Chat export import
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/import", s.handleImport()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadHeaderTimeout: constants.DefaultServerReadTimeoutSec * time.Second,
		ReadTimeout:       time.Duration(s.cfg.Server.ImportTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Server.ImportTimeoutSec) * time.Second,
		IdleTimeout:       constants.DefaultServerIdleTimeoutSec * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// handleMetrics dumps the in-process metric registry as indented JSON.
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics.GetAllMetrics()); err != nil {
			s.logger.WithError(err).Error("Failed to encode metrics response")
		}
	}
}

// handleImport accepts a multipart upload (file, group_name, optional limit)
// and runs the full ingestion pipeline on it.
func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := int64(s.cfg.Server.MaxUploadSizeMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			s.writeError(w, r, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "failed to parse multipart form").
				WithUserMessage("Upload must be a multipart form with a file field"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, r, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "missing file field").
				WithUserMessage("A file upload is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			s.writeError(w, r, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "failed to read upload"))
			return
		}

		limit := 0
		if raw := r.FormValue("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				s.writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid limit").
					WithUserMessage("limit must be a non-negative integer"))
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.Server.ImportTimeoutSec)*time.Second)
		defer cancel()

		stats, err := s.importer.Import(ctx, service.ImportRequest{
			FileName:  header.Filename,
			Data:      data,
			GroupName: r.FormValue("group_name"),
			Limit:     limit,
		})
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				err = apperrors.Wrap(err, apperrors.ErrCodeTimeout, "import timed out").
					WithUserMessage("The import took too long and was aborted")
			}
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)

	s.logger.WithFields(logrus.Fields{
		"trace_id": tracing.GetTraceID(r.Context()),
		"code":     string(code),
		"path":     r.URL.Path,
	}).WithError(err).Warn("Request failed")

	s.writeJSON(w, statusForCode(code), map[string]string{
		"error": apperrors.GetUserMessage(err),
		"code":  string(code),
	})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeCorruptArchive:
		return http.StatusBadRequest
	case apperrors.ErrCodeNoTranscript, apperrors.ErrCodeEmptyImport:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
