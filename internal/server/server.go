package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avast/retry-go/v4"

	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/export"
	"github.com/mlaskin/docvision/internal/history"
)

// Extractor is the extraction API the server fronts.
type Extractor interface {
	ExtractText(ctx context.Context, identifier string) (string, error)
	ExtractStructuredData(ctx context.Context, identifier string, fields []string) (map[string]any, error)
}

// Recorder is the slice of the history store the server uses. Nil disables
// history.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Handler exposes the extraction service over HTTP: multipart uploads or
// identifier JSON bodies in, extracted text or field mappings out.
type Handler struct {
	Config  common.ServerConfig
	Service Extractor
	History Recorder
	Export  *export.Service
	Logger  *slog.Logger
}

func NewHandler(cfg common.ServerConfig, svc Extractor, hist Recorder, exp *export.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = export.NewService(logger)
	}
	return &Handler{
		Config:  cfg,
		Service: svc,
		History: hist,
		Export:  exp,
		Logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/extract/text", h.handleExtractText)
	mux.HandleFunc("/v1/extract/fields", h.handleExtractFields)
	mux.HandleFunc("/v1/extractions", h.handleListExtractions)
	mux.HandleFunc("/v1/extractions/export", h.handleExportExtractions)
	mux.HandleFunc("/healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withModelRetry re-runs fn on model failures only, up to the configured
// attempt count. Resource and input errors are final on the first try.
func (h *Handler) withModelRetry(ctx context.Context, fn func() error) error {
	attempts := h.Config.ModelAttempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.Do(
		func() error {
			err := fn()
			if err == nil {
				return nil
			}
			if errors.Is(err, common.ErrModel) {
				return err
			}
			return retry.Unrecoverable(err)
		},
		retry.Attempts(uint(attempts)),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps the pipeline's error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrResource):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrModel):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
