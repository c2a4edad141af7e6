package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mlaskin/docvision/constants"
	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/history"
	"github.com/mlaskin/docvision/internal/llm"
)

type extractRequest struct {
	Identifier string   `json:"identifier"`
	Fields     []string `json:"fields,omitempty"`
}

// resolveInput turns an incoming request into a local identifier the
// extraction service can fetch. Multipart uploads land in a temp file that
// cleanup removes; JSON bodies pass their identifier through untouched.
func (h *Handler) resolveInput(r *http.Request) (identifier string, fields []string, cleanup func(), err error) {
	cleanup = func() {}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.Config.MaxUploadBytes); err != nil {
			return "", nil, cleanup, fmt.Errorf("%w: parse multipart form: %v", common.ErrInvalidInput, err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", nil, cleanup, fmt.Errorf("%w: missing 'file' part: %v", common.ErrInvalidInput, err)
		}
		defer func() {
			_ = file.Close()
		}()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, cleanup, fmt.Errorf("read upload: %w", err)
		}

		// The local fetch path labels media types by extension, so give the
		// temp file an extension matching the uploaded bytes.
		ext := mimetype.Detect(data).Extension()
		tmp, err := os.CreateTemp(h.Config.UploadDir, "docvision-upload-*"+ext)
		if err != nil {
			return "", nil, cleanup, fmt.Errorf("create temp file: %w", err)
		}
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return "", nil, cleanup, fmt.Errorf("write temp file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return "", nil, cleanup, fmt.Errorf("close temp file: %w", err)
		}

		name := tmp.Name()
		cleanup = func() {
			if rerr := os.Remove(name); rerr != nil {
				h.Logger.Warn("server.upload.cleanup_error", "path", name, "error", rerr)
			}
		}
		if raw := strings.TrimSpace(r.FormValue("fields")); raw != "" {
			fields = splitFields(raw)
		}
		return name, fields, cleanup, nil
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", nil, cleanup, fmt.Errorf("%w: decode request body: %v", common.ErrInvalidInput, err)
	}
	return req.Identifier, req.Fields, cleanup, nil
}

func splitFields(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *Handler) handleExtractText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rid := uuid.New().String()
	ctx, cancel := common.WithTimeout(common.WithRequestID(r.Context(), rid), h.Config.RequestTimeout)
	defer cancel()

	identifier, _, cleanup, err := h.resolveInput(r)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	defer cleanup()

	var text string
	err = h.withModelRetry(ctx, func() error {
		var exErr error
		text, exErr = h.Service.ExtractText(ctx, identifier)
		return exErr
	})
	h.record(ctx, history.Entry{
		Identifier: identifier,
		Mode:       constants.ModeText,
		Result:     text,
		Status:     statusOf(err, text != ""),
		ErrorMsg:   errMsg(err),
	})
	if err != nil {
		h.Logger.Error("server.extract_text.error", "req_id", rid, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) handleExtractFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rid := uuid.New().String()
	ctx, cancel := common.WithTimeout(common.WithRequestID(r.Context(), rid), h.Config.RequestTimeout)
	defer cancel()

	identifier, fields, cleanup, err := h.resolveInput(r)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	defer cleanup()

	if len(fields) == 0 {
		fields = constants.DefaultFields
	}

	var out map[string]any
	err = h.withModelRetry(ctx, func() error {
		var exErr error
		out, exErr = h.Service.ExtractStructuredData(ctx, identifier, fields)
		return exErr
	})

	resultJSON := ""
	if out != nil {
		if b, mErr := json.Marshal(out); mErr == nil {
			resultJSON = string(b)
		}
	}
	h.record(ctx, history.Entry{
		Identifier: identifier,
		Mode:       constants.ModeStructured,
		Fields:     strings.Join(fields, ","),
		Result:     resultJSON,
		Status:     statusOf(err, len(out) > 0),
		ErrorMsg:   errMsg(err),
	})
	if err != nil {
		h.Logger.Error("server.extract_fields.error", "req_id", rid, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	resp := map[string]any{"fields": out}
	if r.URL.Query().Get("validate") == "1" {
		vErr := llm.ValidateAgainstSchema(llm.BuildFieldsSchema(fields), []byte(resultJSON))
		resp["valid"] = vErr == nil
		if vErr != nil {
			resp["validation_error"] = vErr.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// record writes a history row, best effort. History uses a background
// context so a request hitting its deadline still gets logged.
func (h *Handler) record(ctx context.Context, e history.Entry) {
	if h.History == nil {
		return
	}
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.History.Record(recCtx, e); err != nil {
		h.Logger.Warn("server.history.record_error", "error", err)
	}
}

func statusOf(err error, hasOutput bool) constants.ExtractionStatus {
	switch {
	case err != nil:
		return constants.StatusFailed
	case !hasOutput:
		return constants.StatusEmpty
	default:
		return constants.StatusOK
	}
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
