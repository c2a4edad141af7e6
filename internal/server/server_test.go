package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlaskin/docvision/constants"
	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/history"
)

type fakeExtractor struct {
	mu          sync.Mutex
	text        string
	fields      map[string]any
	err         error
	failTimes   int // return err this many times before succeeding
	calls       int
	identifiers []string
	fieldLists  [][]string
	onCall      func(identifier string)
}

func (f *fakeExtractor) note(identifier string, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.identifiers = append(f.identifiers, identifier)
	f.fieldLists = append(f.fieldLists, fields)
	if f.onCall != nil {
		f.onCall(identifier)
	}
	if f.err != nil && (f.failTimes == 0 || f.calls <= f.failTimes) {
		return f.err
	}
	return nil
}

func (f *fakeExtractor) ExtractText(_ context.Context, identifier string) (string, error) {
	if err := f.note(identifier, nil); err != nil {
		return "", err
	}
	return f.text, nil
}

func (f *fakeExtractor) ExtractStructuredData(_ context.Context, identifier string, fields []string) (map[string]any, error) {
	if err := f.note(identifier, fields); err != nil {
		return nil, err
	}
	return f.fields, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
	recent  []history.Entry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e history.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return f.err
}

func (f *fakeRecorder) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func testHandler(svc Extractor, rec Recorder) *Handler {
	cfg := common.ServerConfig{
		RequestTimeout: 30 * time.Second,
		MaxUploadBytes: 1 << 20,
		ModelAttempts:  1,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(cfg, svc, rec, nil, logger)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestExtractTextJSON(t *testing.T) {
	svc := &fakeExtractor{text: "# Invoice"}
	rec := &fakeRecorder{}
	h := testHandler(svc, rec)

	w := postJSON(t, h.handleExtractText, "/v1/extract/text", extractRequest{Identifier: "https://example.com/doc.png"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "# Invoice", resp["text"])
	assert.Equal(t, []string{"https://example.com/doc.png"}, svc.identifiers)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, constants.ModeText, rec.entries[0].Mode)
	assert.Equal(t, constants.StatusOK, rec.entries[0].Status)
	assert.Equal(t, "# Invoice", rec.entries[0].Result)
}

func TestExtractTextMethodNotAllowed(t *testing.T) {
	h := testHandler(&fakeExtractor{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/extract/text", nil)
	w := httptest.NewRecorder()
	h.handleExtractText(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestExtractTextErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"resource", common.ResourceError("no such file", nil), http.StatusUnprocessableEntity},
		{"model", common.ModelError("upstream down", nil), http.StatusBadGateway},
		{"input", common.ErrInvalidInput, http.StatusBadRequest},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			h := testHandler(&fakeExtractor{err: tc.err}, rec)

			w := postJSON(t, h.handleExtractText, "/v1/extract/text", extractRequest{Identifier: "doc.png"})
			assert.Equal(t, tc.want, w.Code)

			require.Len(t, rec.entries, 1)
			assert.Equal(t, constants.StatusFailed, rec.entries[0].Status)
			assert.NotEmpty(t, rec.entries[0].ErrorMsg)
		})
	}
}

func TestExtractTextBadJSONBody(t *testing.T) {
	h := testHandler(&fakeExtractor{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/extract/text", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.handleExtractText(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractFieldsJSON(t *testing.T) {
	svc := &fakeExtractor{fields: map[string]any{"invoiceNumber": "INV-1", "amountDue": nil}}
	rec := &fakeRecorder{}
	h := testHandler(svc, rec)

	w := postJSON(t, h.handleExtractFields, "/v1/extract/fields",
		extractRequest{Identifier: "doc.pdf", Fields: []string{"invoiceNumber", "amountDue"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Fields map[string]any `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]any{"invoiceNumber": "INV-1", "amountDue": nil}, resp.Fields)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, constants.ModeStructured, rec.entries[0].Mode)
	assert.Equal(t, "invoiceNumber,amountDue", rec.entries[0].Fields)
	assert.Equal(t, constants.StatusOK, rec.entries[0].Status)
}

func TestExtractFieldsDefaultsWhenUnspecified(t *testing.T) {
	svc := &fakeExtractor{fields: map[string]any{}}
	h := testHandler(svc, nil)

	w := postJSON(t, h.handleExtractFields, "/v1/extract/fields", extractRequest{Identifier: "doc.jpg"})
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, svc.fieldLists, 1)
	assert.Equal(t, constants.DefaultFields, svc.fieldLists[0])
}

func TestExtractFieldsValidateParam(t *testing.T) {
	t.Run("valid result", func(t *testing.T) {
		svc := &fakeExtractor{fields: map[string]any{"invoiceNumber": "INV-1"}}
		h := testHandler(svc, nil)

		w := postJSON(t, h.handleExtractFields, "/v1/extract/fields?validate=1",
			extractRequest{Identifier: "doc.jpg", Fields: []string{"invoiceNumber"}})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["valid"])
		assert.NotContains(t, resp, "validation_error")
	})

	t.Run("non-string value flagged", func(t *testing.T) {
		svc := &fakeExtractor{fields: map[string]any{"invoiceNumber": 42}}
		h := testHandler(svc, nil)

		w := postJSON(t, h.handleExtractFields, "/v1/extract/fields?validate=1",
			extractRequest{Identifier: "doc.jpg", Fields: []string{"invoiceNumber"}})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["valid"])
		assert.Contains(t, resp, "validation_error")
	})
}

func TestExtractFieldsModelRetry(t *testing.T) {
	svc := &fakeExtractor{
		fields:    map[string]any{"invoiceNumber": "INV-1"},
		err:       common.ModelError("flaky upstream", nil),
		failTimes: 1,
	}
	h := testHandler(svc, nil)
	h.Config.ModelAttempts = 2

	w := postJSON(t, h.handleExtractFields, "/v1/extract/fields",
		extractRequest{Identifier: "doc.jpg", Fields: []string{"invoiceNumber"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, svc.calls)
}

func TestExtractFieldsNoRetryOnResourceError(t *testing.T) {
	svc := &fakeExtractor{err: common.ResourceError("missing", nil)}
	h := testHandler(svc, nil)
	h.Config.ModelAttempts = 3

	w := postJSON(t, h.handleExtractFields, "/v1/extract/fields",
		extractRequest{Identifier: "doc.jpg", Fields: []string{"invoiceNumber"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, svc.calls)
}

func TestExtractFieldsMultipartUpload(t *testing.T) {
	var sawPath string
	svc := &fakeExtractor{fields: map[string]any{"invoiceNumber": "INV-1"}}
	svc.onCall = func(identifier string) {
		sawPath = identifier
		_, err := os.Stat(identifier)
		assert.NoError(t, err, "temp file must exist while the extractor runs")
	}
	h := testHandler(svc, nil)
	h.Config.UploadDir = t.TempDir()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake image payload"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("fields", "invoiceNumber, company"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/extract/fields", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.handleExtractFields(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, sawPath)
	assert.True(t, strings.HasSuffix(sawPath, ".png"), "temp file keeps the detected extension: %s", sawPath)

	// Cleanup removed the temp file after the request finished.
	_, statErr := os.Stat(sawPath)
	assert.True(t, os.IsNotExist(statErr))

	require.Len(t, svc.fieldLists, 1)
	assert.Equal(t, []string{"invoiceNumber", "company"}, svc.fieldLists[0])
}

func TestListExtractions(t *testing.T) {
	rec := &fakeRecorder{recent: []history.Entry{
		{ID: "a", Identifier: "doc.pdf", Mode: constants.ModeText, Status: constants.StatusOK, CreatedAt: time.Now()},
		{ID: "b", Identifier: "doc.png", Mode: constants.ModeStructured, Status: constants.StatusFailed, CreatedAt: time.Now()},
	}}
	h := testHandler(&fakeExtractor{}, rec)

	req := httptest.NewRequest(http.MethodGet, "/v1/extractions?limit=10", nil)
	w := httptest.NewRecorder()
	h.handleListExtractions(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Extractions []map[string]any `json:"extractions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Extractions, 2)
	assert.Equal(t, "doc.pdf", resp.Extractions[0]["identifier"])
	assert.Equal(t, "TEXT", resp.Extractions[0]["mode"])
}

func TestListExtractionsInvalidLimit(t *testing.T) {
	h := testHandler(&fakeExtractor{}, &fakeRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/v1/extractions?limit=zero", nil)
	w := httptest.NewRecorder()
	h.handleListExtractions(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListExtractionsHistoryDisabled(t *testing.T) {
	h := testHandler(&fakeExtractor{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/extractions", nil)
	w := httptest.NewRecorder()
	h.handleListExtractions(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportExtractions(t *testing.T) {
	rec := &fakeRecorder{recent: []history.Entry{
		{ID: "a", Identifier: "doc.pdf", Mode: constants.ModeText, Status: constants.StatusOK, CreatedAt: time.Now()},
	}}
	h := testHandler(&fakeExtractor{}, rec)

	req := httptest.NewRequest(http.MethodGet, "/v1/extractions/export", nil)
	w := httptest.NewRecorder()
	h.handleExportExtractions(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "extractions.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestHealthz(t *testing.T) {
	h := testHandler(&fakeExtractor{}, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
