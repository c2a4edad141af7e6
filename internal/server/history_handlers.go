package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

func (h *Handler) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	entries, err := h.History.Recent(r.Context(), limit)
	if err != nil {
		h.Logger.Error("server.history.list_error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type row struct {
		ID         string `json:"id"`
		Identifier string `json:"identifier"`
		Mode       string `json:"mode"`
		MediaType  string `json:"mediaType,omitempty"`
		Fields     string `json:"fields,omitempty"`
		Result     string `json:"result,omitempty"`
		Status     string `json:"status"`
		Error      string `json:"error,omitempty"`
		CreatedAt  string `json:"createdAt"`
	}
	out := make([]row, 0, len(entries))
	for _, e := range entries {
		out = append(out, row{
			ID:         e.ID,
			Identifier: e.Identifier,
			Mode:       string(e.Mode),
			MediaType:  e.MediaType,
			Fields:     e.Fields,
			Result:     e.Result,
			Status:     string(e.Status),
			Error:      e.ErrorMsg,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"extractions": out})
}

func (h *Handler) handleExportExtractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	entries, err := h.History.Recent(r.Context(), 1000)
	if err != nil {
		h.Logger.Error("server.history.export_error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := h.Export.ExportHistoryXLSX(entries)
	if err != nil {
		h.Logger.Error("server.history.export_error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="extractions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
