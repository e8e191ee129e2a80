package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/databridge/sql-gcs-etl/internal/core/export"
)

func (h handler) createExport(w http.ResponseWriter, r *http.Request) {
	var cfg export.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "invalid export config: "+err.Error())
		return
	}

	result, err := h.exporter.Run(r.Context(), cfg)
	if err != nil {
		h.log.Error("export failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to write response", slog.Any("error", err))
	}
}

func (h handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
