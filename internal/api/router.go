package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/databridge/sql-gcs-etl/internal/core/export"
)

// Exporter runs one export job. Implemented by export.Pipeline.
type Exporter interface {
	Run(ctx context.Context, cfg export.Config) (*export.Result, error)
}

type handler struct {
	log      *slog.Logger
	exporter Exporter
}

func NewRouter(log *slog.Logger, exporter Exporter) http.Handler {
	h := handler{
		log:      log,
		exporter: exporter,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/v1/exports", h.createExport).Methods(http.MethodPost)

	return r
}
