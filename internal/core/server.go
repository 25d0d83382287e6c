package core

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"assetgate/internal/assets"
)

// Server is the asset gateway HTTP API.
type Server struct {
	Config Config

	assets  *assets.Store
	images  *assets.Store
	metrics *httpMetrics
}

// NewServer validates cfg, fills in defaults and returns a new Server.
func NewServer(cfg Config) (*Server, error) {

	if cfg.Store == nil {
		return nil, errors.New("object store must not be nil")
	}

	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator must not be nil")
	}

	if cfg.Bucket == "" {
		cfg.Bucket = assets.DefaultBucket
	}

	if cfg.ImagesBucket == "" {
		cfg.ImagesBucket = DefaultImagesBucket
	}

	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = assets.DefaultBatchConcurrency
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	metrics, err := newHTTPMetrics(cfg.Registry)
	if err != nil {
		return nil, err
	}

	return &Server{
		Config:  cfg,
		assets:  assets.NewStore(cfg.Store, cfg.Bucket, assets.WithBatchConcurrency(cfg.BatchConcurrency)),
		images:  assets.NewStore(cfg.Store, cfg.ImagesBucket),
		metrics: metrics,
	}, nil
}

// writeJSONResponse encodes v as JSON and writes it to w with the given
// status.
func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode JSON response", "err", err)
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONResponse(w, status, ErrorResponse{Error: message})
}

// writeInternalError writes a generic 500 response.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "We encountered an internal error. Please try again.")
}

// writeStoreError maps a translated store error onto a response. Missing
// assets are an expected outcome and are not logged.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, assets.ErrNotFound) {
		writeError(w, http.StatusNotFound, "The specified asset does not exist.")
		return
	}

	slog.Error("Object store operation failed",
		"request_id", RequestID(r.Context()),
		"kind", assets.KindOf(err),
		"err", err,
	)
	writeInternalError(w)
}
