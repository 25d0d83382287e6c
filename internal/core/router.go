package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an http.Handler implementing the asset API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /{$}", s.handleIndex)

	// Assets
	mux.HandleFunc("GET /assets", s.handleListAssets)
	mux.HandleFunc("GET /assets/{$}", s.handleListAssets)
	mux.Handle("PUT /assets", s.RequireClaims(http.HandlerFunc(s.handlePutAsset)))
	mux.Handle("PUT /assets/{$}", s.RequireClaims(http.HandlerFunc(s.handlePutAsset)))
	mux.HandleFunc("GET /assets/{name}", s.handleGetAsset)
	mux.HandleFunc("GET /assets/{name}/info", s.handleGetAssetInfo)
	mux.HandleFunc("POST /assets/batch/info", s.handleBatchAssetInfo)

	// Legacy image routes
	mux.HandleFunc("GET /images/{name}", s.handleGetImage)
	mux.HandleFunc("PUT /images", s.handlePutImage)
	mux.HandleFunc("PUT /images/{$}", s.handlePutImage)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.Config.Registry, promhttp.HandlerOpts{}))

	// Add middleware
	handler := s.Recoverer(mux)
	handler = s.LogRequest(handler)
	handler = s.LimitBody(handler)
	return handler
}
