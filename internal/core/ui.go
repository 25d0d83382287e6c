package core

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"assetgate/internal/assets"
	"assetgate/internal/ui"
)

// handleIndex renders an HTML listing of the assets bucket.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names, err := s.assets.ListAll(ctx)
	if err != nil {
		slog.Error("List assets for index", "request_id", RequestID(ctx), "err", err)
		http.Error(w, "failed to list assets", http.StatusInternalServerError)
		return
	}

	items := make([]ui.Asset, 0, len(names))
	for _, name := range names {
		items = append(items, ui.Asset{Name: name, Class: assets.AssetClass(name).String()})
	}

	renderPage(w, r, ui.AssetsPage(items))
}

// renderPage renders c in full before anything is sent, so a failed render
// yields a clean 500 instead of a truncated page.
func renderPage(w http.ResponseWriter, r *http.Request, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		slog.Error("Render page", "request_id", RequestID(r.Context()), "err", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
