// Package exporthttp serves the export endpoints with net/http.
package exporthttp

import (
	"net/http"

	"github.com/goliatone/go-visual-export/adapters/exportapi"
	"github.com/goliatone/go-visual-export/export"
)

// Config configures the HTTP adapter.
type Config = exportapi.Config

// Handler serves document, deck and status requests.
type Handler struct {
	controller *exportapi.Controller
}

// NewHandler creates a handler around the shared export controller.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: exportapi.NewController(cfg)}
}

// Mount registers the export routes on mux using method patterns. Requests
// with other methods fall through to the mux's 405 handling.
func (h *Handler) Mount(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	base := h.basePath()
	mux.Handle("POST "+base+"/document", h)
	mux.Handle("POST "+base+"/deck", h)
	mux.Handle("GET "+base+"/status", h)
}

// ServeHTTP hands the request to the shared controller.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	ex := exchange{w: w, r: r}
	if h == nil || h.controller == nil {
		exportapi.WriteError(ex, export.NewError(export.KindInternal, "handler is nil", nil))
		return
	}
	h.controller.Serve(ex, ex)
}

func (h *Handler) basePath() string {
	if h == nil || h.controller == nil {
		return exportapi.DefaultBasePath
	}
	return h.controller.BasePath()
}
