// Package exportrouter mounts the export endpoints on a go-router router.
package exportrouter

import (
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-visual-export/adapters/exportapi"
	"github.com/goliatone/go-visual-export/export"
)

// Config configures the go-router adapter.
type Config = exportapi.Config

// Handler exposes export routes for go-router.
type Handler struct {
	controller *exportapi.Controller
}

var _ export.RouterRegistrar = (*Handler)(nil)

// NewHandler creates a go-router handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: exportapi.NewController(cfg)}
}

// RegisterRoutes registers routes on a compatible go-router router.
func (h *Handler) RegisterRoutes(router any) {
	r, ok := router.(routeRegistrar)
	if !ok {
		return
	}
	base := h.basePath()

	r.Post(base+"/document", h.Handle)
	r.Post(base+"/deck", h.Handle)
	r.Get(base+"/status", h.Handle)
}

// Handle executes the shared export workflow.
func (h *Handler) Handle(c router.Context) error {
	if c == nil {
		return nil
	}
	if h == nil || h.controller == nil {
		exportapi.WriteError(exchange{c: c}, export.NewError(export.KindInternal, "handler is nil", nil))
		return nil
	}
	ex := exchange{c: c}
	h.controller.Serve(ex, ex)
	return nil
}

func (h *Handler) basePath() string {
	if h == nil || h.controller == nil {
		return exportapi.DefaultBasePath
	}
	return h.controller.BasePath()
}

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}
