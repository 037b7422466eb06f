// Package server hosts the export API on go-router's fiber adapter.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/goliatone/go-router"
	exportrouter "github.com/goliatone/go-visual-export/adapters/router"
	"github.com/goliatone/go-visual-export/export"
)

const shutdownTimeout = 10 * time.Second

// Config configures the export API routes.
type Config struct {
	Service  export.Service
	BasePath string
	Archive  export.Saver
	Logger   export.Logger
}

// New builds a fiber-backed go-router server. views may be nil.
func New(appName string, views fiber.Views) router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               appName,
			DisableStartupMessage: true,
			PassLocalsToViews:     views != nil,
			Views:                 views,
		})
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		}))
		app.Use(cors.New(cors.Config{
			AllowOrigins:  "*",
			AllowMethods:  "GET,POST,OPTIONS",
			AllowHeaders:  "Content-Type",
			ExposeHeaders: "Content-Disposition,X-Export-Id,X-Export-Units",
		}))
		return app
	})
}

// RegisterRoutes mounts the export endpoints and a health check.
func RegisterRoutes(r router.Router[*fiber.App], cfg Config) {
	handler := exportrouter.NewHandler(exportrouter.Config{
		Service:  cfg.Service,
		BasePath: cfg.BasePath,
		Archive:  cfg.Archive,
		Logger:   cfg.Logger,
	})
	handler.RegisterRoutes(r)

	r.Get("/healthz", func(c router.Context) error {
		status, err := cfg.Service.Status(c.Context())
		if err != nil {
			return c.JSON(fiber.StatusServiceUnavailable, map[string]any{"ok": false})
		}
		return c.JSON(fiber.StatusOK, map[string]any{
			"ok":    true,
			"state": status.State,
		})
	})
}

// Run serves until ctx is done, then shuts the server down.
func Run(ctx context.Context, srv router.Server[*fiber.App], addr string, log export.Logger) error {
	if log == nil {
		log = export.NopLogger{}
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on http://%s", addr)
		errCh <- srv.Serve(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
