package exportapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	errorslib "github.com/goliatone/go-errors"
	"github.com/goliatone/go-visual-export/export"
)

// DefaultBasePath is the mount point used when Config.BasePath is empty.
const DefaultBasePath = "/exports"

// Config configures the shared export API controller.
type Config struct {
	Service        export.Service
	BasePath       string
	Logger         export.Logger
	RequestDecoder RequestDecoder
	// Archive optionally keeps a copy of every artifact streamed to a client.
	Archive export.Saver
}

// Controller exposes export API handlers for multiple transports.
type Controller struct {
	service        export.Service
	basePath       string
	logger         export.Logger
	requestDecoder RequestDecoder
	archive        export.Saver
}

// NewController creates a shared export API controller.
func NewController(cfg Config) *Controller {
	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath == "" {
		basePath = DefaultBasePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	decoder := cfg.RequestDecoder
	if decoder == nil {
		decoder = JSONRequestDecoder{}
	}
	return &Controller{
		service:        cfg.Service,
		basePath:       basePath,
		logger:         logger,
		requestDecoder: decoder,
		archive:        cfg.Archive,
	}
}

// BasePath returns the configured mount point.
func (c *Controller) BasePath() string {
	if c == nil {
		return ""
	}
	return c.basePath
}

// Serve routes export endpoints using the shared controller.
func (c *Controller) Serve(req Request, res Response) {
	if res == nil {
		return
	}
	if c == nil || c.service == nil {
		WriteError(res, export.NewError(export.KindInternal, "handler is nil", nil))
		return
	}
	if req == nil {
		WriteError(res, export.NewError(export.KindInternal, "request is nil", nil))
		return
	}
	if !strings.HasPrefix(req.Path(), c.basePath) {
		writeNotFound(res)
		return
	}

	action := strings.Trim(strings.TrimPrefix(req.Path(), c.basePath), "/")
	switch action {
	case "document", "deck":
		if req.Method() != http.MethodPost {
			res.SetHeader("Allow", http.MethodPost)
			res.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		format := export.FormatDocument
		if action == "deck" {
			format = export.FormatDeck
		}
		c.handleExport(req, res, format)
	case "status":
		if req.Method() != http.MethodGet {
			res.SetHeader("Allow", http.MethodGet)
			res.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		c.handleStatus(req, res)
	default:
		writeNotFound(res)
	}
}

func (c *Controller) handleExport(req Request, res Response, format export.Format) {
	exportReq, err := c.requestDecoder.Decode(req)
	if err != nil {
		WriteError(res, err)
		return
	}

	writer := &trackingWriter{res: res}
	exportReq.Saver = c.responseSaver(writer)

	var result export.ExportResult
	switch format {
	case export.FormatDeck:
		result, err = c.service.ExportDeck(req.Context(), exportReq)
	default:
		result, err = c.service.ExportDocument(req.Context(), exportReq)
	}
	if err != nil {
		if writer.Written() {
			c.logger.Errorf("export response already started: %v", err)
			return
		}
		clearDownloadHeaders(res)
		WriteError(res, err)
		return
	}
	c.logger.Debugf("export %s streamed %d bytes to client (%d skipped)", result.ID, result.Bytes, len(result.Skipped))
}

func (c *Controller) handleStatus(req Request, res Response) {
	status, err := c.service.Status(req.Context())
	if err != nil {
		WriteError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, statusResponse(status))
}

// responseSaver streams the finished artifact to the client, archiving a copy
// first when an archive is configured.
func (c *Controller) responseSaver(writer *trackingWriter) export.Saver {
	return export.SaverFunc(func(ctx context.Context, artifact export.OutputArtifact) error {
		if c.archive != nil {
			if err := c.archive.Save(ctx, artifact); err != nil {
				return err
			}
		}
		exportID := ""
		if status, err := c.service.Status(ctx); err == nil {
			exportID = status.ID
		}
		setDownloadHeaders(writer.res, exportID, sanitizeFilename(artifact.Filename, artifact.Format), artifact.ContentType)
		writer.res.SetHeader("Content-Length", strconv.Itoa(len(artifact.Data)))
		writer.res.SetHeader("X-Export-Units", strconv.Itoa(artifact.Units))
		writer.res.WriteHeader(http.StatusOK)
		_, err := writer.Write(artifact.Data)
		return err
	})
}

func writeNotFound(res Response) {
	res.SetHeader("Content-Type", "text/plain; charset=utf-8")
	res.SetHeader("X-Content-Type-Options", "nosniff")
	res.WriteHeader(http.StatusNotFound)
	_, _ = res.Write([]byte("404 page not found\n"))
}

// WriteError writes err as a JSON error response.
func WriteError(res Response, err error) {
	if err == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	ge := export.AsGoError(err)
	status := statusForError(ge)
	payload := ErrorResponse{
		Error: ErrorBody{
			Message: ge.Message,
			Code:    ge.TextCode,
		},
	}
	writeJSON(res, status, payload)
}

func writeJSON(res Response, status int, payload any) {
	_ = res.WriteJSON(status, payload)
}

func statusForError(err *errorslib.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	switch err.TextCode {
	case "not_implemented":
		return http.StatusNotImplemented
	case export.CodeExportAlreadyInProgress:
		return http.StatusConflict
	case export.CodeNoExportableContent:
		return http.StatusUnprocessableEntity
	}
	switch err.Category {
	case errorslib.CategoryValidation:
		return http.StatusBadRequest
	case errorslib.CategoryNotFound:
		return http.StatusNotFound
	case errorslib.CategoryOperation:
		if err.TextCode == "canceled" {
			return http.StatusConflict
		}
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func sanitizeFilename(filename string, format export.Format) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		if format != "" {
			name = fmt.Sprintf("export.%s", format)
		} else {
			name = "export"
		}
	}
	return name
}

func setDownloadHeaders(res Response, exportID, filename, contentType string) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res.SetHeader("Content-Type", contentType)
	res.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if exportID != "" {
		res.SetHeader("X-Export-Id", exportID)
	}
}

func clearDownloadHeaders(res Response) {
	res.DelHeader("Content-Disposition")
	res.DelHeader("Content-Type")
	res.DelHeader("Content-Length")
	res.DelHeader("X-Export-Id")
	res.DelHeader("X-Export-Units")
}

type trackingWriter struct {
	res     Response
	written atomic.Bool
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	w.written.Store(true)
	return w.res.Write(p)
}

func (w *trackingWriter) Written() bool {
	return w.written.Load()
}
