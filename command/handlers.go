package command

import (
	"context"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-visual-export/export"
)

// ExportDocumentHandler handles document export commands.
type ExportDocumentHandler struct {
	Service export.Service
}

func NewExportDocumentHandler(svc export.Service) *ExportDocumentHandler {
	return &ExportDocumentHandler{Service: svc}
}

func (h *ExportDocumentHandler) Execute(ctx context.Context, msg ExportDocument) error {
	if h == nil || h.Service == nil {
		return serviceRequired()
	}
	result, err := h.Service.ExportDocument(ctx, export.ExportRequest{
		Entry:   msg.Entry,
		Options: msg.Options,
		Saver:   msg.Saver,
	})
	if err != nil {
		return err
	}
	storeResult(ctx, msg.Result, result)
	return nil
}

// ExportDeckHandler handles deck export commands.
type ExportDeckHandler struct {
	Service export.Service
}

func NewExportDeckHandler(svc export.Service) *ExportDeckHandler {
	return &ExportDeckHandler{Service: svc}
}

func (h *ExportDeckHandler) Execute(ctx context.Context, msg ExportDeck) error {
	if h == nil || h.Service == nil {
		return serviceRequired()
	}
	result, err := h.Service.ExportDeck(ctx, export.ExportRequest{
		Entry:   msg.Entry,
		Options: msg.Options,
		Saver:   msg.Saver,
	})
	if err != nil {
		return err
	}
	storeResult(ctx, msg.Result, result)
	return nil
}

func storeResult(ctx context.Context, target *export.ExportResult, result export.ExportResult) {
	if target != nil {
		*target = result
	}
	if res := gcmd.ResultFromContext[export.ExportResult](ctx); res != nil {
		res.Store(result)
	}
}

func serviceRequired() error {
	return errors.New("export service is required", errors.CategoryInternal).
		WithTextCode("SERVICE_REQUIRED")
}
