package query

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-visual-export/export"
)

// ExportStatusHandler returns the current job status.
type ExportStatusHandler struct {
	Service export.Service
}

func NewExportStatusHandler(svc export.Service) *ExportStatusHandler {
	return &ExportStatusHandler{Service: svc}
}

func (h *ExportStatusHandler) Query(ctx context.Context, msg ExportStatus) (export.JobStatus, error) {
	_ = msg
	if h == nil || h.Service == nil {
		return export.JobStatus{}, errors.New("export service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	return h.Service.Status(ctx)
}
