package exportapi

import (
	"time"

	"github.com/goliatone/go-visual-export/export"
)

// Response provides a minimal response interface for transport adapters.
type Response interface {
	SetHeader(name, value string)
	DelHeader(name string)
	WriteHeader(status int)
	Write(data []byte) (int, error)
	WriteJSON(status int, payload any) error
}

// StatusResponse describes the current job snapshot.
type StatusResponse struct {
	ID            string          `json:"id,omitempty"`
	Format        export.Format   `json:"format,omitempty"`
	State         export.JobState `json:"state"`
	Current       int             `json:"current"`
	Total         int             `json:"total"`
	CapturedCount int             `json:"captured_count"`
	Message       string          `json:"message,omitempty"`
	OverlayShown  bool            `json:"overlay_shown"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
}

// ErrorResponse describes JSON error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func statusResponse(status export.JobStatus) StatusResponse {
	out := StatusResponse{
		ID:            status.ID,
		Format:        status.Format,
		State:         status.State,
		Current:       status.Current,
		Total:         status.Total,
		CapturedCount: status.CapturedCount,
		Message:       status.Message,
		OverlayShown:  status.OverlayShown,
	}
	if !status.StartedAt.IsZero() {
		started := status.StartedAt
		out.StartedAt = &started
	}
	return out
}
