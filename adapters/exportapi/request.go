package exportapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-visual-export/export"
)

// Entry points accepted by the JSON decoder.
const (
	EntryFloating = export.EntryFloating
	EntryNavbar   = export.EntryNavbar
)

// Request provides minimal request access for transport adapters.
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Header(name string) string
	Query(name string) string
	Body() io.ReadCloser
}

// RequestDecoder parses a request into an export request.
type RequestDecoder interface {
	Decode(req Request) (export.ExportRequest, error)
}

// JSONRequestDecoder decodes an optional JSON body into export requests.
type JSONRequestDecoder struct {
	Base export.Options
}

// Decode decodes the request body and query into an export request. An empty
// body selects the defaults.
func (d JSONRequestDecoder) Decode(req Request) (export.ExportRequest, error) {
	if req == nil {
		return export.ExportRequest{}, export.NewError(export.KindInternal, "request is nil", nil)
	}

	var payload requestPayload
	if body := req.Body(); body != nil {
		defer body.Close()
		decoded, err := decodePayload(body)
		if err != nil {
			return export.ExportRequest{}, err
		}
		payload = decoded
	}
	if payload.Entry == "" {
		payload.Entry = req.Query("entry")
	}
	if payload.Preset == "" {
		payload.Preset = req.Query("preset")
	}

	entry, err := normalizeEntry(payload.Entry)
	if err != nil {
		return export.ExportRequest{}, err
	}
	opts, err := payload.options(d.Base)
	if err != nil {
		return export.ExportRequest{}, err
	}
	return export.ExportRequest{Entry: entry, Options: opts}, nil
}

func normalizeEntry(entry string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(entry)) {
	case "", EntryFloating:
		return EntryFloating, nil
	case EntryNavbar:
		return EntryNavbar, nil
	default:
		return "", export.NewError(export.KindValidation, "unknown entry point: "+entry, nil)
	}
}

type requestPayload struct {
	Entry       string          `json:"entry,omitempty"`
	Preset      string          `json:"preset,omitempty"`
	PageSize    string          `json:"page_size,omitempty"`
	Orientation string          `json:"orientation,omitempty"`
	Margin      float64         `json:"margin,omitempty"`
	SlideLayout string          `json:"slide_layout,omitempty"`
	Scale       float64         `json:"scale,omitempty"`
	ImageFormat string          `json:"image_format,omitempty"`
	Quality     int             `json:"quality,omitempty"`
	SettleMS    int             `json:"settle_ms,omitempty"`
	Background  string          `json:"background,omitempty"`
	SlideTitles *bool           `json:"slide_titles,omitempty"`
	Filename    string          `json:"filename,omitempty"`
	Metadata    metadataPayload `json:"metadata,omitempty"`
}

type metadataPayload struct {
	Author  string `json:"author,omitempty"`
	Company string `json:"company,omitempty"`
	Title   string `json:"title,omitempty"`
	Subject string `json:"subject,omitempty"`
}

func (p requestPayload) options(base export.Options) (export.Options, error) {
	opts := base
	if p.Preset != "" {
		preset, err := export.PresetOverrides(p.Preset)
		if err != nil {
			return export.Options{}, err
		}
		opts = export.MergeOptions(opts, preset)
	}

	override := export.Options{
		PageSize:    p.PageSize,
		Margin:      p.Margin,
		SlideLayout: p.SlideLayout,
		Capture: export.CaptureOptions{
			Scale:   p.Scale,
			Quality: p.Quality,
		},
		Background:  p.Background,
		SlideTitles: p.SlideTitles,
		Filename:    p.Filename,
		Metadata: export.DocumentMetadata{
			Author:  p.Metadata.Author,
			Company: p.Metadata.Company,
			Title:   p.Metadata.Title,
			Subject: p.Metadata.Subject,
		},
	}
	if p.Orientation != "" {
		orientation, err := export.ParseOrientation(p.Orientation)
		if err != nil {
			return export.Options{}, err
		}
		override.Orientation = orientation
	}
	if p.ImageFormat != "" {
		format, err := export.ParseImageFormat(p.ImageFormat)
		if err != nil {
			return export.Options{}, err
		}
		override.Capture.Format = format
	}
	if p.SettleMS < 0 {
		return export.Options{}, export.NewError(export.KindValidation, "settle_ms must not be negative", nil)
	}
	override.Settle = msDuration(p.SettleMS)
	return export.MergeOptions(opts, override), nil
}

func decodePayload(body io.Reader) (requestPayload, error) {
	var payload requestPayload
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return requestPayload{}, nil
		}
		return requestPayload{}, export.NewError(export.KindValidation, "invalid request payload", err)
	}
	return payload, nil
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
