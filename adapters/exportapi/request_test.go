package exportapi

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-visual-export/export"
)

type stubRequest struct {
	method string
	path   string
	body   io.ReadCloser
	query  map[string]string
	ctx    context.Context
}

func (s stubRequest) Context() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

func (s stubRequest) Method() string {
	if s.method == "" {
		return "POST"
	}
	return s.method
}

func (s stubRequest) Path() string {
	if s.path == "" {
		return "/exports/document"
	}
	return s.path
}

func (s stubRequest) Header(string) string     { return "" }
func (s stubRequest) Query(name string) string { return s.query[name] }
func (s stubRequest) Body() io.ReadCloser      { return s.body }

func jsonBody(payload string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(payload))
}

func TestJSONRequestDecoder_EmptyBodyUsesDefaults(t *testing.T) {
	decoder := JSONRequestDecoder{Base: export.DefaultOptions()}
	req, err := decoder.Decode(stubRequest{body: jsonBody("")})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Entry != EntryFloating {
		t.Fatalf("expected floating entry, got %q", req.Entry)
	}
	if req.Options.PageSize != "A4" || req.Options.Capture.Scale != export.DefaultCaptureScale {
		t.Fatalf("expected default options, got %+v", req.Options)
	}
}

func TestJSONRequestDecoder_Overrides(t *testing.T) {
	decoder := JSONRequestDecoder{Base: export.DefaultOptions()}
	req, err := decoder.Decode(stubRequest{body: jsonBody(`{
		"entry": "navbar",
		"page_size": "Letter",
		"orientation": "landscape",
		"image_format": "jpg",
		"quality": 80,
		"settle_ms": 250,
		"slide_titles": false,
		"filename": "Quarterly",
		"metadata": {"author": "Ops"}
	}`)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	opts := req.Options
	if req.Entry != EntryNavbar {
		t.Fatalf("expected navbar entry, got %q", req.Entry)
	}
	if opts.PageSize != "Letter" || opts.Orientation != export.OrientationLandscape {
		t.Fatalf("unexpected page options: %+v", opts)
	}
	if opts.Capture.Format != export.ImageJPEG || opts.Capture.Quality != 80 {
		t.Fatalf("unexpected capture options: %+v", opts.Capture)
	}
	if opts.Settle != 250*time.Millisecond {
		t.Fatalf("expected settle 250ms, got %v", opts.Settle)
	}
	if opts.TitlesEnabled() {
		t.Fatalf("expected slide titles disabled")
	}
	if opts.Filename != "Quarterly" || opts.Metadata.Author != "Ops" {
		t.Fatalf("unexpected filename/metadata: %q %+v", opts.Filename, opts.Metadata)
	}
	if opts.Metadata.Title == "" {
		t.Fatalf("expected untouched metadata fields to keep defaults")
	}
}

func TestJSONRequestDecoder_PresetFromQuery(t *testing.T) {
	decoder := JSONRequestDecoder{Base: export.DefaultOptions()}
	req, err := decoder.Decode(stubRequest{query: map[string]string{"preset": "v1", "entry": "navbar"}})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Entry != EntryNavbar {
		t.Fatalf("expected navbar entry, got %q", req.Entry)
	}
	if req.Options.SettleBudget() != 0 {
		t.Fatalf("expected v1 preset to disable settle, got %v", req.Options.SettleBudget())
	}
}

func TestJSONRequestDecoder_Rejects(t *testing.T) {
	cases := map[string]stubRequest{
		"unknown field":   {body: jsonBody(`{"format":"pdf"}`)},
		"bad entry":       {body: jsonBody(`{"entry":"keyboard"}`)},
		"bad preset":      {body: jsonBody(`{"preset":"v9"}`)},
		"bad image":       {body: jsonBody(`{"image_format":"gif"}`)},
		"bad settle":      {body: jsonBody(`{"settle_ms":-1}`)},
		"bad orientation": {body: jsonBody(`{"orientation":"diagonal"}`)},
		"malformed":       {body: jsonBody(`{`)},
	}
	decoder := JSONRequestDecoder{Base: export.DefaultOptions()}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decoder.Decode(req)
			if !export.IsKind(err, export.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestJSONRequestDecoder_PresetCarriesOnlyItsFields(t *testing.T) {
	req, err := JSONRequestDecoder{}.Decode(stubRequest{query: map[string]string{"preset": "v3"}})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	opts := req.Options
	if opts.Orientation != export.OrientationLandscape || opts.Capture.Format != export.ImageJPEG {
		t.Fatalf("expected v3 fields, got %+v", opts)
	}
	if opts.PageSize != "" || opts.Filename != "" || opts.Metadata.Author != "" || opts.Background != "" {
		t.Fatalf("expected preset to leave unrelated fields unset, got %+v", opts)
	}
}
