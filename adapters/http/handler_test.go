package exporthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-visual-export/adapters/exportapi"
	"github.com/goliatone/go-visual-export/export"
)

func newTestHandler(t *testing.T, page *export.MemoryPage) *Handler {
	t.Helper()
	return NewHandler(Config{Service: newTestService(t, page)})
}

func newTestService(t *testing.T, page *export.MemoryPage) export.Service {
	t.Helper()
	runner := export.NewRunner()
	runner.Page = page
	runner.Overlay = export.NewMemoryOverlay()
	runner.Sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	runner.IDGenerator = func() string { return "http-job" }
	factory := func(format export.Format, opts export.Options) (export.Assembler, error) {
		return export.NewMemoryAssembler(format), nil
	}
	for _, format := range []export.Format{export.FormatDocument, export.FormatDeck} {
		if err := runner.Assemblers.Register(format, factory); err != nil {
			t.Fatalf("register %s: %v", format, err)
		}
	}
	return export.NewService(export.ServiceConfig{Runner: runner})
}

func defaultPage() *export.MemoryPage {
	regions := make([]export.MemoryRegion, 0, 6)
	for _, ref := range export.DefaultRegions() {
		regions = append(regions, export.MemoryRegion{ID: ref.ID, Width: 1280, Height: 720})
	}
	return export.NewMemoryPage(regions...)
}

func TestHandler_DocumentDownload(t *testing.T) {
	handler := newTestHandler(t, defaultPage())
	mux := http.NewServeMux()
	handler.Mount(mux)

	req := httptest.NewRequest(http.MethodPost, "/exports/document", strings.NewReader(`{"entry":"navbar"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="UCMS-Presentation.pdf"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if got := rec.Header().Get("X-Export-Id"); got != "http-job" {
		t.Fatalf("unexpected export id %q", got)
	}
	if strings.Count(rec.Body.String(), "pdf:") != 6 {
		t.Fatalf("expected 6 pages, got %q", rec.Body.String())
	}
}

func TestHandler_DeckWithoutBody(t *testing.T) {
	handler := newTestHandler(t, defaultPage())

	req := httptest.NewRequest(http.MethodPost, "/exports/deck", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != export.ContentTypeFor(export.FormatDeck) {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestHandler_NoContentError(t *testing.T) {
	handler := newTestHandler(t, export.NewMemoryPage())

	req := httptest.NewRequest(http.MethodPost, "/exports/document", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var payload exportapi.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error.Code != export.CodeNoExportableContent {
		t.Fatalf("unexpected code %q", payload.Error.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Fatalf("expected download headers to be cleared")
	}
}

func TestHandler_Status(t *testing.T) {
	handler := newTestHandler(t, defaultPage())

	req := httptest.NewRequest(http.MethodGet, "/exports/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status exportapi.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != export.StateIdle {
		t.Fatalf("expected idle, got %s", status.State)
	}
}

func TestHandler_NilHandler(t *testing.T) {
	var handler *Handler
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/status", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandler_MountRejectsWrongMethod(t *testing.T) {
	handler := newTestHandler(t, defaultPage())
	mux := http.NewServeMux()
	handler.Mount(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/document", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exports/spreadsheet", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_CustomBasePath(t *testing.T) {
	handler := NewHandler(Config{Service: newTestService(t, defaultPage()), BasePath: "/api/visual/"})
	mux := http.NewServeMux()
	handler.Mount(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/visual/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
