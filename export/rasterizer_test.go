package export

import (
	"context"
	"errors"
	"testing"
)

func TestCaptureScalesBitmap(t *testing.T) {
	page := sixRegionPage()
	img, err := Rasterizer{Options: CaptureOptions{Scale: 2}}.Capture(context.Background(), page, RegionRef{ID: "overview", Title: "What is UCMS?"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if img.Width != 2560 || img.Height != 1440 {
		t.Fatalf("expected scaled bitmap, got %dx%d", img.Width, img.Height)
	}
	if img.Region.Title != "What is UCMS?" || img.ContentType() != "image/png" {
		t.Fatalf("unexpected image metadata %+v", img.Region)
	}
}

func TestCaptureZeroSizeRegion(t *testing.T) {
	page := sixRegionPage()
	page.SetSize("deployment", 0, 720)
	_, err := Rasterizer{}.Capture(context.Background(), page, RegionRef{ID: "deployment"})
	if !IsKind(err, KindCapture) {
		t.Fatalf("expected capture error, got %v", err)
	}
	for _, call := range page.Calls() {
		if call == "capture:deployment" {
			t.Fatalf("zero-size region should not be rasterized")
		}
	}
}

func TestCaptureWrapsPageFailure(t *testing.T) {
	page := sixRegionPage()
	page.CaptureHook = func(regionID string) error {
		return errors.New("screenshot failed")
	}
	_, err := Rasterizer{}.Capture(context.Background(), page, RegionRef{ID: "overview"})
	var exportErr *ExportError
	if !errors.As(err, &exportErr) || exportErr.Kind != KindCapture || exportErr.Region != "overview" {
		t.Fatalf("expected region capture error, got %v", err)
	}
}

func TestCaptureDetachedRegion(t *testing.T) {
	page := sixRegionPage()
	page.Remove("outcomes")
	if _, err := (Rasterizer{}).Capture(context.Background(), page, RegionRef{ID: "outcomes"}); !IsKind(err, KindCapture) {
		t.Fatalf("expected capture error, got %v", err)
	}
}
