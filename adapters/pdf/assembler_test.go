package exportpdf

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-visual-export/export"
)

var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xff, 0xff, 0x3f,
	0x00, 0x05, 0xfe, 0x02, 0xfe, 0xa7, 0x35, 0x81, 0x84, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type capturingEngine struct {
	req RenderRequest
	out []byte
	err error
}

func (e *capturingEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	_ = ctx
	e.req = req
	if e.err != nil {
		return nil, e.err
	}
	return e.out, nil
}

func regionImage(id, title string) export.CapturedImage {
	return export.CapturedImage{
		Region: export.RegionRef{ID: id, Title: title},
		Width:  2560,
		Height: 1440,
		Format: export.ImagePNG,
		Data:   onePixelPNG,
	}
}

func TestAssemblerRendersOnePagePerImage(t *testing.T) {
	engine := &capturingEngine{out: []byte("%PDF-1.7")}
	asm, err := NewAssembler(engine, export.DefaultOptions())
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}
	ctx := context.Background()
	if err := asm.Begin(ctx, export.DefaultOptions().Metadata); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, ref := range export.DefaultRegions() {
		img := regionImage(ref.ID, ref.Title)
		placement, err := export.Fit(asm.Canvas, img)
		if err != nil {
			t.Fatalf("fit: %v", err)
		}
		if err := asm.AppendPage(ctx, img, placement); err != nil {
			t.Fatalf("append %s: %v", ref.ID, err)
		}
	}

	artifact, err := asm.Finalize(ctx)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if artifact.Units != 6 || artifact.ContentType != "application/pdf" || !bytes.HasPrefix(artifact.Data, []byte("%PDF")) {
		t.Fatalf("unexpected artifact %+v", artifact)
	}

	html := string(engine.req.HTML)
	if got := strings.Count(html, `<section class="page"`); got != 6 {
		t.Fatalf("expected 6 pages, got %d", got)
	}
	if !strings.Contains(html, "size: 210.000mm 297.000mm") {
		t.Fatalf("expected A4 page size in html")
	}
	if !strings.Contains(html, "<title>UCMS - Comprehensive Utility Management Platform</title>") {
		t.Fatalf("expected document title in html")
	}
	if !strings.Contains(html, "data:image/png;base64,") {
		t.Fatalf("expected inline image data")
	}
	overview := strings.Index(html, `data-region="overview"`)
	outcomes := strings.Index(html, `data-region="outcomes"`)
	if overview < 0 || outcomes < overview {
		t.Fatalf("expected pages in append order")
	}
	opts := engine.req.Options
	if opts.Title != "UCMS - Comprehensive Utility Management Platform" || !opts.BlockNetwork {
		t.Fatalf("unexpected print options %+v", opts)
	}
	if opts.PaperWidth != 210 || opts.PaperHeight != 297 {
		t.Fatalf("expected A4 portrait paper, got %vx%v", opts.PaperWidth, opts.PaperHeight)
	}
}

func TestAssemblerLandscapeCanvas(t *testing.T) {
	opts := export.DefaultOptions()
	opts.Orientation = export.OrientationLandscape
	engine := &capturingEngine{out: []byte("%PDF")}
	asm, err := NewAssembler(engine, opts)
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}
	if asm.Canvas.Width != 297 || asm.Canvas.Height != 210 {
		t.Fatalf("expected landscape canvas, got %+v", asm.Canvas)
	}
	ctx := context.Background()
	_ = asm.Begin(ctx, export.DocumentMetadata{})
	img := regionImage("pipeline", "How it works")
	placement, _ := export.Fit(asm.Canvas, img)
	_ = asm.AppendPage(ctx, img, placement)
	if _, err := asm.Finalize(ctx); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if engine.req.Options.PaperWidth != 297 || engine.req.Options.PaperHeight != 210 {
		t.Fatalf("expected rotated paper, got %+v", engine.req.Options)
	}
}

func TestAssemblerRejectsSlides(t *testing.T) {
	asm, _ := NewAssembler(&capturingEngine{}, export.DefaultOptions())
	_ = asm.Begin(context.Background(), export.DocumentMetadata{})
	err := asm.AppendSlide(context.Background(), regionImage("overview", ""), export.Placement{}, "title")
	if !export.IsKind(err, export.KindAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
}

func TestAssemblerEngineFailure(t *testing.T) {
	engine := &capturingEngine{err: errors.New("chromium crashed")}
	asm, _ := NewAssembler(engine, export.DefaultOptions())
	ctx := context.Background()
	_ = asm.Begin(ctx, export.DocumentMetadata{})
	_ = asm.AppendPage(ctx, regionImage("overview", "Overview"), export.Placement{X: 10, Y: 10, Width: 190, Height: 100})

	if _, err := asm.Finalize(ctx); !export.IsKind(err, export.KindAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
	if _, err := asm.Finalize(ctx); !export.IsKind(err, export.KindAssembly) {
		t.Fatalf("expected finalized assembler to reject calls, got %v", err)
	}
}

func TestAssemblerEmptyDocument(t *testing.T) {
	asm, _ := NewAssembler(&capturingEngine{out: []byte("%PDF")}, export.DefaultOptions())
	_ = asm.Begin(context.Background(), export.DocumentMetadata{})
	if _, err := asm.Finalize(context.Background()); !export.IsKind(err, export.KindAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
}

func TestAssemblerHTMLLimit(t *testing.T) {
	asm, _ := NewAssembler(&capturingEngine{out: []byte("%PDF")}, export.DefaultOptions())
	asm.MaxHTMLBytes = 128
	ctx := context.Background()
	_ = asm.Begin(ctx, export.DocumentMetadata{})
	_ = asm.AppendPage(ctx, regionImage("overview", "Overview"), export.Placement{Width: 1, Height: 1})
	if _, err := asm.Finalize(ctx); !export.IsKind(err, export.KindAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
}

func TestFactoryRejectsDeck(t *testing.T) {
	factory := Factory(&capturingEngine{})
	if _, err := factory(export.FormatDeck, export.DefaultOptions()); !export.IsKind(err, export.KindAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
	if _, err := factory(export.FormatDocument, export.DefaultOptions()); err != nil {
		t.Fatalf("factory: %v", err)
	}
}

func TestWKHTMLTOPDFArgs(t *testing.T) {
	args, err := wkhtmltopdfArgs(PrintOptions{PaperWidth: 297, PaperHeight: 210, Title: "Deck"})
	if err != nil {
		t.Fatalf("args: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"--page-width 297.000mm", "--page-height 210.000mm", "--margin-top 0", "--title Deck"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	if _, err := wkhtmltopdfArgs(PrintOptions{}); !export.IsKind(err, export.KindAssembly) {
		t.Fatalf("expected missing paper error, got %v", err)
	}
}

func TestAssemblerChromiumSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping chromium smoke test in short mode")
	}
	chromePath := chromeBinaryPath(t)
	engine := &ChromiumEngine{
		BrowserPath: chromePath,
		Headless:    true,
		Timeout:     15 * time.Second,
		Args:        []string{"--no-sandbox", "--disable-dev-shm-usage"},
	}
	t.Cleanup(func() {
		_ = engine.Close()
	})

	asm, err := NewAssembler(engine, export.DefaultOptions())
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}
	ctx := context.Background()
	_ = asm.Begin(ctx, export.DefaultOptions().Metadata)
	img := regionImage("overview", "What is UCMS?")
	placement, _ := export.Fit(asm.Canvas, img)
	if err := asm.AppendPage(ctx, img, placement); err != nil {
		t.Fatalf("append: %v", err)
	}
	artifact, err := asm.Finalize(ctx)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !bytes.HasPrefix(artifact.Data, []byte("%PDF")) {
		t.Fatalf("expected pdf output")
	}
}
