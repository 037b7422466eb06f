package exportpdf

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/goliatone/go-visual-export/export"
)

// DefaultMaxHTMLBytes guards in-memory HTML buffering before PDF conversion.
const DefaultMaxHTMLBytes int64 = 64 * 1024 * 1024

// PrintOptions describes the paper the laid out pages are printed on.
// Widths are millimetres of the oriented page.
type PrintOptions struct {
	PaperWidth   float64
	PaperHeight  float64
	Title        string
	BlockNetwork bool
}

// RenderRequest contains HTML input and print options for PDF engines.
type RenderRequest struct {
	HTML    []byte
	Options PrintOptions
}

// Engine renders HTML content into PDF bytes.
type Engine interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// EngineFunc adapts a function to an Engine.
type EngineFunc func(ctx context.Context, req RenderRequest) ([]byte, error)

func (f EngineFunc) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if f == nil {
		return nil, errors.New("pdf engine func is nil")
	}
	return f(ctx, req)
}

// WKHTMLTOPDFEngine prints through the wkhtmltopdf binary for hosts without
// Chromium.
type WKHTMLTOPDFEngine struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// Render executes wkhtmltopdf using stdin/stdout for HTML/PDF.
func (e WKHTMLTOPDFEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	cmdPath := strings.TrimSpace(e.Command)
	if cmdPath == "" {
		cmdPath = "wkhtmltopdf"
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmdCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args, err := wkhtmltopdfArgs(req.Options)
	if err != nil {
		return nil, err
	}
	args = append(args, e.Args...)
	args = append(args, "-", "-")
	cmd := exec.CommandContext(cmdCtx, cmdPath, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.Stdin = bytes.NewReader(req.HTML)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "wkhtmltopdf failed"
		}
		return nil, export.NewError(export.KindAssembly, message, err)
	}
	return stdout.Bytes(), nil
}

func wkhtmltopdfArgs(opts PrintOptions) ([]string, error) {
	if opts.PaperWidth <= 0 || opts.PaperHeight <= 0 {
		return nil, export.NewError(export.KindAssembly, "pdf paper size is required", nil)
	}
	args := []string{
		"--quiet",
		"--page-width", formatMillimeters(opts.PaperWidth) + "mm",
		"--page-height", formatMillimeters(opts.PaperHeight) + "mm",
		"--margin-top", "0",
		"--margin-bottom", "0",
		"--margin-left", "0",
		"--margin-right", "0",
		"--disable-smart-shrinking",
	}
	if opts.Title != "" {
		args = append(args, "--title", opts.Title)
	}
	return args, nil
}

type limitedBuffer struct {
	buf     bytes.Buffer
	maxSize int64
}

func newLimitedBuffer(maxSize int64) *limitedBuffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxHTMLBytes
	}
	return &limitedBuffer{maxSize: maxSize}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.maxSize > 0 && int64(b.buf.Len()+len(p)) > b.maxSize {
		return 0, export.NewError(export.KindAssembly, "pdf document max html bytes exceeded", nil)
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
