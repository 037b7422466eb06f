package exportpdf

import (
	"context"
	"encoding/base64"
	"strconv"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-visual-export/export"
)

// Assembler builds a paged PDF document, one page per captured region.
type Assembler struct {
	Engine       Engine
	Canvas       export.Canvas
	MaxHTMLBytes int64

	guard *export.AssemblyGuard
	mu    sync.Mutex
	meta  export.DocumentMetadata
	pages []pageData
}

type pageData struct {
	Region string
	Source string
	Alt    string
	X      string
	Y      string
	Width  string
	Height string
}

// NewAssembler creates a document assembler for the page geometry in opts.
func NewAssembler(engine Engine, opts export.Options) (*Assembler, error) {
	if engine == nil {
		return nil, export.NewError(export.KindAssembly, "pdf assembler requires engine", nil)
	}
	canvas, err := export.PageCanvas(opts.PageSize, opts.Orientation, opts.Margin)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		Engine: engine,
		Canvas: canvas,
		guard:  export.NewAssemblyGuard(export.FormatDocument),
	}, nil
}

// Factory returns an export.AssemblerFactory bound to engine.
func Factory(engine Engine) export.AssemblerFactory {
	return func(format export.Format, opts export.Options) (export.Assembler, error) {
		if format != export.FormatDocument {
			return nil, export.NewError(export.KindAssembly, "pdf assembler only builds paged documents", nil)
		}
		return NewAssembler(engine, opts)
	}
}

func (a *Assembler) Begin(ctx context.Context, meta export.DocumentMetadata) error {
	_ = ctx
	if err := a.guard.Begin(); err != nil {
		return err
	}
	a.mu.Lock()
	a.meta = meta
	a.mu.Unlock()
	return nil
}

func (a *Assembler) AppendPage(ctx context.Context, img export.CapturedImage, placement export.Placement) error {
	_ = ctx
	if err := a.guard.CheckAppend(export.FormatDocument); err != nil {
		return err
	}
	if len(img.Data) == 0 {
		return export.NewError(export.KindAssembly, "page image is empty", nil)
	}
	page := pageData{
		Region: img.Region.ID,
		Source: "data:" + img.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
		Alt:    img.Region.Title,
		X:      formatMillimeters(placement.X),
		Y:      formatMillimeters(placement.Y),
		Width:  formatMillimeters(placement.Width),
		Height: formatMillimeters(placement.Height),
	}
	a.mu.Lock()
	a.pages = append(a.pages, page)
	a.mu.Unlock()
	return nil
}

// AppendSlide is rejected; a paged document has no slides.
func (a *Assembler) AppendSlide(ctx context.Context, img export.CapturedImage, placement export.Placement, title string) error {
	_ = ctx
	_ = img
	_ = placement
	_ = title
	return a.guard.CheckAppend(export.FormatDeck)
}

func (a *Assembler) Finalize(ctx context.Context) (export.OutputArtifact, error) {
	if err := a.guard.Spend(); err != nil {
		return export.OutputArtifact{}, err
	}

	a.mu.Lock()
	pages := a.pages
	meta := a.meta
	a.pages = nil
	a.mu.Unlock()

	if len(pages) == 0 {
		return export.OutputArtifact{}, export.NewError(export.KindAssembly, "pdf document has no pages", nil)
	}

	html, err := a.renderHTML(meta, pages)
	if err != nil {
		return export.OutputArtifact{}, err
	}

	pdf, err := a.Engine.Render(ctx, RenderRequest{
		HTML: html,
		Options: PrintOptions{
			PaperWidth:   a.Canvas.Width,
			PaperHeight:  a.Canvas.Height,
			Title:        meta.Title,
			BlockNetwork: true,
		},
	})
	if err != nil {
		return export.OutputArtifact{}, export.NewError(export.KindAssembly, "render pdf", err)
	}
	if len(pdf) == 0 {
		return export.OutputArtifact{}, export.NewError(export.KindAssembly, "pdf engine returned no output", nil)
	}

	return export.OutputArtifact{
		ContentType: export.ContentTypeFor(export.FormatDocument),
		Format:      export.FormatDocument,
		Units:       len(pages),
		Data:        pdf,
	}, nil
}

func (a *Assembler) renderHTML(meta export.DocumentMetadata, pages []pageData) ([]byte, error) {
	buffer := newLimitedBuffer(a.MaxHTMLBytes)
	err := documentTemplate.ExecuteWriter(pongo2.Context{
		"meta":   meta,
		"width":  formatMillimeters(a.Canvas.Width),
		"height": formatMillimeters(a.Canvas.Height),
		"pages":  pages,
	}, buffer)
	if err != nil {
		if export.IsKind(err, export.KindAssembly) {
			return nil, err
		}
		return nil, export.NewError(export.KindAssembly, "render pdf html", err)
	}
	return buffer.Bytes(), nil
}

func formatMillimeters(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
