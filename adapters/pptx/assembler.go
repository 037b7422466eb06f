package exportpptx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-visual-export/export"
)

// EMUPerInch converts slide inches to OOXML English Metric Units.
const EMUPerInch = 914400

const (
	defaultApplication = "go-visual-export"
	titleInset         = 0.3
	titleTop           = 0.1
)

// Assembler builds a slide deck, one slide per captured region.
type Assembler struct {
	Canvas      export.Canvas
	Layout      string
	Background  string
	TitleColor  string
	TitleSize   float64
	Application string
	Now         func() time.Time

	guard  *export.AssemblyGuard
	mu     sync.Mutex
	meta   export.DocumentMetadata
	slides []slideData
	media  [][]byte
}

// Box is a rectangle in EMU.
type Box struct {
	X      int64
	Y      int64
	Width  int64
	Height int64
}

type slideData struct {
	Number   int
	ID       int
	RelID    string
	Region   string
	Alt      string
	Title    string
	Media    string
	Image    Box
	TitleBox Box
}

// NewAssembler creates a deck assembler for the slide layout in opts.
func NewAssembler(opts export.Options) (*Assembler, error) {
	canvas, err := export.SlideCanvas(opts.SlideLayout)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		Canvas:      canvas,
		Layout:      opts.SlideLayout,
		Background:  opts.Slide.Background,
		TitleColor:  opts.Slide.TitleColor,
		TitleSize:   opts.Slide.TitleSize,
		Application: defaultApplication,
		Now:         time.Now,
		guard:       export.NewAssemblyGuard(export.FormatDeck),
	}, nil
}

// Factory returns an export.AssemblerFactory for slide decks.
func Factory() export.AssemblerFactory {
	return func(format export.Format, opts export.Options) (export.Assembler, error) {
		if format != export.FormatDeck {
			return nil, export.NewError(export.KindAssembly, "pptx assembler only builds slide decks", nil)
		}
		return NewAssembler(opts)
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

// AppendPage is rejected; a slide deck has no pages.
func (a *Assembler) AppendPage(ctx context.Context, img export.CapturedImage, placement export.Placement) error {
	_ = ctx
	_ = img
	_ = placement
	return a.guard.CheckAppend(export.FormatDocument)
}

func (a *Assembler) AppendSlide(ctx context.Context, img export.CapturedImage, placement export.Placement, title string) error {
	_ = ctx
	if err := a.guard.CheckAppend(export.FormatDeck); err != nil {
		return err
	}
	if len(img.Data) == 0 {
		return export.NewError(export.KindAssembly, "slide image is empty", nil)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	number := len(a.slides) + 1
	ext := "png"
	if img.Format == export.ImageJPEG {
		ext = "jpeg"
	}
	slide := slideData{
		Number: number,
		ID:     255 + number,
		RelID:  fmt.Sprintf("rId%d", 5+number),
		Region: img.Region.ID,
		Alt:    img.Region.Title,
		Title:  strings.TrimSpace(title),
		Media:  fmt.Sprintf("image%d.%s", number, ext),
		Image: Box{
			X:      emu(placement.X),
			Y:      emu(placement.Y),
			Width:  emu(placement.Width),
			Height: emu(placement.Height),
		},
	}
	if slide.Title != "" {
		slide.TitleBox = Box{
			X:      emu(titleInset),
			Y:      emu(titleTop),
			Width:  emu(a.Canvas.Width - 2*titleInset),
			Height: emu(export.SlideTitleBand - 2*titleTop),
		}
	}
	a.slides = append(a.slides, slide)
	a.media = append(a.media, img.Data)
	return nil
}

func (a *Assembler) Finalize(ctx context.Context) (export.OutputArtifact, error) {
	if err := a.guard.Spend(); err != nil {
		return export.OutputArtifact{}, err
	}

	a.mu.Lock()
	slides := a.slides
	media := a.media
	meta := a.meta
	a.slides = nil
	a.media = nil
	a.mu.Unlock()

	if len(slides) == 0 {
		return export.OutputArtifact{}, export.NewError(export.KindAssembly, "pptx deck has no slides", nil)
	}
	if err := ctx.Err(); err != nil {
		return export.OutputArtifact{}, err
	}

	data, err := a.writePackage(meta, slides, media)
	if err != nil {
		return export.OutputArtifact{}, err
	}
	return export.OutputArtifact{
		ContentType: export.ContentTypeFor(export.FormatDeck),
		Format:      export.FormatDeck,
		Units:       len(slides),
		Data:        data,
	}, nil
}

func (a *Assembler) writePackage(meta export.DocumentMetadata, slides []slideData, media [][]byte) ([]byte, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	application := a.Application
	if application == "" {
		application = defaultApplication
	}
	shared := pongo2.Context{
		"meta":               meta,
		"slides":             slides,
		"created":            now().UTC().Format(time.RFC3339),
		"application":        application,
		"presentationFormat": presentationFormat(a.Layout),
		"width":              emu(a.Canvas.Width),
		"height":             emu(a.Canvas.Height),
		"background":         colorHex(withFallback(a.Background, export.DefaultSlideBackground)),
		"titleSize":          titleHundredths(a.TitleSize),
		"titleColor":         colorHex(withFallback(a.TitleColor, export.DefaultTitleColor)),
	}

	var buf bytes.Buffer
	pkg := newPackageWriter(&buf)
	pkg.render("[Content_Types].xml", contentTypesTemplate, shared)
	for _, part := range staticParts {
		pkg.write(part.name, []byte(part.body))
	}
	pkg.render("docProps/core.xml", coreTemplate, shared)
	pkg.render("docProps/app.xml", appTemplate, shared)
	pkg.render("ppt/presentation.xml", presentationTemplate, shared)
	pkg.render("ppt/_rels/presentation.xml.rels", presentationRelsTemplate, shared)
	for i, slide := range slides {
		ctx := shared.Update(pongo2.Context{"slide": slide})
		pkg.render(fmt.Sprintf("ppt/slides/slide%d.xml", slide.Number), slideTemplate, ctx)
		pkg.render(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slide.Number), slideRelsTemplate, ctx)
		pkg.store("ppt/media/"+slide.Media, media[i])
	}
	if err := pkg.Close(); err != nil {
		return nil, export.NewError(export.KindAssembly, "write pptx package", err)
	}
	return buf.Bytes(), nil
}

func emu(inches float64) int64 {
	return int64(math.Round(inches * EMUPerInch))
}

// colorHex turns a CSS hex color into the six digit form OOXML expects.
func withFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// titleHundredths converts points to the hundredths of a point OOXML uses.
func titleHundredths(points float64) int {
	if points <= 0 {
		points = export.DefaultTitleSize
	}
	return int(math.Round(points * 100))
}

func colorHex(value string) string {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 || strings.Trim(strings.ToUpper(hex), "0123456789ABCDEF") != "" {
		return "FFFFFF"
	}
	return strings.ToUpper(hex)
}

func presentationFormat(layout string) string {
	switch strings.ToLower(strings.TrimSpace(layout)) {
	case export.SlideLayout16x10:
		return "On-screen Show (16:10)"
	case export.SlideLayout4x3:
		return "On-screen Show (4:3)"
	case export.SlideLayoutWide:
		return "Widescreen"
	default:
		return "On-screen Show (16:9)"
	}
}

// packageWriter writes zip parts and keeps the first error.
type packageWriter struct {
	zw  *zip.Writer
	err error
}

func newPackageWriter(buf *bytes.Buffer) *packageWriter {
	return &packageWriter{zw: zip.NewWriter(buf)}
}

func (p *packageWriter) render(name string, tpl *pongo2.Template, ctx pongo2.Context) {
	if p.err != nil {
		return
	}
	out, err := tpl.ExecuteBytes(ctx)
	if err != nil {
		p.err = fmt.Errorf("render %s: %w", name, err)
		return
	}
	p.write(name, out)
}

func (p *packageWriter) write(name string, data []byte) {
	p.add(&zip.FileHeader{Name: name, Method: zip.Deflate}, data)
}

// store adds already-compressed media without deflating it again.
func (p *packageWriter) store(name string, data []byte) {
	p.add(&zip.FileHeader{Name: name, Method: zip.Store}, data)
}

func (p *packageWriter) add(header *zip.FileHeader, data []byte) {
	if p.err != nil {
		return
	}
	w, err := p.zw.CreateHeader(header)
	if err != nil {
		p.err = err
		return
	}
	if _, err := w.Write(data); err != nil {
		p.err = err
	}
}

func (p *packageWriter) Close() error {
	if p.err != nil {
		_ = p.zw.Close()
		return p.err
	}
	return p.zw.Close()
}
