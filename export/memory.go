package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"
	"sync"
)

// MemoryRegion describes a region rendered by MemoryPage.
type MemoryRegion struct {
	ID      string
	Width   float64
	Height  float64
	CSSText string
}

// MemoryPage is an in-memory Page (test/dev only).
type MemoryPage struct {
	// CaptureHook runs before each capture; a non-nil error fails it.
	CaptureHook func(regionID string) error

	mu        sync.Mutex
	regions   map[string]*MemoryRegion
	active    string
	calls     []string
	conflicts []string
}

// NewMemoryPage creates a page with the given regions.
func NewMemoryPage(regions ...MemoryRegion) *MemoryPage {
	page := &MemoryPage{regions: make(map[string]*MemoryRegion, len(regions))}
	for _, region := range regions {
		r := region
		page.regions[r.ID] = &r
	}
	return page
}

// SetSize changes a region's rendered size, e.g. to hide it.
func (p *MemoryPage) SetSize(regionID string, width, height float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.regions[regionID]; ok {
		r.Width = width
		r.Height = height
	}
}

// Remove unmounts a region.
func (p *MemoryPage) Remove(regionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.regions, regionID)
}

// CSSText returns a region's current inline style.
func (p *MemoryPage) CSSText(regionID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.regions[regionID]; ok {
		return r.CSSText
	}
	return ""
}

// Calls returns the recorded page calls as "method:region".
func (p *MemoryPage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Conflicts lists overrides applied while another region still held one.
func (p *MemoryPage) Conflicts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.conflicts...)
}

// ActiveOverride returns the region currently holding style overrides.
func (p *MemoryPage) ActiveOverride() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *MemoryPage) RegionPresent(ctx context.Context, regionID string) (bool, error) {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "present:"+regionID)
	_, ok := p.regions[regionID]
	return ok, nil
}

func (p *MemoryPage) Dimensions(ctx context.Context, regionID string) (Dimensions, error) {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.regions[regionID]
	if !ok {
		return Dimensions{}, NewError(KindCapture, fmt.Sprintf("region %q detached", regionID), nil)
	}
	return Dimensions{Width: r.Width, Height: r.Height}, nil
}

func (p *MemoryPage) SnapshotStyle(ctx context.Context, regionID string) (StyleSnapshot, error) {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.regions[regionID]
	if !ok {
		return StyleSnapshot{}, NewError(KindCapture, fmt.Sprintf("region %q detached", regionID), nil)
	}
	return StyleSnapshot{RegionID: regionID, CSSText: r.CSSText}, nil
}

func (p *MemoryPage) ApplyStyle(ctx context.Context, regionID string, overrides StyleOverrides) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "apply:"+regionID)
	r, ok := p.regions[regionID]
	if !ok {
		return NewError(KindCapture, fmt.Sprintf("region %q detached", regionID), nil)
	}
	if p.active != "" && p.active != regionID {
		p.conflicts = append(p.conflicts, p.active+"->"+regionID)
	}
	p.active = regionID

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(r.CSSText)
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %s;", key, overrides[key])
	}
	r.CSSText = b.String()
	return nil
}

func (p *MemoryPage) RestoreStyle(ctx context.Context, snapshot StyleSnapshot) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "restore:"+snapshot.RegionID)
	if p.active == snapshot.RegionID {
		p.active = ""
	}
	if r, ok := p.regions[snapshot.RegionID]; ok {
		r.CSSText = snapshot.CSSText
	}
	return nil
}

func (p *MemoryPage) ScrollIntoView(ctx context.Context, regionID string) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "scroll:"+regionID)
	if _, ok := p.regions[regionID]; !ok {
		return NewError(KindCapture, fmt.Sprintf("region %q detached", regionID), nil)
	}
	return nil
}

func (p *MemoryPage) Capture(ctx context.Context, regionID string, opts CaptureOptions) (CapturedImage, error) {
	_ = ctx
	p.mu.Lock()
	p.calls = append(p.calls, "capture:"+regionID)
	r, ok := p.regions[regionID]
	hook := p.CaptureHook
	var width, height float64
	if ok {
		width, height = r.Width, r.Height
	}
	p.mu.Unlock()

	if !ok {
		return CapturedImage{}, NewError(KindCapture, fmt.Sprintf("region %q detached", regionID), nil)
	}
	if hook != nil {
		if err := hook(regionID); err != nil {
			return CapturedImage{}, err
		}
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	data, err := placeholderPNG()
	if err != nil {
		return CapturedImage{}, err
	}
	return CapturedImage{
		Width:  int(width * scale),
		Height: int(height * scale),
		Format: ImagePNG,
		Data:   data,
	}, nil
}

func placeholderPNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OverlayTransition is one recorded overlay call.
type OverlayTransition struct {
	Action  string
	Message string
}

// MemoryOverlay records overlay transitions (test/dev only).
type MemoryOverlay struct {
	ShowErr error

	mu          sync.Mutex
	visible     bool
	message     string
	transitions []OverlayTransition
}

// NewMemoryOverlay creates a hidden overlay.
func NewMemoryOverlay() *MemoryOverlay {
	return &MemoryOverlay{}
}

func (o *MemoryOverlay) Show(ctx context.Context, message string) error {
	_ = ctx
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, OverlayTransition{Action: "show", Message: message})
	if o.ShowErr != nil {
		return o.ShowErr
	}
	o.visible = true
	o.message = message
	return nil
}

func (o *MemoryOverlay) Update(ctx context.Context, message string) error {
	_ = ctx
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, OverlayTransition{Action: "update", Message: message})
	o.message = message
	return nil
}

func (o *MemoryOverlay) Hide(ctx context.Context) error {
	_ = ctx
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, OverlayTransition{Action: "hide"})
	o.visible = false
	o.message = ""
	return nil
}

// Visible reports whether the overlay is showing.
func (o *MemoryOverlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Transitions returns the recorded overlay calls.
func (o *MemoryOverlay) Transitions() []OverlayTransition {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]OverlayTransition(nil), o.transitions...)
}

// AssemblyCall is one recorded append.
type AssemblyCall struct {
	Mode      Format
	RegionID  string
	Title     string
	Placement Placement
}

// MemoryAssembler records appended units (test/dev only).
type MemoryAssembler struct {
	FinalizeErr error
	Filename    string

	guard  *AssemblyGuard
	mu     sync.Mutex
	format Format
	meta   DocumentMetadata
	calls  []AssemblyCall
}

// NewMemoryAssembler creates an assembler for a format.
func NewMemoryAssembler(format Format) *MemoryAssembler {
	return &MemoryAssembler{format: format, guard: NewAssemblyGuard(format)}
}

func (a *MemoryAssembler) Begin(ctx context.Context, meta DocumentMetadata) error {
	_ = ctx
	if err := a.guard.Begin(); err != nil {
		return err
	}
	a.mu.Lock()
	a.meta = meta
	a.mu.Unlock()
	return nil
}

func (a *MemoryAssembler) AppendPage(ctx context.Context, img CapturedImage, placement Placement) error {
	_ = ctx
	if err := a.guard.CheckAppend(FormatDocument); err != nil {
		return err
	}
	a.mu.Lock()
	a.calls = append(a.calls, AssemblyCall{Mode: FormatDocument, RegionID: img.Region.ID, Placement: placement})
	a.mu.Unlock()
	return nil
}

func (a *MemoryAssembler) AppendSlide(ctx context.Context, img CapturedImage, placement Placement, title string) error {
	_ = ctx
	if err := a.guard.CheckAppend(FormatDeck); err != nil {
		return err
	}
	a.mu.Lock()
	a.calls = append(a.calls, AssemblyCall{Mode: FormatDeck, RegionID: img.Region.ID, Title: title, Placement: placement})
	a.mu.Unlock()
	return nil
}

func (a *MemoryAssembler) Finalize(ctx context.Context) (OutputArtifact, error) {
	_ = ctx
	if err := a.guard.Spend(); err != nil {
		return OutputArtifact{}, err
	}
	if a.FinalizeErr != nil {
		return OutputArtifact{}, NewError(KindAssembly, "serialize artifact", a.FinalizeErr)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var payload bytes.Buffer
	for _, call := range a.calls {
		fmt.Fprintf(&payload, "%s:%s\n", call.Mode, call.RegionID)
	}
	return OutputArtifact{
		Filename:    a.Filename,
		ContentType: ContentTypeFor(a.format),
		Format:      a.format,
		Units:       len(a.calls),
		Data:        payload.Bytes(),
	}, nil
}

// Calls returns the recorded appends in call order.
func (a *MemoryAssembler) Calls() []AssemblyCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]AssemblyCall(nil), a.calls...)
}

// Metadata returns the metadata passed to Begin.
func (a *MemoryAssembler) Metadata() DocumentMetadata {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meta
}

// MemorySaver keeps saved artifacts in memory (test/dev only).
type MemorySaver struct {
	Err error

	mu        sync.Mutex
	artifacts []OutputArtifact
}

// NewMemorySaver creates an empty saver.
func NewMemorySaver() *MemorySaver {
	return &MemorySaver{}
}

func (s *MemorySaver) Save(ctx context.Context, artifact OutputArtifact) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.artifacts = append(s.artifacts, artifact)
	return nil
}

// Artifacts returns the saved artifacts in save order.
func (s *MemorySaver) Artifacts() []OutputArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OutputArtifact(nil), s.artifacts...)
}
