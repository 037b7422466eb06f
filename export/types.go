package export

import (
	"context"
	"time"
)

// Format is the export output format.
type Format string

const (
	FormatDocument Format = "pdf"
	FormatDeck     Format = "pptx"
)

// ImageFormat is the bitmap encoding used for captured regions.
type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

// Orientation selects the page orientation of paged documents.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// JobState captures export job progress states.
type JobState string

const (
	StateIdle       JobState = "idle"
	StatePreparing  JobState = "preparing"
	StateCapturing  JobState = "capturing"
	StateAssembling JobState = "assembling"
	StateDone       JobState = "done"
	StateFailed     JobState = "failed"
)

// RegionRef identifies an exportable region and its display title.
type RegionRef struct {
	ID    string
	Title string
}

// Dimensions are rendered pixel dimensions.
type Dimensions struct {
	Width  float64
	Height float64
}

// CapturedImage is the bitmap captured for one region.
type CapturedImage struct {
	Region RegionRef
	Width  int
	Height int
	Format ImageFormat
	Data   []byte
}

// ContentType returns the MIME type of the encoded bitmap.
func (img CapturedImage) ContentType() string {
	if img.Format == ImageJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Canvas is a fixed-size output page or slide in output units.
type Canvas struct {
	Width  float64
	Height float64
	Margin float64
	Unit   string
}

// Placement is the rectangle a captured image occupies on a canvas.
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DocumentMetadata is set once when an artifact is started.
type DocumentMetadata struct {
	Author  string
	Company string
	Title   string
	Subject string
}

// OutputArtifact is a finished document plus its suggested filename.
type OutputArtifact struct {
	Filename    string
	ContentType string
	Format      Format
	Units       int
	Data        []byte
}

// CaptureOptions configures rasterization.
type CaptureOptions struct {
	Scale   float64
	Format  ImageFormat
	Quality int
}

// StyleOverrides are the layout-affecting styles forced on a region before capture.
type StyleOverrides map[string]string

// StyleSnapshot is an opaque copy of a region's inline style state.
type StyleSnapshot struct {
	RegionID string
	CSSText  string
}

// Page is the rendered document the pipeline operates on.
type Page interface {
	RegionPresent(ctx context.Context, regionID string) (bool, error)
	Dimensions(ctx context.Context, regionID string) (Dimensions, error)
	SnapshotStyle(ctx context.Context, regionID string) (StyleSnapshot, error)
	ApplyStyle(ctx context.Context, regionID string, overrides StyleOverrides) error
	RestoreStyle(ctx context.Context, snapshot StyleSnapshot) error
	ScrollIntoView(ctx context.Context, regionID string) error
	Capture(ctx context.Context, regionID string, opts CaptureOptions) (CapturedImage, error)
}

// ReadySignaler is implemented by pages that can report a settled region.
type ReadySignaler interface {
	WaitReady(ctx context.Context, regionID string) error
}

// Overlay is the transient, user-visible status surface.
type Overlay interface {
	Show(ctx context.Context, message string) error
	Update(ctx context.Context, message string) error
	Hide(ctx context.Context) error
}

// Assembler accumulates pages or slides into one artifact.
type Assembler interface {
	Begin(ctx context.Context, meta DocumentMetadata) error
	AppendPage(ctx context.Context, img CapturedImage, placement Placement) error
	AppendSlide(ctx context.Context, img CapturedImage, placement Placement, title string) error
	Finalize(ctx context.Context) (OutputArtifact, error)
}

// AssemblerFactory creates a fresh assembler per job.
type AssemblerFactory func(format Format, opts Options) (Assembler, error)

// Saver hands a finished artifact to its destination.
type Saver interface {
	Save(ctx context.Context, artifact OutputArtifact) error
}

// SaverFunc adapts a function to a Saver.
type SaverFunc func(ctx context.Context, artifact OutputArtifact) error

func (f SaverFunc) Save(ctx context.Context, artifact OutputArtifact) error {
	if f == nil {
		return NewError(KindInternal, "saver func is nil", nil)
	}
	return f(ctx, artifact)
}

// Entry points that may trigger an export.
const (
	EntryFloating = "floating"
	EntryNavbar   = "navbar"
)

// ExportRequest captures an export request.
type ExportRequest struct {
	Format  Format
	Entry   string
	Options Options
	Saver   Saver
}

// ExportResult captures a completed export.
type ExportResult struct {
	ID       string
	Format   Format
	Filename string
	Units    int
	Skipped  []RegionRef
	Bytes    int64
}

// JobStatus is a snapshot of the active or last job.
type JobStatus struct {
	ID            string
	Format        Format
	State         JobState
	Current       int
	Total         int
	CapturedCount int
	Message       string
	OverlayShown  bool
	StartedAt     time.Time
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// ChangeEvent describes lifecycle events.
type ChangeEvent struct {
	Name      string
	JobID     string
	Format    Format
	Entry     string
	Region    string
	Timestamp time.Time
	Metadata  map[string]any
}

// ChangeEmitter emits lifecycle events.
type ChangeEmitter interface {
	Emit(ctx context.Context, evt ChangeEvent) error
}

// ChangeEmitterFunc adapts a function to a ChangeEmitter.
type ChangeEmitterFunc func(ctx context.Context, evt ChangeEvent) error

func (f ChangeEmitterFunc) Emit(ctx context.Context, evt ChangeEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// RouterRegistrar provides optional route registration.
type RouterRegistrar interface {
	RegisterRoutes(router any)
}
