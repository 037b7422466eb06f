package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Preparer is implemented by pages that must be (re)loaded before a job.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Runner orchestrates export execution. It runs at most one job at a time
// and processes regions strictly one after another.
type Runner struct {
	Page        Page
	Overlay     Overlay
	Locator     *Locator
	Assemblers  *AssemblerRegistry
	Saver       Saver
	Options     Options
	Lock        *JobLock
	Logger      Logger
	Emitter     ChangeEmitter
	Now         func() time.Time
	IDGenerator func() string
	Sleep       func(ctx context.Context, d time.Duration) error

	mu       sync.RWMutex
	current  *ExportJob
	reporter *Reporter
}

// NewRunner creates a runner with default regions and options.
func NewRunner() *Runner {
	return &Runner{
		Locator:     NewLocator(DefaultRegions()),
		Assemblers:  NewAssemblerRegistry(),
		Options:     DefaultOptions(),
		Lock:        &JobLock{},
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
}

type jobRun struct {
	job       *ExportJob
	req       ExportRequest
	opts      Options
	canvas    Canvas
	assembler Assembler
	reporter  *Reporter
}

// Run executes one export job end to end.
func (r *Runner) Run(ctx context.Context, req ExportRequest) (ExportResult, error) {
	if r == nil {
		return ExportResult{}, NewError(KindInternal, "runner is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r.applyDefaults()

	token, err := r.Lock.TryAcquire()
	if err != nil {
		r.Logger.Infof("export request rejected (entry=%s): %v", req.Entry, err)
		return ExportResult{}, err
	}
	defer token.Release()

	req.Format = NormalizeFormat(req.Format)
	if err := ValidateFormat(req.Format); err != nil {
		return ExportResult{}, err
	}
	opts := MergeOptions(r.Options, req.Options)
	if err := opts.Validate(); err != nil {
		return ExportResult{}, err
	}
	if r.Page == nil {
		return ExportResult{}, NewError(KindInternal, "runner requires a page", nil)
	}
	saver := req.Saver
	if saver == nil {
		saver = r.Saver
	}
	if saver == nil {
		return ExportResult{}, NewError(KindInternal, "runner requires a saver", nil)
	}
	req.Saver = saver

	factory, ok := r.Assemblers.Resolve(req.Format)
	if !ok {
		return ExportResult{}, NewError(KindNotImpl, fmt.Sprintf("assembler %q not registered", req.Format), nil)
	}

	job := NewExportJob(r.IDGenerator(), req.Format, req.Entry, r.Now())
	r.mu.Lock()
	r.current = job
	r.reporter = nil
	r.mu.Unlock()

	run := &jobRun{job: job, req: req, opts: opts}
	r.emit(ctx, run, "export.requested", "", nil)

	result, err := r.execute(ctx, run, factory)
	if err != nil {
		_ = job.Advance(StateFailed, 0)
		r.Logger.Errorf("export %s failed: %v", job.ID, err)
		r.emit(ctx, run, "export.failed", "", map[string]any{
			"error":      err.Error(),
			"error_kind": KindFromError(err),
			"captured":   job.CapturedCount(),
			"duration":   r.Now().Sub(job.StartedAt),
		})
		return ExportResult{}, err
	}

	r.emit(ctx, run, "export.completed", "", map[string]any{
		"filename": result.Filename,
		"units":    result.Units,
		"skipped":  len(result.Skipped),
		"bytes":    result.Bytes,
		"duration": r.Now().Sub(job.StartedAt),
	})
	return result, nil
}

// Status returns the snapshot of the active or most recent job.
func (r *Runner) Status() JobStatus {
	if r == nil {
		return JobStatus{State: StateIdle}
	}
	r.mu.RLock()
	job := r.current
	reporter := r.reporter
	r.mu.RUnlock()

	if job == nil {
		return JobStatus{State: StateIdle}
	}
	status := job.Status()
	if reporter != nil {
		state, msg := reporter.State()
		status.OverlayShown = state == OverlayShowing
		status.Message = msg
	}
	return status
}

func (r *Runner) execute(ctx context.Context, run *jobRun, factory AssemblerFactory) (ExportResult, error) {
	job := run.job
	if err := job.Advance(StatePreparing, 0); err != nil {
		return ExportResult{}, err
	}

	if preparer, ok := r.Page.(Preparer); ok {
		if err := preparer.Prepare(ctx); err != nil {
			return ExportResult{}, NewError(KindInternal, "prepare page", err)
		}
	}

	regions, err := r.Locator.Locate(ctx, r.Page)
	if err != nil {
		return ExportResult{}, err
	}
	if err := job.SetRegions(regions); err != nil {
		return ExportResult{}, err
	}

	run.reporter = NewReporter(r.Overlay, r.Logger)
	r.mu.Lock()
	r.reporter = run.reporter
	r.mu.Unlock()
	run.reporter.Start(ctx, job.Format, len(regions))
	defer run.reporter.Finish(ctx)

	r.emit(ctx, run, "export.started", "", map[string]any{"regions": len(regions)})

	canvas, err := r.canvasFor(job.Format, run.opts)
	if err != nil {
		return ExportResult{}, err
	}
	run.canvas = canvas

	assembler, err := factory(job.Format, run.opts)
	if err != nil {
		return ExportResult{}, asAssemblyError("create assembler", err)
	}
	run.assembler = assembler
	if err := assembler.Begin(ctx, run.opts.Metadata); err != nil {
		return ExportResult{}, asAssemblyError("begin artifact", err)
	}

	stabilizer := &Stabilizer{
		Settle:       run.opts.SettleBudget(),
		ReadyTimeout: run.opts.ReadyTimeout,
		Overrides:    run.opts.StyleOverridesFor(),
		Logger:       r.Logger,
		Sleep:        r.Sleep,
	}
	rasterizer := Rasterizer{Options: run.opts.Capture}

	for i, region := range regions {
		if err := job.Advance(StateCapturing, i+1); err != nil {
			return ExportResult{}, err
		}
		run.reporter.Progress(ctx, i+1, len(regions), region.Title)

		err := r.processRegion(ctx, run, stabilizer, rasterizer, region)
		if err == nil {
			job.MarkCaptured()
			r.emit(ctx, run, "export.region.captured", region.ID, map[string]any{"index": i + 1})
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ExportResult{}, ctxErr
		}
		if !IsKind(err, KindCapture) {
			return ExportResult{}, err
		}
		job.MarkSkipped(region)
		r.Logger.Errorf("export %s: skipping region %s: %v", job.ID, region.ID, err)
		r.emit(ctx, run, "export.region.skipped", region.ID, map[string]any{
			"index": i + 1,
			"error": err.Error(),
		})
	}

	if job.CapturedCount() == 0 {
		return ExportResult{}, NewError(KindCapture, fmt.Sprintf("all %d regions failed capture", len(regions)), nil)
	}

	if err := job.Advance(StateAssembling, 0); err != nil {
		return ExportResult{}, err
	}
	run.reporter.Message(ctx, fmt.Sprintf("Assembling %s (%d/%d)", formatLabel(job.Format), job.CapturedCount(), len(regions)))

	artifact, err := assembler.Finalize(ctx)
	if err != nil {
		return ExportResult{}, asAssemblyError("finalize artifact", err)
	}
	filename, err := RenderFilename(job.Format, run.opts)
	if err != nil {
		return ExportResult{}, err
	}
	if artifact.Filename == "" {
		artifact.Filename = filename
	}
	if artifact.ContentType == "" {
		artifact.ContentType = ContentTypeFor(job.Format)
	}
	artifact.Format = job.Format

	if err := run.req.Saver.Save(ctx, artifact); err != nil {
		return ExportResult{}, asAssemblyError("save artifact", err)
	}

	if err := job.Advance(StateDone, 0); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{
		ID:       job.ID,
		Format:   job.Format,
		Filename: artifact.Filename,
		Units:    artifact.Units,
		Skipped:  job.Skipped(),
		Bytes:    int64(len(artifact.Data)),
	}, nil
}

// processRegion holds the region's render override for exactly one turn;
// the override is released before the next region starts.
func (r *Runner) processRegion(ctx context.Context, run *jobRun, stabilizer *Stabilizer, rasterizer Rasterizer, region RegionRef) (err error) {
	override, err := stabilizer.Acquire(ctx, r.Page, region)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := override.Release(ctx); releaseErr != nil {
			r.Logger.Errorf("export %s: restore region %s style: %v", run.job.ID, region.ID, releaseErr)
			if err == nil {
				err = NewError(KindInternal, "restore region style", releaseErr)
			}
		}
	}()

	img, err := rasterizer.Capture(ctx, r.Page, region)
	if err != nil {
		return err
	}

	switch run.job.Format {
	case FormatDeck:
		var placement Placement
		title := ""
		if run.opts.TitlesEnabled() {
			title = region.Title
			placement, err = FillBelow(run.canvas, SlideTitleBand, img)
		} else {
			placement, err = Fill(run.canvas, img)
		}
		if err != nil {
			return NewCaptureError(region.ID, "layout slide", err)
		}
		if err := run.assembler.AppendSlide(ctx, img, placement, title); err != nil {
			return asAssemblyError("append slide", err)
		}
	default:
		placement, err := Fit(run.canvas, img)
		if err != nil {
			return NewCaptureError(region.ID, "layout page", err)
		}
		if err := run.assembler.AppendPage(ctx, img, placement); err != nil {
			return asAssemblyError("append page", err)
		}
	}
	return nil
}

func (r *Runner) canvasFor(format Format, opts Options) (Canvas, error) {
	if format == FormatDeck {
		return SlideCanvas(opts.SlideLayout)
	}
	return PageCanvas(opts.PageSize, opts.Orientation, opts.Margin)
}

func (r *Runner) applyDefaults() {
	if r.Locator == nil {
		r.Locator = NewLocator(DefaultRegions())
	}
	if r.Assemblers == nil {
		r.Assemblers = NewAssemblerRegistry()
	}
	if r.Lock == nil {
		r.Lock = &JobLock{}
	}
	if r.Logger == nil {
		r.Logger = NopLogger{}
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.IDGenerator == nil {
		r.IDGenerator = uuid.NewString
	}
}

func (r *Runner) emit(ctx context.Context, run *jobRun, name, region string, meta map[string]any) {
	if r.Emitter == nil {
		return
	}
	if err := r.Emitter.Emit(ctx, ChangeEvent{
		Name:      name,
		JobID:     run.job.ID,
		Format:    run.job.Format,
		Entry:     run.req.Entry,
		Region:    region,
		Timestamp: r.Now(),
		Metadata:  meta,
	}); err != nil {
		r.Logger.Debugf("emit %s: %v", name, err)
	}
}

func asAssemblyError(msg string, err error) error {
	var exportErr *ExportError
	if errors.As(err, &exportErr) && exportErr.Kind == KindAssembly {
		return err
	}
	return NewError(KindAssembly, msg, err)
}

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
