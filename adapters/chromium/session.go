package exportchromium

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/goliatone/go-visual-export/export"
)

const (
	DefaultViewportWidth  = 1440
	DefaultViewportHeight = 900
)

// Config configures the headless browser session.
type Config struct {
	BrowserPath       string
	Headless          bool
	Args              []string
	Timeout           time.Duration
	URL               string
	ViewportWidth     int64
	ViewportHeight    int64
	PlaceholderAssets bool
	Logger            export.Logger
}

// Session is one Chromium tab showing the page being exported.
type Session struct {
	cfg Config

	initOnce      sync.Once
	initErr       error
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu        sync.Mutex
	loadedURL string
}

var (
	_ export.Page          = (*Session)(nil)
	_ export.Overlay       = (*Session)(nil)
	_ export.ReadySignaler = (*Session)(nil)
	_ export.Preparer      = (*Session)(nil)
)

// NewSession creates a session. The browser starts lazily on first use.
func NewSession(cfg Config) *Session {
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = DefaultViewportWidth
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = DefaultViewportHeight
	}
	if cfg.Logger == nil {
		cfg.Logger = export.NopLogger{}
	}
	return &Session{cfg: cfg}
}

// SetURL points the session at a new page; it is loaded on the next Prepare.
func (s *Session) SetURL(url string) {
	s.mu.Lock()
	s.cfg.URL = url
	s.loadedURL = ""
	s.mu.Unlock()
}

// Prepare loads the configured page once and keeps it live across jobs.
func (s *Session) Prepare(ctx context.Context) error {
	s.mu.Lock()
	url := strings.TrimSpace(s.cfg.URL)
	loaded := s.loadedURL
	s.mu.Unlock()

	if url == "" {
		if loaded == "" {
			return errors.New("chromium session has no page url")
		}
		return nil
	}
	if loaded == url {
		return nil
	}

	err := s.run(ctx,
		chromedp.EmulateViewport(s.cfg.ViewportWidth, s.cfg.ViewportHeight),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	s.mu.Lock()
	s.loadedURL = url
	s.mu.Unlock()
	s.cfg.Logger.Debugf("chromium session loaded %s", url)
	return nil
}

func (s *Session) RegionPresent(ctx context.Context, regionID string) (bool, error) {
	var present bool
	if err := s.run(ctx, chromedp.Evaluate(presentScript(regionID), &present)); err != nil {
		return false, err
	}
	return present, nil
}

type regionRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Session) rect(ctx context.Context, regionID string) (regionRect, error) {
	var rect *regionRect
	if err := s.run(ctx, chromedp.Evaluate(rectScript(regionID), &rect)); err != nil {
		return regionRect{}, err
	}
	if rect == nil {
		return regionRect{}, export.NewCaptureError(regionID, "region detached", nil)
	}
	return *rect, nil
}

func (s *Session) Dimensions(ctx context.Context, regionID string) (export.Dimensions, error) {
	rect, err := s.rect(ctx, regionID)
	if err != nil {
		return export.Dimensions{}, err
	}
	return export.Dimensions{Width: rect.Width, Height: rect.Height}, nil
}

func (s *Session) SnapshotStyle(ctx context.Context, regionID string) (export.StyleSnapshot, error) {
	var cssText *string
	if err := s.run(ctx, chromedp.Evaluate(snapshotScript(regionID), &cssText)); err != nil {
		return export.StyleSnapshot{}, err
	}
	if cssText == nil {
		return export.StyleSnapshot{}, export.NewCaptureError(regionID, "region detached", nil)
	}
	return export.StyleSnapshot{RegionID: regionID, CSSText: *cssText}, nil
}

func (s *Session) ApplyStyle(ctx context.Context, regionID string, overrides export.StyleOverrides) error {
	script, err := applyScript(regionID, overrides)
	if err != nil {
		return err
	}
	return s.evalBool(ctx, script, regionID)
}

func (s *Session) RestoreStyle(ctx context.Context, snapshot export.StyleSnapshot) error {
	var ok bool
	// A region unmounted since the snapshot has nothing left to restore.
	return s.run(ctx, chromedp.Evaluate(restoreScript(snapshot), &ok))
}

func (s *Session) ScrollIntoView(ctx context.Context, regionID string) error {
	return s.evalBool(ctx, scrollScript(regionID), regionID, awaitPromise)
}

// WaitReady blocks until the region's finite animations settle or ctx ends.
func (s *Session) WaitReady(ctx context.Context, regionID string) error {
	return s.evalBool(ctx, readyScript(regionID), regionID, awaitPromise)
}

func (s *Session) Capture(ctx context.Context, regionID string, opts export.CaptureOptions) (export.CapturedImage, error) {
	if s.cfg.PlaceholderAssets {
		var replaced int
		if err := s.run(ctx, chromedp.Evaluate(placeholderScript(regionID), &replaced)); err != nil {
			return export.CapturedImage{}, err
		}
		if replaced > 0 {
			s.cfg.Logger.Debugf("region %s: replaced %d unreadable assets with placeholders", regionID, replaced)
		}
	}

	rect, err := s.rect(ctx, regionID)
	if err != nil {
		return export.CapturedImage{}, err
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = export.DefaultCaptureScale
	}

	params := page.CaptureScreenshot().
		WithClip(&page.Viewport{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height, Scale: scale}).
		WithCaptureBeyondViewport(true).
		WithFromSurface(true)
	format := export.ImagePNG
	if opts.Format == export.ImageJPEG {
		format = export.ImageJPEG
		quality := opts.Quality
		if quality <= 0 {
			quality = export.DefaultQuality
		}
		params = params.WithFormat(page.CaptureScreenshotFormatJpeg).WithQuality(int64(quality))
	} else {
		params = params.WithFormat(page.CaptureScreenshotFormatPng)
	}

	var data []byte
	var hidden bool
	err = s.run(ctx,
		chromedp.Evaluate(overlayVisibilityScript(false), &hidden),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			data, err = params.Do(ctx)
			return err
		}),
	)
	var shown bool
	if restoreErr := s.run(context.WithoutCancel(ctx), chromedp.Evaluate(overlayVisibilityScript(true), &shown)); restoreErr != nil {
		s.cfg.Logger.Errorf("restore overlay after capture of %s: %v", regionID, restoreErr)
	}
	if err != nil {
		return export.CapturedImage{}, err
	}

	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return export.CapturedImage{}, export.NewCaptureError(regionID, "decode screenshot", err)
	}
	return export.CapturedImage{
		Width:  config.Width,
		Height: config.Height,
		Format: format,
		Data:   data,
	}, nil
}

func (s *Session) Show(ctx context.Context, message string) error {
	var ok bool
	return s.run(ctx, chromedp.Evaluate(overlayShowScript(message), &ok))
}

func (s *Session) Update(ctx context.Context, message string) error {
	var ok bool
	return s.run(ctx, chromedp.Evaluate(overlayUpdateScript(message), &ok))
}

func (s *Session) Hide(ctx context.Context) error {
	var ok bool
	return s.run(ctx, chromedp.Evaluate(overlayHideScript(), &ok))
}

// Close releases Chromium resources if they have been initialized.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func (s *Session) evalBool(ctx context.Context, script, regionID string, opts ...chromedp.EvaluateOption) error {
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(script, &ok, opts...)); err != nil {
		return err
	}
	if !ok {
		return export.NewCaptureError(regionID, "region detached", nil)
	}
	return nil
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s == nil {
		return export.NewError(export.KindInternal, "chromium session is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureBrowser(); err != nil {
		return export.NewError(export.KindInternal, "chromium session init failed", err)
	}

	execCtx, cancel := bindContext(s.browserCtx, ctx, s.cfg.Timeout)
	defer cancel()

	if err := chromedp.Run(execCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// bindContext derives a run context from the browser context that also ends
// when the caller's context does, and carries the caller's deadline.
func bindContext(browser, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(browser)
	stop := context.AfterFunc(caller, cancel)
	cancels := []context.CancelFunc{cancel}
	if deadline, ok := caller.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		ctx, cancelDeadline = context.WithDeadline(ctx, deadline)
		cancels = append(cancels, cancelDeadline)
	}
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		cancels = append(cancels, cancelTimeout)
	}
	return ctx, func() {
		stop()
		for i := len(cancels) - 1; i >= 0; i-- {
			cancels[i]()
		}
	}
}

func (s *Session) ensureBrowser() error {
	s.initOnce.Do(func() {
		options := ExecAllocatorOptions(s.cfg.BrowserPath, s.cfg.Headless, s.cfg.Args)
		options = append(options, chromedp.WindowSize(int(s.cfg.ViewportWidth), int(s.cfg.ViewportHeight)))

		s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), options...)
		s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx)
		// Start the browser and its first tab now so later runs reuse them.
		if err := chromedp.Run(s.browserCtx); err != nil {
			s.initErr = err
		}
	})
	if s.initErr != nil {
		return s.initErr
	}
	if s.allocCtx == nil || s.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

// ExecAllocatorOptions returns the chromedp defaults plus the binary path,
// headless mode and extra command line switches ("--no-sandbox",
// "window-size=800,600").
func ExecAllocatorOptions(browserPath string, headless bool, args []string) []chromedp.ExecAllocatorOption {
	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if browserPath != "" {
		options = append(options, chromedp.ExecPath(browserPath))
	}
	options = append(options, chromedp.Flag("headless", headless))
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			options = append(options, chromedp.Flag(name, value))
			continue
		}
		options = append(options, chromedp.Flag(arg, true))
	}
	return options
}
