// Package container wires the export pipeline from configuration.
package container

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-notifications/pkg/onready"
	"github.com/goliatone/go-users/pkg/types"
	exportactivity "github.com/goliatone/go-visual-export/adapters/activity"
	chromium "github.com/goliatone/go-visual-export/adapters/chromium"
	"github.com/goliatone/go-visual-export/adapters/notifications/gonotifications"
	exportpdf "github.com/goliatone/go-visual-export/adapters/pdf"
	exportpptx "github.com/goliatone/go-visual-export/adapters/pptx"
	storefs "github.com/goliatone/go-visual-export/adapters/store/fs"
	"github.com/goliatone/go-visual-export/config"
	"github.com/goliatone/go-visual-export/export"
)

// Container holds the wired pipeline and the resources it owns.
type Container struct {
	Config  config.Config
	Options export.Options
	Service export.Service
	Runner  *export.Runner
	Store   *storefs.Store
	Session *chromium.Session
	Engine  exportpdf.Engine
	Logger  export.Logger

	closers []func() error
}

type containerOptions struct {
	logger   export.Logger
	page     export.Page
	overlay  export.Overlay
	engine   exportpdf.Engine
	sink     types.ActivitySink
	notifier onready.OnReadyNotifier
	notify   gonotifications.Config
	saver    export.Saver
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	idGen    func() string
}

// Option customizes container construction.
type Option func(*containerOptions)

// WithLogger sets the logger used by every component.
func WithLogger(logger export.Logger) Option {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithPage replaces the Chromium page, e.g. with export.MemoryPage.
func WithPage(page export.Page) Option {
	return func(opts *containerOptions) {
		opts.page = page
	}
}

// WithOverlay replaces the progress overlay.
func WithOverlay(overlay export.Overlay) Option {
	return func(opts *containerOptions) {
		opts.overlay = overlay
	}
}

// WithPDFEngine replaces the Chromium print-to-PDF engine.
func WithPDFEngine(engine exportpdf.Engine) Option {
	return func(opts *containerOptions) {
		opts.engine = engine
	}
}

// WithActivitySink records lifecycle events as activity records.
func WithActivitySink(sink types.ActivitySink) Option {
	return func(opts *containerOptions) {
		opts.sink = sink
	}
}

// WithNotifier sends a ready notification when an export completes.
func WithNotifier(notifier onready.OnReadyNotifier, cfg gonotifications.Config) Option {
	return func(opts *containerOptions) {
		opts.notifier = notifier
		opts.notify = cfg
	}
}

// WithSaver replaces the filesystem store as the default saver.
func WithSaver(saver export.Saver) Option {
	return func(opts *containerOptions) {
		opts.saver = saver
	}
}

// WithIDGenerator sets the job id generator.
func WithIDGenerator(gen func() string) Option {
	return func(opts *containerOptions) {
		opts.idGen = gen
	}
}

// WithClock sets the clock and the settle sleep function.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(opts *containerOptions) {
		opts.now = now
		opts.sleep = sleep
	}
}

// New builds the pipeline described by cfg. Chromium starts lazily on the
// first export.
func New(cfg config.Config, options ...Option) (*Container, error) {
	opts := containerOptions{}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	logger := opts.logger
	if logger == nil {
		logger = export.NopLogger{}
	}

	exportOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Options: exportOpts,
		Logger:  logger,
		Store:   storefs.NewStore(cfg.Export.OutputDir),
	}

	page := opts.page
	overlay := opts.overlay
	if page == nil {
		c.Session = chromium.NewSession(chromium.Config{
			BrowserPath:       cfg.Browser.Path,
			Headless:          cfg.Browser.Headless,
			Args:              cfg.Browser.Args,
			Timeout:           cfg.Browser.Timeout.Duration,
			URL:               cfg.Browser.URL,
			ViewportWidth:     int64(cfg.Browser.ViewportWidth),
			ViewportHeight:    int64(cfg.Browser.ViewportHeight),
			PlaceholderAssets: true,
			Logger:            logger,
		})
		c.closers = append(c.closers, c.Session.Close)
		page = c.Session
		if overlay == nil {
			overlay = c.Session
		}
	}
	if overlay == nil {
		overlay = export.NewMemoryOverlay()
	}

	engine := opts.engine
	if engine == nil {
		chromiumEngine := &exportpdf.ChromiumEngine{
			BrowserPath: cfg.Browser.Path,
			Headless:    cfg.Browser.Headless,
			Timeout:     cfg.Browser.Timeout.Duration,
			Args:        cfg.Browser.Args,
		}
		c.closers = append(c.closers, chromiumEngine.Close)
		engine = chromiumEngine
	}
	c.Engine = engine

	runner := export.NewRunner()
	runner.Page = page
	runner.Overlay = overlay
	runner.Locator = export.NewLocator(cfg.Regions())
	runner.Options = exportOpts
	runner.Logger = logger
	if opts.saver != nil {
		runner.Saver = opts.saver
	} else {
		runner.Saver = c.Store
	}
	if opts.now != nil {
		runner.Now = opts.now
	}
	if opts.sleep != nil {
		runner.Sleep = opts.sleep
	}
	if opts.idGen != nil {
		runner.IDGenerator = opts.idGen
	}

	emitters := exportactivity.Fanout{exportactivity.LogEmitter{Logger: logger}}
	if opts.sink != nil {
		emitters = append(emitters, exportactivity.NewEmitter(exportactivity.Config{Sink: opts.sink}))
	}
	if opts.notifier == nil && cfg.Notify.Enabled {
		ready, err := gonotifications.NewReadyNotifier(context.Background(), gonotifications.SetupConfig{
			Recipients:    cfg.Notify.Recipients,
			DefaultLocale: cfg.Notify.Locale,
			SMTP: gonotifications.SMTP{
				Host:        cfg.Notify.SMTP.Host,
				Port:        cfg.Notify.SMTP.Port,
				From:        cfg.Notify.SMTP.From,
				Username:    cfg.Notify.SMTP.Username,
				Password:    cfg.Notify.SMTP.Password,
				UseTLS:      cfg.Notify.SMTP.UseTLS,
				UseStartTLS: cfg.Notify.SMTP.UseStartTLS,
			},
		}, logger)
		if err != nil {
			return nil, errors.Join(err, c.Close())
		}
		opts.notifier = ready
		opts.notify = notifyConfig(cfg.Notify)
	}
	if opts.notifier != nil {
		emitters = append(emitters, gonotifications.NewNotifier(opts.notifier, opts.notify))
	}
	runner.Emitter = emitters

	if err := runner.Assemblers.Register(export.FormatDocument, exportpdf.Factory(engine)); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	if err := runner.Assemblers.Register(export.FormatDeck, exportpptx.Factory()); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.Runner = runner
	c.Service = export.NewService(export.ServiceConfig{Runner: runner, Logger: logger})
	return c, nil
}

func notifyConfig(cfg config.NotifyConfig) gonotifications.Config {
	out := gonotifications.Config{
		Recipients: cfg.Recipients,
		Channels:   cfg.Channels,
		Locale:     cfg.Locale,
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		out.URL = func(filename string) string {
			return base + "/" + url.PathEscape(filename)
		}
	}
	return out
}

// Close releases the browser resources in reverse order of creation.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
