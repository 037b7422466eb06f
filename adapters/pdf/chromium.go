package exportpdf

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	exportchromium "github.com/goliatone/go-visual-export/adapters/chromium"
	"github.com/goliatone/go-visual-export/export"
)

const millimetersPerInch = 25.4

// ChromiumEngine prints the assembled page HTML through a headless Chromium
// instance. Each render gets its own tab; the browser is shared.
type ChromiumEngine struct {
	BrowserPath string
	Headless    bool
	Timeout     time.Duration
	Args        []string

	initOnce      sync.Once
	initErr       error
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// Render loads req.HTML into a blank tab and prints it.
func (e *ChromiumEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if e == nil {
		return nil, export.NewError(export.KindInternal, "chromium engine is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	params, err := printParams(req.Options)
	if err != nil {
		return nil, err
	}
	if err := e.ensureBrowser(); err != nil {
		return nil, export.NewError(export.KindInternal, "chromium engine init failed", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(e.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	execCtx := tabCtx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(tabCtx, e.Timeout)
		defer cancel()
	}

	var actions []chromedp.Action
	if req.Options.BlockNetwork {
		actions = append(actions,
			network.Enable(),
			network.SetBlockedURLs().WithURLPatterns([]*network.BlockPattern{
				{URLPattern: "http://*:*/*", Block: true},
				{URLPattern: "https://*:*/*", Block: true},
			}),
		)
	}
	var pdf []byte
	actions = append(actions,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(req.HTML)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = params.Do(ctx)
			return err
		}),
	)

	if err := chromedp.Run(execCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, export.NewError(export.KindAssembly, "chromium pdf render failed", err)
	}
	return pdf, nil
}

// Close releases Chromium resources if they have been initialized.
func (e *ChromiumEngine) Close() error {
	if e == nil {
		return nil
	}
	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

func (e *ChromiumEngine) ensureBrowser() error {
	e.initOnce.Do(func() {
		options := exportchromium.ExecAllocatorOptions(e.BrowserPath, e.Headless, e.Args)
		e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), options...)
		e.browserCtx, e.browserCancel = chromedp.NewContext(e.allocCtx)
		if err := chromedp.Run(e.browserCtx); err != nil {
			e.initErr = err
		}
	})
	if e.initErr != nil {
		return e.initErr
	}
	if e.allocCtx == nil || e.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

// printParams prints edge to edge on the requested paper; page margins are
// already part of the laid out HTML.
func printParams(opts PrintOptions) (*page.PrintToPDFParams, error) {
	if opts.PaperWidth <= 0 || opts.PaperHeight <= 0 {
		return nil, export.NewError(export.KindAssembly, "pdf paper size is required", nil)
	}
	return page.PrintToPDF().
		WithPaperWidth(opts.PaperWidth / millimetersPerInch).
		WithPaperHeight(opts.PaperHeight / millimetersPerInch).
		WithMarginTop(0).
		WithMarginBottom(0).
		WithMarginLeft(0).
		WithMarginRight(0).
		WithPrintBackground(true).
		WithPreferCSSPageSize(true).
		WithScale(1), nil
}
