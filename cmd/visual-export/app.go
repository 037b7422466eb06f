package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/urfave/cli/v3"

	exportcmd "github.com/goliatone/go-visual-export/command"
	"github.com/goliatone/go-visual-export/config"
	"github.com/goliatone/go-visual-export/container"
	"github.com/goliatone/go-visual-export/export"
	"github.com/goliatone/go-visual-export/logging"
	"github.com/goliatone/go-visual-export/server"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "visual-export",
		Usage: "Export page regions rendered in headless Chromium to PDF or PPTX",
		Commands: []*cli.Command{
			{
				Name:   "pdf",
				Usage:  "Export every region as one page of a PDF document",
				Flags:  append(commonFlags(), exportFlags()...),
				Action: exportAction(export.FormatDocument),
			},
			{
				Name:   "pptx",
				Usage:  "Export every region as one slide of a PPTX deck",
				Flags:  append(commonFlags(), exportFlags()...),
				Action: exportAction(export.FormatDeck),
			},
			{
				Name:  "serve",
				Usage: "Serve the export HTTP API",
				Flags: append(commonFlags(),
					&cli.StringFlag{Name: "url", Usage: "page URL the browser exports"},
					&cli.StringFlag{Name: "host", Usage: "listen host"},
					&cli.StringFlag{Name: "port", Usage: "listen port"},
					&cli.BoolFlag{Name: "archive", Usage: "keep a copy of every artifact in the output directory"},
				),
				Action: serveAction,
			},
			{
				Name:  "snapshot",
				Usage: "Export the page in several formats, one after another",
				Flags: append(commonFlags(),
					&cli.StringFlag{Name: "url", Usage: "page URL the browser exports"},
					&cli.StringFlag{Name: "out", Usage: "output directory"},
					&cli.StringFlag{Name: "file", Usage: "JSON file listing the artifacts to export"},
					&cli.DurationFlag{Name: "interval", Usage: "wait between consecutive exports"},
				),
				Action: snapshotAction,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "env", Usage: "environment file path", Value: ".env"},
		&cli.StringFlag{Name: "config", Usage: "TOML configuration file"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-format", Usage: "text or json"},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "url", Usage: "page URL the browser exports"},
		&cli.StringFlag{Name: "out", Usage: "output directory"},
		&cli.StringFlag{Name: "preset", Usage: "named configuration (" + strings.Join(export.PresetNames(), ", ") + ")"},
		&cli.StringFlag{Name: "filename", Usage: "artifact title used for the file name"},
		&cli.StringSliceFlag{Name: "region", Usage: "region to export as id or id=Title, repeatable"},
	}
}

// appContext is the state shared by every command action.
type appContext struct {
	Config    config.Config
	Logger    logging.SlogLogger
	Container *container.Container
}

func newAppContext(cmd *cli.Command, stderr io.Writer) (*appContext, error) {
	cfg, err := config.Load(cmd.String("env"), cmd.String("config"))
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, &cfg)

	logger := logging.NewSlogLogger(logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: stderr,
	}))

	if strings.TrimSpace(cfg.Browser.URL) == "" {
		return nil, errors.New("page url is required (--url or VISUAL_EXPORT_URL)", errors.CategoryValidation).
			WithTextCode("URL_REQUIRED")
	}

	c, err := container.New(cfg, container.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &appContext{Config: cfg, Logger: logger, Container: c}, nil
}

func (a *appContext) Close() {
	if a == nil || a.Container == nil {
		return
	}
	if err := a.Container.Close(); err != nil {
		a.Logger.Errorf("close browser: %v", err)
	}
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	set := func(name string, target *string) {
		if value := strings.TrimSpace(cmd.String(name)); value != "" {
			*target = value
		}
	}
	set("log-level", &cfg.Log.Level)
	set("log-format", &cfg.Log.Format)
	set("url", &cfg.Browser.URL)
	set("out", &cfg.Export.OutputDir)
	set("preset", &cfg.Export.Preset)
	set("filename", &cfg.Export.Filename)
	set("host", &cfg.Server.Host)
	set("port", &cfg.Server.Port)
	if regions := cmd.StringSlice("region"); len(regions) > 0 {
		cfg.Export.Regions = regions
	}
}

func exportAction(format export.Format) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := newAppContext(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer app.Close()

		req := export.ExportRequest{Entry: "cli"}
		var result export.ExportResult
		switch format {
		case export.FormatDeck:
			result, err = app.Container.Service.ExportDeck(ctx, req)
		default:
			result, err = app.Container.Service.ExportDocument(ctx, req)
		}
		if err != nil {
			return err
		}
		return printResult(cmd.Root().Writer, app, result)
	}
}

func snapshotAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppContext(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	snapshot := exportcmd.NewSnapshotCommand(app.Container.Service, nil,
		exportcmd.WithSnapshotInterval(cmd.Duration("interval")),
	)
	results, err := snapshot.Run(ctx, cmd.String("file"))
	for _, result := range results {
		if printErr := printResult(cmd.Root().Writer, app, result); printErr != nil {
			return printErr
		}
	}
	return err
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppContext(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	var archive export.Saver
	if cmd.Bool("archive") {
		archive = app.Container.Store
	}

	srv := server.New("visual-export", nil)
	server.RegisterRoutes(srv.Router(), server.Config{
		Service:  app.Container.Service,
		BasePath: app.Config.Server.BasePath,
		Archive:  archive,
		Logger:   app.Logger,
	})
	return server.Run(ctx, srv, app.Config.Address(), app.Logger)
}

func printResult(w io.Writer, app *appContext, result export.ExportResult) error {
	if w == nil {
		w = os.Stdout
	}
	path, err := app.Container.Store.Path(result.Filename)
	if err != nil {
		path = result.Filename
	}
	_, err = fmt.Fprintf(w, "%s\t%s\t%d %s\t%d bytes\n", result.ID, path, result.Units, unitLabel(result.Format), result.Bytes)
	if err == nil && len(result.Skipped) > 0 {
		ids := make([]string, 0, len(result.Skipped))
		for _, region := range result.Skipped {
			ids = append(ids, region.ID)
		}
		_, err = fmt.Fprintf(w, "skipped: %s\n", strings.Join(ids, ", "))
	}
	return err
}

func unitLabel(format export.Format) string {
	if format == export.FormatDeck {
		return "slides"
	}
	return "pages"
}

// exitCode maps export failures to process exit codes.
func exitCode(err error) int {
	switch export.KindFromError(err) {
	case export.KindValidation:
		return 2
	case export.KindNoContent:
		return 3
	case export.KindInProgress:
		return 4
	case export.KindCapture, export.KindAssembly:
		return 5
	}
	if goErr := export.AsGoError(err); goErr != nil && goErr.Category == errors.CategoryValidation {
		return 2
	}
	return 1
}
