package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-visual-export/export"
)

func TestDefaultsProduceDefaultOptions(t *testing.T) {
	cfg := Defaults()
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	want := export.DefaultOptions()
	if opts.PageSize != want.PageSize || opts.Orientation != want.Orientation {
		t.Fatalf("expected %s/%s, got %s/%s", want.PageSize, want.Orientation, opts.PageSize, opts.Orientation)
	}
	if opts.SettleBudget() != export.DefaultSettle {
		t.Fatalf("expected settle %s, got %s", export.DefaultSettle, opts.SettleBudget())
	}
	if opts.Capture.Format != export.ImagePNG || opts.Capture.Scale != export.DefaultCaptureScale {
		t.Fatalf("unexpected capture options %+v", opts.Capture)
	}
	if len(cfg.Regions()) != 6 || cfg.Regions()[0].ID != "overview" {
		t.Fatalf("unexpected regions %+v", cfg.Regions())
	}
	if cfg.Address() != "localhost:8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "visual-export.toml")
	content := `
[server]
port = "9090"

[browser]
url = "http://localhost:9090/"
timeout = "45s"

[export]
page_size = "letter"
orientation = "landscape"
margin = 5.0
image_format = "jpeg"
quality = 80
settle = "250ms"
regions = ["overview=Intro", "outcomes"]

[export.slide_style]
title_color = "#0f172a"
title_size = 28.0

[metadata]
author = "Ops"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write toml: %v", err)
	}

	cfg, err := Load("", path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.Host != "localhost" {
		t.Fatalf("unexpected server %+v", cfg.Server)
	}
	if cfg.Browser.Timeout.Duration != 45*time.Second || !cfg.Browser.Headless {
		t.Fatalf("unexpected browser %+v", cfg.Browser)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.PageSize != "letter" || opts.Orientation != export.OrientationLandscape || opts.Margin != 5 {
		t.Fatalf("unexpected page options %+v", opts)
	}
	if opts.Capture.Format != export.ImageJPEG || opts.Capture.Quality != 80 {
		t.Fatalf("unexpected capture %+v", opts.Capture)
	}
	if opts.SettleBudget() != 250*time.Millisecond {
		t.Fatalf("expected 250ms settle, got %s", opts.SettleBudget())
	}
	if opts.Metadata.Author != "Ops" || opts.Metadata.Company == "" {
		t.Fatalf("unexpected metadata %+v", opts.Metadata)
	}
	if opts.Slide.TitleColor != "#0f172a" || opts.Slide.TitleSize != 28 || opts.Slide.Background != export.DefaultSlideBackground {
		t.Fatalf("unexpected slide style %+v", opts.Slide)
	}

	regions := cfg.Regions()
	if len(regions) != 2 || regions[0].Title != "Intro" || regions[1].ID != "outcomes" {
		t.Fatalf("unexpected regions %+v", regions)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("VISUAL_EXPORT_SLIDE_LAYOUT=4x3\nVISUAL_EXPORT_COMPANY=Acme\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("VISUAL_EXPORT_PORT", "7000")
	t.Setenv("VISUAL_EXPORT_HEADLESS", "false")
	t.Setenv("VISUAL_EXPORT_CHROME_ARGS", "no-sandbox, disable-gpu")
	t.Setenv("VISUAL_EXPORT_SETTLE", "0s")
	// godotenv does not override variables already present.
	t.Setenv("VISUAL_EXPORT_SLIDE_LAYOUT", "wide")
	t.Cleanup(func() { os.Unsetenv("VISUAL_EXPORT_COMPANY") })

	cfg, err := Load(envPath, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Browser.Headless {
		t.Fatalf("unexpected overrides %+v %+v", cfg.Server, cfg.Browser)
	}
	if len(cfg.Browser.Args) != 2 || cfg.Browser.Args[1] != "disable-gpu" {
		t.Fatalf("unexpected args %v", cfg.Browser.Args)
	}
	if cfg.Export.SlideLayout != "wide" || cfg.Metadata.Company != "Acme" {
		t.Fatalf("unexpected export %+v %+v", cfg.Export, cfg.Metadata)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.SettleBudget() != 0 {
		t.Fatalf("expected zero settle, got %s", opts.SettleBudget())
	}
}

func TestLoadNotifyOverrides(t *testing.T) {
	t.Setenv("VISUAL_EXPORT_NOTIFY_ENABLED", "true")
	t.Setenv("VISUAL_EXPORT_NOTIFY_RECIPIENTS", "ops@example.com,sales@example.com")
	t.Setenv("VISUAL_EXPORT_SMTP_HOST", "smtp.example.com")
	t.Setenv("VISUAL_EXPORT_SMTP_PORT", "2525")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Notify.Enabled || len(cfg.Notify.Recipients) != 2 {
		t.Fatalf("unexpected notify config %+v", cfg.Notify)
	}
	if cfg.Notify.SMTP.Host != "smtp.example.com" || cfg.Notify.SMTP.Port != 2525 {
		t.Fatalf("unexpected smtp config %+v", cfg.Notify.SMTP)
	}
	if len(cfg.Notify.Channels) != 1 || cfg.Notify.Channels[0] != "email" || cfg.Notify.Locale != "en" {
		t.Fatalf("expected default channels and locale, got %+v", cfg.Notify)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env"), ""); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("VISUAL_EXPORT_QUALITY", "high")
	if _, err := Load("", ""); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPresetOwnsCaptureSettings(t *testing.T) {
	cfg := Defaults()
	cfg.Export.Preset = "v3"
	cfg.Export.Filename = "Quarterly"

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Capture.Format != export.ImageJPEG || opts.Orientation != export.OrientationLandscape {
		t.Fatalf("expected v3 capture settings, got %+v", opts)
	}
	if opts.SettleBudget() != 800*time.Millisecond {
		t.Fatalf("expected v3 settle, got %s", opts.SettleBudget())
	}
	if opts.Filename != "Quarterly" {
		t.Fatalf("expected filename override, got %q", opts.Filename)
	}

	cfg.Export.Preset = "v9"
	if _, err := cfg.Options(); err == nil {
		t.Fatalf("expected unknown preset error")
	}
}
