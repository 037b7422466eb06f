package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-visual-export/export"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VISUAL_EXPORT_"

// Config holds the visual export configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Browser  BrowserConfig  `toml:"browser"`
	Export   ExportConfig   `toml:"export"`
	Metadata MetadataConfig `toml:"metadata"`
	Notify   NotifyConfig   `toml:"notify"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	BasePath string `toml:"base_path"`
}

// BrowserConfig holds headless Chromium settings.
type BrowserConfig struct {
	Path           string   `toml:"path"`
	Headless       bool     `toml:"headless"`
	Args           []string `toml:"args"`
	Timeout        Duration `toml:"timeout"`
	URL            string   `toml:"url"`
	ViewportWidth  int      `toml:"viewport_width"`
	ViewportHeight int      `toml:"viewport_height"`
}

// ExportConfig holds pipeline options.
type ExportConfig struct {
	Preset       string           `toml:"preset"`
	PageSize     string           `toml:"page_size"`
	Orientation  string           `toml:"orientation"`
	Margin       float64          `toml:"margin"`
	SlideLayout  string           `toml:"slide_layout"`
	Scale        float64          `toml:"scale"`
	ImageFormat  string           `toml:"image_format"`
	Quality      int              `toml:"quality"`
	Settle       Duration         `toml:"settle"`
	ReadyTimeout Duration         `toml:"ready_timeout"`
	Background   string           `toml:"background"`
	SlideTitles  bool             `toml:"slide_titles"`
	SlideStyle   SlideStyleConfig `toml:"slide_style"`
	Filename     string           `toml:"filename"`
	OutputDir    string           `toml:"output_dir"`
	Regions      []string         `toml:"regions"`
}

// SlideStyleConfig styles deck slides.
type SlideStyleConfig struct {
	Background string  `toml:"background"`
	TitleColor string  `toml:"title_color"`
	TitleSize  float64 `toml:"title_size"`
}

// MetadataConfig is written into every artifact.
type MetadataConfig struct {
	Author  string `toml:"author"`
	Company string `toml:"company"`
	Title   string `toml:"title"`
	Subject string `toml:"subject"`
}

// NotifyConfig enables ready notifications through go-notifications.
type NotifyConfig struct {
	Enabled    bool       `toml:"enabled"`
	Recipients []string   `toml:"recipients"`
	Channels   []string   `toml:"channels"`
	Locale     string     `toml:"locale"`
	BaseURL    string     `toml:"base_url"`
	SMTP       SMTPConfig `toml:"smtp"`
}

// SMTPConfig configures the email channel. An empty host leaves only the
// console channel.
type SMTPConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	From        string `toml:"from"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	UseTLS      bool   `toml:"use_tls"`
	UseStartTLS bool   `toml:"use_starttls"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration decodes TOML and env strings such as "600ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config with the pipeline defaults.
func Defaults() Config {
	opts := export.DefaultOptions()
	regions := make([]string, 0, len(export.DefaultRegions()))
	for _, region := range export.DefaultRegions() {
		regions = append(regions, region.ID+"="+region.Title)
	}
	return Config{
		Server: ServerConfig{
			Host:     "localhost",
			Port:     "8080",
			BasePath: "/exports",
		},
		Browser: BrowserConfig{
			Headless:       true,
			Timeout:        Duration{2 * time.Minute},
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		Export: ExportConfig{
			PageSize:     opts.PageSize,
			Orientation:  string(opts.Orientation),
			Margin:       opts.Margin,
			SlideLayout:  opts.SlideLayout,
			Scale:        opts.Capture.Scale,
			ImageFormat:  string(opts.Capture.Format),
			Quality:      opts.Capture.Quality,
			Settle:       Duration{opts.Settle},
			ReadyTimeout: Duration{opts.ReadyTimeout},
			Background:   opts.Background,
			SlideTitles:  opts.TitlesEnabled(),
			SlideStyle: SlideStyleConfig{
				Background: opts.Slide.Background,
				TitleColor: opts.Slide.TitleColor,
				TitleSize:  opts.Slide.TitleSize,
			},
			Filename:  opts.Filename,
			OutputDir: "./exports",
			Regions:   regions,
		},
		Metadata: MetadataConfig{
			Author:  opts.Metadata.Author,
			Company: opts.Metadata.Company,
			Title:   opts.Metadata.Title,
			Subject: opts.Metadata.Subject,
		},
		Notify: NotifyConfig{
			Channels: []string{"email"},
			Locale:   "en",
			SMTP:     SMTPConfig{Port: 587},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, an optional TOML file, an optional .env
// file and VISUAL_EXPORT_* environment variables, in that order.
func Load(envFile, tomlFile string) (Config, error) {
	cfg := Defaults()

	if tomlFile != "" {
		if _, err := toml.DecodeFile(tomlFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode TOML file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options converts the export section into pipeline options. A preset, when
// named, is the base the explicit values are laid over.
func (c Config) Options() (export.Options, error) {
	base := export.DefaultOptions()
	if c.Export.Preset != "" {
		preset, err := export.Preset(c.Export.Preset)
		if err != nil {
			return export.Options{}, err
		}
		base = preset
	}

	override := export.Options{
		PageSize:     c.Export.PageSize,
		Margin:       c.Export.Margin,
		SlideLayout:  c.Export.SlideLayout,
		ReadyTimeout: c.Export.ReadyTimeout.Duration,
		Background:   c.Export.Background,
		Filename:     c.Export.Filename,
		Slide: export.SlideStyle{
			Background: c.Export.SlideStyle.Background,
			TitleColor: c.Export.SlideStyle.TitleColor,
			TitleSize:  c.Export.SlideStyle.TitleSize,
		},
		Metadata: export.DocumentMetadata{
			Author:  c.Metadata.Author,
			Company: c.Metadata.Company,
			Title:   c.Metadata.Title,
			Subject: c.Metadata.Subject,
		},
	}
	// A named preset owns the capture and settle settings.
	if c.Export.Preset == "" {
		override.Capture = export.CaptureOptions{Scale: c.Export.Scale, Quality: c.Export.Quality}
		override.Settle = c.Export.Settle.Duration
		if c.Export.Settle.Duration == 0 {
			override.SkipSettle = true
		}
		if c.Export.Orientation != "" {
			orientation, err := export.ParseOrientation(c.Export.Orientation)
			if err != nil {
				return export.Options{}, err
			}
			override.Orientation = orientation
		}
		if c.Export.ImageFormat != "" {
			format, err := export.ParseImageFormat(c.Export.ImageFormat)
			if err != nil {
				return export.Options{}, err
			}
			override.Capture.Format = format
		}
	}
	titles := c.Export.SlideTitles
	override.SlideTitles = &titles

	opts := export.MergeOptions(base, override)
	if err := opts.Validate(); err != nil {
		return export.Options{}, err
	}
	return opts, nil
}

// Regions returns the declared export regions in order.
func (c Config) Regions() []export.RegionRef {
	if len(c.Export.Regions) == 0 {
		return export.DefaultRegions()
	}
	return export.ParseRegions(c.Export.Regions)
}

// Address returns the server listen address.
func (c Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, target *string) {
		if value, ok := lookupEnv(key); ok {
			*target = value
		}
	}
	list := func(key string, target *[]string) {
		if value, ok := lookupEnv(key); ok {
			*target = splitList(value)
		}
	}
	integer := func(key string, target *int) {
		if value, ok := lookupEnv(key); ok {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*target = parsed
		}
	}
	float := func(key string, target *float64) {
		if value, ok := lookupEnv(key); ok {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*target = parsed
		}
	}
	boolean := func(key string, target *bool) {
		if value, ok := lookupEnv(key); ok {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*target = parsed
		}
	}
	duration := func(key string, target *Duration) {
		if value, ok := lookupEnv(key); ok {
			if err := target.UnmarshalText([]byte(value)); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}

	str("HOST", &cfg.Server.Host)
	str("PORT", &cfg.Server.Port)
	str("BASE_PATH", &cfg.Server.BasePath)

	str("CHROME_PATH", &cfg.Browser.Path)
	boolean("HEADLESS", &cfg.Browser.Headless)
	list("CHROME_ARGS", &cfg.Browser.Args)
	duration("CHROME_TIMEOUT", &cfg.Browser.Timeout)
	str("URL", &cfg.Browser.URL)
	integer("VIEWPORT_WIDTH", &cfg.Browser.ViewportWidth)
	integer("VIEWPORT_HEIGHT", &cfg.Browser.ViewportHeight)

	str("PRESET", &cfg.Export.Preset)
	str("PAGE_SIZE", &cfg.Export.PageSize)
	str("ORIENTATION", &cfg.Export.Orientation)
	float("MARGIN", &cfg.Export.Margin)
	str("SLIDE_LAYOUT", &cfg.Export.SlideLayout)
	float("SCALE", &cfg.Export.Scale)
	str("IMAGE_FORMAT", &cfg.Export.ImageFormat)
	integer("QUALITY", &cfg.Export.Quality)
	duration("SETTLE", &cfg.Export.Settle)
	duration("READY_TIMEOUT", &cfg.Export.ReadyTimeout)
	str("BACKGROUND", &cfg.Export.Background)
	boolean("SLIDE_TITLES", &cfg.Export.SlideTitles)
	str("SLIDE_BACKGROUND", &cfg.Export.SlideStyle.Background)
	str("TITLE_COLOR", &cfg.Export.SlideStyle.TitleColor)
	float("TITLE_SIZE", &cfg.Export.SlideStyle.TitleSize)
	str("FILENAME", &cfg.Export.Filename)
	str("OUTPUT_DIR", &cfg.Export.OutputDir)
	list("REGIONS", &cfg.Export.Regions)

	str("AUTHOR", &cfg.Metadata.Author)
	str("COMPANY", &cfg.Metadata.Company)
	str("TITLE", &cfg.Metadata.Title)
	str("SUBJECT", &cfg.Metadata.Subject)

	boolean("NOTIFY_ENABLED", &cfg.Notify.Enabled)
	list("NOTIFY_RECIPIENTS", &cfg.Notify.Recipients)
	list("NOTIFY_CHANNELS", &cfg.Notify.Channels)
	str("NOTIFY_LOCALE", &cfg.Notify.Locale)
	str("NOTIFY_BASE_URL", &cfg.Notify.BaseURL)
	str("SMTP_HOST", &cfg.Notify.SMTP.Host)
	integer("SMTP_PORT", &cfg.Notify.SMTP.Port)
	str("SMTP_FROM", &cfg.Notify.SMTP.From)
	str("SMTP_USERNAME", &cfg.Notify.SMTP.Username)
	str("SMTP_PASSWORD", &cfg.Notify.SMTP.Password)
	boolean("SMTP_TLS", &cfg.Notify.SMTP.UseTLS)
	boolean("SMTP_STARTTLS", &cfg.Notify.SMTP.UseStartTLS)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(errs...)
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
