package export

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	DefaultMargin       = 10.0
	DefaultCaptureScale = 2.0
	DefaultQuality      = 92
	DefaultSettle       = 600 * time.Millisecond
	DefaultReadyTimeout = 2 * time.Second
	DefaultBackground   = "#ffffff"
	DefaultFilename     = "UCMS-Presentation"

	DefaultSlideBackground = "#f8fafc"
	DefaultTitleColor      = "#1d4ed8"
	DefaultTitleSize       = 32.0
)

// SlideStyle is the deck styling. TitleSize is in points.
type SlideStyle struct {
	Background string
	TitleColor string
	TitleSize  float64
}

// Options are the named knobs of one pipeline configuration.
type Options struct {
	PageSize     string
	Orientation  Orientation
	Margin       float64
	SlideLayout  string
	Capture      CaptureOptions
	Settle       time.Duration
	SkipSettle   bool
	ReadyTimeout time.Duration
	Background   string
	Overrides    StyleOverrides
	SlideTitles  *bool
	Slide        SlideStyle
	Metadata     DocumentMetadata
	Filename     string
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		PageSize:    "A4",
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
		SlideLayout: SlideLayout16x9,
		Capture: CaptureOptions{
			Scale:   DefaultCaptureScale,
			Format:  ImagePNG,
			Quality: DefaultQuality,
		},
		Settle:       DefaultSettle,
		ReadyTimeout: DefaultReadyTimeout,
		Background:   DefaultBackground,
		SlideTitles:  boolPtr(true),
		Slide: SlideStyle{
			Background: DefaultSlideBackground,
			TitleColor: DefaultTitleColor,
			TitleSize:  DefaultTitleSize,
		},
		Metadata: DocumentMetadata{
			Author:  "UCMS Team",
			Company: "UCMS - Utility Cost Management System",
			Title:   "UCMS - Comprehensive Utility Management Platform",
			Subject: "AI-Powered Utility Cost Management System",
		},
		Filename: DefaultFilename,
	}
}

var presets = map[string]Options{
	"v1": {
		Capture: CaptureOptions{Scale: 2, Format: ImagePNG},
	},
	"v2": {
		Capture: CaptureOptions{Scale: 2, Format: ImagePNG},
		Settle:  600 * time.Millisecond,
	},
	"v3": {
		Orientation: OrientationLandscape,
		Capture:     CaptureOptions{Scale: 1.5, Format: ImageJPEG, Quality: 92},
		Settle:      800 * time.Millisecond,
	},
}

// Preset returns the defaults with a named configuration variant applied.
func Preset(name string) (Options, error) {
	delta, err := PresetOverrides(name)
	if err != nil {
		return Options{}, err
	}
	opts := MergeOptions(DefaultOptions(), delta)
	if delta.SkipSettle {
		opts.Settle = 0
	}
	return opts, nil
}

// PresetOverrides returns only the fields a named variant sets, so it can be
// merged over configured options without resetting them to the defaults.
func PresetOverrides(name string) (Options, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Options{}, nil
	}
	preset, ok := presets[name]
	if !ok {
		return Options{}, NewError(KindValidation, fmt.Sprintf("unknown preset: %s", name), nil)
	}
	if name == "v1" {
		preset.SkipSettle = true
	}
	return preset, nil
}

// PresetNames lists the known configuration variants.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeOptions overlays non-zero override values on base.
func MergeOptions(base, override Options) Options {
	merged := base
	if override.PageSize != "" {
		merged.PageSize = override.PageSize
	}
	if override.Orientation != "" {
		merged.Orientation = override.Orientation
	}
	if override.Margin != 0 {
		merged.Margin = override.Margin
	}
	if override.SlideLayout != "" {
		merged.SlideLayout = override.SlideLayout
	}
	if override.Capture.Scale != 0 {
		merged.Capture.Scale = override.Capture.Scale
	}
	if override.Capture.Format != "" {
		merged.Capture.Format = override.Capture.Format
	}
	if override.Capture.Quality != 0 {
		merged.Capture.Quality = override.Capture.Quality
	}
	if override.Settle != 0 {
		merged.Settle = override.Settle
		merged.SkipSettle = false
	}
	if override.SkipSettle {
		merged.SkipSettle = true
	}
	if override.ReadyTimeout != 0 {
		merged.ReadyTimeout = override.ReadyTimeout
	}
	if override.Background != "" {
		merged.Background = override.Background
	}
	if len(override.Overrides) > 0 {
		merged.Overrides = override.Overrides
	}
	if override.SlideTitles != nil {
		merged.SlideTitles = override.SlideTitles
	}
	if override.Slide.Background != "" {
		merged.Slide.Background = override.Slide.Background
	}
	if override.Slide.TitleColor != "" {
		merged.Slide.TitleColor = override.Slide.TitleColor
	}
	if override.Slide.TitleSize != 0 {
		merged.Slide.TitleSize = override.Slide.TitleSize
	}
	if override.Metadata.Author != "" {
		merged.Metadata.Author = override.Metadata.Author
	}
	if override.Metadata.Company != "" {
		merged.Metadata.Company = override.Metadata.Company
	}
	if override.Metadata.Title != "" {
		merged.Metadata.Title = override.Metadata.Title
	}
	if override.Metadata.Subject != "" {
		merged.Metadata.Subject = override.Metadata.Subject
	}
	if override.Filename != "" {
		merged.Filename = override.Filename
	}
	return merged
}

// Validate checks option ranges.
func (o Options) Validate() error {
	canvas, err := PageCanvas(o.PageSize, o.Orientation, o.Margin)
	if err != nil {
		return err
	}
	if o.Margin < 0 {
		return NewError(KindValidation, "margin must not be negative", nil)
	}
	if 2*o.Margin >= canvas.Width || 2*o.Margin >= canvas.Height {
		return NewError(KindValidation, "margin leaves no printable area", nil)
	}
	if _, err := SlideCanvas(o.SlideLayout); err != nil {
		return err
	}
	if o.Capture.Scale < 0.1 || o.Capture.Scale > 4 {
		return NewError(KindValidation, "capture scale must be between 0.1 and 4", nil)
	}
	switch o.Capture.Format {
	case ImagePNG:
	case ImageJPEG:
		if o.Capture.Quality < 1 || o.Capture.Quality > 100 {
			return NewError(KindValidation, "jpeg quality must be between 1 and 100", nil)
		}
	default:
		return NewError(KindValidation, fmt.Sprintf("unsupported image format: %s", o.Capture.Format), nil)
	}
	if o.Slide.TitleSize < 0 || o.Slide.TitleSize > 400 {
		return NewError(KindValidation, "slide title size must be between 0 and 400 points", nil)
	}
	if o.Settle < 0 || o.ReadyTimeout < 0 {
		return NewError(KindValidation, "settle durations must not be negative", nil)
	}
	return nil
}

// StyleOverridesFor returns the styles forced on a region during capture.
func (o Options) StyleOverridesFor() StyleOverrides {
	if len(o.Overrides) > 0 {
		out := make(StyleOverrides, len(o.Overrides))
		for k, v := range o.Overrides {
			out[k] = v
		}
		return out
	}
	background := o.Background
	if background == "" {
		background = DefaultBackground
	}
	return StyleOverrides{
		"background-color": background,
		"min-height":       "100vh",
		"display":          "flex",
		"flex-direction":   "column",
		"justify-content":  "center",
	}
}

// SettleBudget is the fixed wait applied after scrolling a region into view.
func (o Options) SettleBudget() time.Duration {
	if o.SkipSettle {
		return 0
	}
	return o.Settle
}

// TitlesEnabled reports whether slides carry a rendered title.
func (o Options) TitlesEnabled() bool {
	return o.SlideTitles == nil || *o.SlideTitles
}

// ParseImageFormat coerces image format aliases.
func ParseImageFormat(value string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "png":
		return ImagePNG, nil
	case "jpeg", "jpg":
		return ImageJPEG, nil
	default:
		return "", NewError(KindValidation, fmt.Sprintf("unsupported image format: %s", value), nil)
	}
}

// ParseOrientation coerces orientation aliases.
func ParseOrientation(value string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "p", "portrait":
		return OrientationPortrait, nil
	case "l", "landscape":
		return OrientationLandscape, nil
	default:
		return "", NewError(KindValidation, fmt.Sprintf("unsupported orientation: %s", value), nil)
	}
}

func boolPtr(value bool) *bool {
	return &value
}
