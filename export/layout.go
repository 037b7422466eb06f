package export

import (
	"fmt"
	"strings"
)

const (
	UnitMillimeter = "mm"
	UnitInch       = "in"

	SlideLayout16x9  = "16x9"
	SlideLayout16x10 = "16x10"
	SlideLayout4x3   = "4x3"
	SlideLayoutWide  = "wide"

	// SlideTitleBand is the slide height reserved above the image for its title.
	SlideTitleBand = 0.75
)

var pageSizesMillimeters = map[string]struct {
	width  float64
	height float64
}{
	"A3":     {width: 297, height: 420},
	"A4":     {width: 210, height: 297},
	"A5":     {width: 148, height: 210},
	"LETTER": {width: 215.9, height: 279.4},
	"LEGAL":  {width: 215.9, height: 355.6},
}

var slideSizesInches = map[string]struct {
	width  float64
	height float64
}{
	SlideLayout16x9:  {width: 10, height: 5.625},
	SlideLayout16x10: {width: 10, height: 6.25},
	SlideLayout4x3:   {width: 10, height: 7.5},
	SlideLayoutWide:  {width: 13.333, height: 7.5},
}

// PageCanvas returns the paged-document canvas in millimeters.
func PageCanvas(size string, orientation Orientation, margin float64) (Canvas, error) {
	dims, ok := pageSizesMillimeters[strings.ToUpper(strings.TrimSpace(size))]
	if !ok {
		return Canvas{}, NewError(KindValidation, fmt.Sprintf("unsupported page size: %s", size), nil)
	}
	canvas := Canvas{Width: dims.width, Height: dims.height, Margin: margin, Unit: UnitMillimeter}
	switch orientation {
	case "", OrientationPortrait:
	case OrientationLandscape:
		canvas.Width, canvas.Height = canvas.Height, canvas.Width
	default:
		return Canvas{}, NewError(KindValidation, fmt.Sprintf("unsupported orientation: %s", orientation), nil)
	}
	return canvas, nil
}

// SlideCanvas returns the slide canvas in inches. Slides carry no margin.
func SlideCanvas(layout string) (Canvas, error) {
	key := strings.ToLower(strings.TrimSpace(layout))
	if key == "" {
		key = SlideLayout16x9
	}
	dims, ok := slideSizesInches[key]
	if !ok {
		return Canvas{}, NewError(KindValidation, fmt.Sprintf("unsupported slide layout: %s", layout), nil)
	}
	return Canvas{Width: dims.width, Height: dims.height, Unit: UnitInch}, nil
}

// Fit places an image on a paged canvas without cropping.
// Fit-to-width is tried first; fit-to-height is used only when the
// width-fitted image would overflow the printable height.
func Fit(canvas Canvas, img CapturedImage) (Placement, error) {
	if err := checkLayoutInput(canvas, img); err != nil {
		return Placement{}, err
	}
	iw := float64(img.Width)
	ih := float64(img.Height)

	marginedWidth := canvas.Width - 2*canvas.Margin
	marginedHeight := canvas.Height - 2*canvas.Margin
	if marginedWidth <= 0 || marginedHeight <= 0 {
		return Placement{}, NewError(KindValidation, "margin leaves no printable area", nil)
	}

	scaledHeight := ih * marginedWidth / iw
	if scaledHeight <= marginedHeight {
		return Placement{
			X:      canvas.Margin,
			Y:      (canvas.Height - scaledHeight) / 2,
			Width:  marginedWidth,
			Height: scaledHeight,
		}, nil
	}

	scaledWidth := iw * marginedHeight / ih
	return Placement{
		X:      (canvas.Width - scaledWidth) / 2,
		Y:      canvas.Margin,
		Width:  scaledWidth,
		Height: marginedHeight,
	}, nil
}

// Fill scales an image to fill a slide, preserving aspect ratio and
// centering it on the axis with slack.
func Fill(canvas Canvas, img CapturedImage) (Placement, error) {
	return FillBelow(canvas, 0, img)
}

// FillBelow is Fill restricted to the area under a top band.
func FillBelow(canvas Canvas, top float64, img CapturedImage) (Placement, error) {
	if err := checkLayoutInput(canvas, img); err != nil {
		return Placement{}, err
	}
	areaHeight := canvas.Height - top
	if top < 0 || areaHeight <= 0 {
		return Placement{}, NewError(KindValidation, "slide band leaves no image area", nil)
	}
	iw := float64(img.Width)
	ih := float64(img.Height)

	scale := canvas.Width / iw
	if ih*scale > areaHeight {
		scale = areaHeight / ih
	}
	width := iw * scale
	height := ih * scale
	return Placement{
		X:      (canvas.Width - width) / 2,
		Y:      top + (areaHeight-height)/2,
		Width:  width,
		Height: height,
	}, nil
}

func checkLayoutInput(canvas Canvas, img CapturedImage) error {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return NewError(KindValidation, "canvas dimensions must be positive", nil)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return NewError(KindValidation, "image dimensions must be positive", nil)
	}
	return nil
}
