package export

import (
	"math"
	"testing"
)

const layoutEpsilon = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) < layoutEpsilon
}

func TestFitWidthFirstCentersVertically(t *testing.T) {
	canvas, err := PageCanvas("A4", OrientationPortrait, 10)
	if err != nil {
		t.Fatalf("canvas: %v", err)
	}
	placement, err := Fit(canvas, CapturedImage{Width: 1000, Height: 500})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	want := Placement{X: 10, Y: 101, Width: 190, Height: 95}
	if !approx(placement.X, want.X) || !approx(placement.Y, want.Y) ||
		!approx(placement.Width, want.Width) || !approx(placement.Height, want.Height) {
		t.Fatalf("expected %+v, got %+v", want, placement)
	}
}

func TestFitFallsBackToHeight(t *testing.T) {
	canvas, err := PageCanvas("A4", OrientationPortrait, 10)
	if err != nil {
		t.Fatalf("canvas: %v", err)
	}
	placement, err := Fit(canvas, CapturedImage{Width: 500, Height: 2000})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !approx(placement.Height, 277) || !approx(placement.Y, 10) {
		t.Fatalf("expected fit-to-height, got %+v", placement)
	}
	if !approx(placement.Width, 69.25) || !approx(placement.X, 70.375) {
		t.Fatalf("expected horizontal centering, got %+v", placement)
	}
}

func TestFitPropertiesAcrossShapes(t *testing.T) {
	canvases := []Canvas{}
	for _, size := range []string{"A4", "LETTER", "A3"} {
		for _, orientation := range []Orientation{OrientationPortrait, OrientationLandscape} {
			canvas, err := PageCanvas(size, orientation, 10)
			if err != nil {
				t.Fatalf("canvas %s: %v", size, err)
			}
			canvases = append(canvases, canvas)
		}
	}

	shapes := [][2]int{{1, 1}, {1920, 1080}, {1080, 1920}, {3000, 200}, {200, 3000}, {1366, 768}, {7, 13}}
	for _, canvas := range canvases {
		for _, shape := range shapes {
			img := CapturedImage{Width: shape[0], Height: shape[1]}
			p, err := Fit(canvas, img)
			if err != nil {
				t.Fatalf("fit %v on %+v: %v", shape, canvas, err)
			}
			m := canvas.Margin
			if p.Width > canvas.Width-2*m+layoutEpsilon || p.Height > canvas.Height-2*m+layoutEpsilon {
				t.Fatalf("placement %+v exceeds printable area of %+v", p, canvas)
			}
			if p.X < m-layoutEpsilon || p.Y < m-layoutEpsilon {
				t.Fatalf("placement %+v starts inside margin of %+v", p, canvas)
			}
			if p.X+p.Width > canvas.Width-m+layoutEpsilon || p.Y+p.Height > canvas.Height-m+layoutEpsilon {
				t.Fatalf("placement %+v ends inside margin of %+v", p, canvas)
			}
			wantRatio := float64(img.Width) / float64(img.Height)
			if math.Abs(p.Width/p.Height-wantRatio) > 1e-6*wantRatio {
				t.Fatalf("aspect ratio changed for %v: %+v", shape, p)
			}
			touchesWidth := approx(p.Width, canvas.Width-2*m)
			touchesHeight := approx(p.Height, canvas.Height-2*m)
			if !touchesWidth && !touchesHeight {
				t.Fatalf("placement %+v fills neither dimension of %+v", p, canvas)
			}
		}
	}
}

func TestFitRejectsEmptyImage(t *testing.T) {
	canvas, _ := PageCanvas("A4", OrientationPortrait, 10)
	if _, err := Fit(canvas, CapturedImage{Width: 0, Height: 10}); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFillCoversSlide(t *testing.T) {
	canvas, err := SlideCanvas(SlideLayout16x9)
	if err != nil {
		t.Fatalf("canvas: %v", err)
	}
	p, err := Fill(canvas, CapturedImage{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !approx(p.X, 0) || !approx(p.Y, 0) || !approx(p.Width, 10) || !approx(p.Height, 5.625) {
		t.Fatalf("expected full slide, got %+v", p)
	}

	p, err = Fill(canvas, CapturedImage{Width: 1000, Height: 1000})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !approx(p.Height, 5.625) || !approx(p.X, (10-5.625)/2) {
		t.Fatalf("expected centered square, got %+v", p)
	}
}

func TestFillBelowReservesTitleBand(t *testing.T) {
	canvas, _ := SlideCanvas(SlideLayout16x9)
	p, err := FillBelow(canvas, SlideTitleBand, CapturedImage{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if p.Y < SlideTitleBand-layoutEpsilon {
		t.Fatalf("image overlaps title band: %+v", p)
	}
	if !approx(p.Y+p.Height, canvas.Height) {
		t.Fatalf("expected image to reach slide bottom, got %+v", p)
	}
	if !approx(p.X*2+p.Width, canvas.Width) {
		t.Fatalf("expected horizontal centering, got %+v", p)
	}
}

func TestCanvasLookups(t *testing.T) {
	landscape, err := PageCanvas("a4", OrientationLandscape, 10)
	if err != nil {
		t.Fatalf("canvas: %v", err)
	}
	if landscape.Width != 297 || landscape.Height != 210 || landscape.Unit != UnitMillimeter {
		t.Fatalf("unexpected landscape canvas %+v", landscape)
	}
	if _, err := PageCanvas("B5", OrientationPortrait, 10); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error for unknown size, got %v", err)
	}
	wide, err := SlideCanvas("WIDE")
	if err != nil {
		t.Fatalf("slide canvas: %v", err)
	}
	if wide.Height != 7.5 || wide.Unit != UnitInch {
		t.Fatalf("unexpected wide canvas %+v", wide)
	}
	if _, err := SlideCanvas("3x2"); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error for unknown layout, got %v", err)
	}
}
