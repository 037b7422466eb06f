package export

import (
	"context"
)

// Rasterizer captures a stabilized region into a bitmap.
type Rasterizer struct {
	Options CaptureOptions
}

// Capture rasterizes one region. A region with zero width or height at
// capture time is reported as a capture error so the caller can skip it.
func (r Rasterizer) Capture(ctx context.Context, page Page, region RegionRef) (CapturedImage, error) {
	if page == nil {
		return CapturedImage{}, NewError(KindInternal, "page is nil", nil)
	}

	dims, err := page.Dimensions(ctx, region.ID)
	if err != nil {
		return CapturedImage{}, NewCaptureError(region.ID, "measure region", err)
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		return CapturedImage{}, NewCaptureError(region.ID, "region has zero size at capture time", nil)
	}

	img, err := page.Capture(ctx, region.ID, r.options())
	if err != nil {
		if IsKind(err, KindCapture) {
			return CapturedImage{}, err
		}
		return CapturedImage{}, NewCaptureError(region.ID, "capture region", err)
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Data) == 0 {
		return CapturedImage{}, NewCaptureError(region.ID, "capture produced an empty bitmap", nil)
	}
	img.Region = region
	if img.Format == "" {
		img.Format = r.options().Format
	}
	return img, nil
}

func (r Rasterizer) options() CaptureOptions {
	opts := r.Options
	if opts.Scale == 0 {
		opts.Scale = DefaultCaptureScale
	}
	if opts.Format == "" {
		opts.Format = ImagePNG
	}
	if opts.Format == ImageJPEG && opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	return opts
}
