// Package exportchromium drives a headless Chromium tab as the page the
// export pipeline captures.
//
// A Session implements export.Page, export.Overlay, export.ReadySignaler and
// the runner's Preparer hook over chromedp. Regions are addressed by element
// id; bitmaps are taken with Page.captureScreenshot clipped to the region.
package exportchromium
