// Package exportpdf assembles captured regions into a paged PDF document.
//
// Each captured image becomes one page of an HTML document rendered from a
// pongo2 template with absolute placements in millimeters. The document is
// converted to PDF by a pluggable engine (headless Chromium via chromedp, or
// wkhtmltopdf).
package exportpdf
