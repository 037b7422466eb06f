// Package exportpptx assembles captured regions into a PowerPoint slide deck.
//
// The deck is written as an OOXML package: every part is rendered from a
// pongo2 template and stored in a zip archive. Each captured image becomes one
// slide, optionally carrying the region title in a text box above the image.
package exportpptx
