// Package render lays out and draws the organizer dashboard into a pair of
// 1-bit planes.
//
// Every renderer takes the target explicitly and only touches the pixels of
// the region it was constructed with; that contract is not enforced at
// runtime. Later renderers may overpaint earlier ones at shared edges, so the
// Dashboard's draw order is fixed.
package render

import (
	"image"

	"golang.org/x/image/font"
)

// Region is an axis-aligned rectangle given by two corner points, both
// inclusive.
type Region struct {
	Start image.Point
	End   image.Point
}

// Rect converts r to the half-open image.Rectangle covering the same pixels.
func (r Region) Rect() image.Rectangle {
	return image.Rectangle{Min: r.Start, Max: r.End.Add(image.Pt(1, 1))}
}

// Geometry is the size of the panel in pixels.
type Geometry struct {
	Width  int
	Height int
}

// FaceSource returns the face a region uses for a field; see the Region*
// and Field* constants in package config. *fonts.Library implements it.
type FaceSource interface {
	Face(region, field string) (font.Face, error)
}

// Logger is the observability sink of a render pass. *log.Logger
// implements it.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
}

// headerGap separates a strip's icon from its title.
const headerGap = 10

// centerOffset places an icon + gap + title row horizontally centred in the
// box running from x to maxX.
func centerOffset(x, maxX, textW, iconW int) int {
	return x + (maxX-x-textW-iconW-headerGap)/2
}
