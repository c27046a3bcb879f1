package canvas

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// LineSpacing is the gap between lines of multiline text.
const LineSpacing = 4

// TextSize returns the box a single line occupies: its advance width and the
// face's line height (ascent + descent). An empty string is (0, 0).
func TextSize(face font.Face, s string) (w, h int) {
	if s == "" {
		return 0, 0
	}
	return font.MeasureString(face, s).Ceil(), lineHeight(face)
}

// MultilineSize measures newline-separated text: the widest line, and one
// line height plus LineSpacing per line except the last.
func MultilineSize(face font.Face, s string) (w, h int) {
	lines := strings.Split(s, "\n")
	for _, line := range lines {
		lw, _ := TextSize(face, line)
		if lw > w {
			w = lw
		}
	}
	h = len(lines)*(lineHeight(face)+LineSpacing) - LineSpacing
	return w, h
}

// DrawText draws s with its box's top-left corner at pt.
func DrawText(p *Plane, face font.Face, pt image.Point, s string, b uint8) {
	if s == "" {
		return
	}
	d := font.Drawer{
		Dst:  p,
		Src:  image.NewUniform(bitColor(b)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(pt.X), Y: fixed.I(pt.Y) + face.Metrics().Ascent},
	}
	d.DrawString(s)
}

// DrawMultiline draws newline-separated text, one line every
// line height + LineSpacing pixels.
func DrawMultiline(p *Plane, face font.Face, pt image.Point, s string, b uint8) {
	step := lineHeight(face) + LineSpacing
	for i, line := range strings.Split(s, "\n") {
		DrawText(p, face, image.Pt(pt.X, pt.Y+i*step), line, b)
	}
}

func lineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

func bitColor(b uint8) color.Gray {
	if b == Ink {
		return color.Gray{Y: 0}
	}
	return color.Gray{Y: 0xFF}
}
