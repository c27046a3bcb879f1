// Package canvas holds the 1-bit drawing surfaces the dashboard renders into.
//
// A Plane is packed the way the e-paper controller expects it:
//
//	byteIndex = y*stride + (x >> 3)
//	mask      = 0x80 >> (x & 7)
//
// A set bit is paper (white, logically empty); a cleared bit is ink.
package canvas

import (
	"image"
	"image/color"
)

// Bit values stored in a Plane.
const (
	Ink   uint8 = 0
	Paper uint8 = 1
)

// Plane is a packed 1-bit image. It implements draw.Image so that
// golang.org/x/image/font can draw straight into it; colours are reduced to
// a bit by luminance (>= 128 is paper).
type Plane struct {
	width  int
	height int
	stride int
	pix    []byte
}

// NewPlane returns a width x height plane filled with bg.
func NewPlane(width, height int, bg uint8) *Plane {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := (width + 7) / 8
	p := &Plane{
		width:  width,
		height: height,
		stride: stride,
		pix:    make([]byte, stride*height),
	}
	p.Fill(bg)
	return p
}

func (p *Plane) Width() int  { return p.width }
func (p *Plane) Height() int { return p.height }

// Stride is the number of bytes per row.
func (p *Plane) Stride() int { return p.stride }

// Fill sets every pixel to b.
func (p *Plane) Fill(b uint8) {
	v := byte(0x00)
	if b != Ink {
		v = 0xFF
	}
	for i := range p.pix {
		p.pix[i] = v
	}
}

// Bit returns the bit at (x, y). Pixels outside the plane read as paper.
func (p *Plane) Bit(x, y int) uint8 {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return Paper
	}
	if p.pix[y*p.stride+(x>>3)]&(0x80>>(x&7)) != 0 {
		return Paper
	}
	return Ink
}

// SetBit writes b at (x, y); writes outside the plane are dropped.
func (p *Plane) SetBit(x, y int, b uint8) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return
	}
	i := y*p.stride + (x >> 3)
	mask := byte(0x80 >> (x & 7))
	if b == Ink {
		p.pix[i] &^= mask
	} else {
		p.pix[i] |= mask
	}
}

// Bytes returns a copy of the packed rows.
func (p *Plane) Bytes() []byte {
	out := make([]byte, len(p.pix))
	copy(out, p.pix)
	return out
}

// InkCount returns how many pixels inside r are ink.
func (p *Plane) InkCount(r image.Rectangle) int {
	r = r.Intersect(p.Bounds())
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if p.Bit(x, y) == Ink {
				n++
			}
		}
	}
	return n
}

func (p *Plane) ColorModel() color.Model { return color.GrayModel }

func (p *Plane) Bounds() image.Rectangle { return image.Rect(0, 0, p.width, p.height) }

func (p *Plane) At(x, y int) color.Color {
	if p.Bit(x, y) == Ink {
		return color.Gray{Y: 0}
	}
	return color.Gray{Y: 0xFF}
}

func (p *Plane) Set(x, y int, c color.Color) {
	g := color.GrayModel.Convert(c).(color.Gray)
	if g.Y >= 0x80 {
		p.SetBit(x, y, Paper)
	} else {
		p.SetBit(x, y, Ink)
	}
}

// FillRect paints the rectangle with corners (x0, y0) and (x1, y1), both
// inclusive, clipped to the plane.
func (p *Plane) FillRect(x0, y0, x1, y1 int, b uint8) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	r := image.Rect(x0, y0, x1+1, y1+1).Intersect(p.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p.SetBit(x, y, b)
		}
	}
}

// Paste copies src into p with src's origin at at. Pixels falling outside p
// are dropped.
func (p *Plane) Paste(src *Plane, at image.Point) {
	for y := 0; y < src.height; y++ {
		for x := 0; x < src.width; x++ {
			p.SetBit(at.X+x, at.Y+y, src.Bit(x, y))
		}
	}
}

// Target is the pair of planes one render pass draws into: Primary is the
// black plane, Accent the red one. Both have the same size.
type Target struct {
	Primary *Plane
	Accent  *Plane
}

// NewTarget returns two blank (all paper) planes.
func NewTarget(width, height int) *Target {
	return &Target{
		Primary: NewPlane(width, height, Paper),
		Accent:  NewPlane(width, height, Paper),
	}
}

func (t *Target) Width() int  { return t.Primary.Width() }
func (t *Target) Height() int { return t.Primary.Height() }
