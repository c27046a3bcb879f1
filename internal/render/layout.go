package render

import (
	"image"

	"organizer/internal/canvas"
	"organizer/internal/config"
)

// Layout derives the fixed regions of the dashboard from the panel size and
// the configured dimensions. Every accessor recomputes its value.
type Layout struct {
	geo Geometry
	dim config.Dimensions
}

// NewLayout returns the layout for a panel of size geo.
func NewLayout(geo Geometry, dim config.Dimensions) *Layout {
	return &Layout{geo: geo, dim: dim}
}

// Width and Height are the panel size in pixels.
func (l *Layout) Width() int  { return l.geo.Width }
func (l *Layout) Height() int { return l.geo.Height }

// Border is the side border width.
func (l *Layout) Border() int { return l.dim.SideBorderWidth }

// LeftColumnOffset is the x where the left column starts, just inside the
// left border.
func (l *Layout) LeftColumnOffset() int { return l.dim.SideBorderWidth }

// LeftColumn is the schedule region: the left column inset by 5px on the
// left, 10px on the right and 10px top and bottom.
func (l *Layout) LeftColumn() Region {
	off := l.LeftColumnOffset()
	return Region{
		Start: image.Pt(off+5, l.dim.HeaderHeight+10),
		End:   image.Pt(off+l.dim.ColumnWidth-10, l.dim.HeaderHeight+l.dim.ColumnHeight-10),
	}
}

// RightColumnOffset is the x where the right column starts, past the
// divider.
func (l *Layout) RightColumnOffset() int {
	return l.LeftColumnOffset() + l.dim.ColumnWidth + l.dim.DividerWidth
}

// RightColumn is the action list region. It is inset 5px on both sides.
func (l *Layout) RightColumn() Region {
	off := l.RightColumnOffset()
	return Region{
		Start: image.Pt(off+5, l.dim.HeaderHeight+10),
		End:   image.Pt(off+l.dim.ColumnWidth-5, l.dim.HeaderHeight+l.dim.ColumnHeight-10),
	}
}

// Footer is the weather strip below the columns, inside the side borders.
func (l *Layout) Footer() Region {
	sb := l.dim.SideBorderWidth
	return Region{
		Start: image.Pt(sb, l.dim.HeaderHeight+l.dim.ColumnHeight+sb+5),
		End:   image.Pt(l.geo.Width-sb, l.geo.Height-sb),
	}
}

// Draw paints the chrome on the primary plane: header band, both side
// borders, the centre divider and the footer band.
func (l *Layout) Draw(t *canvas.Target) {
	l.drawHeader(t.Primary)
	l.drawLeftBorder(t.Primary)
	l.drawCenterDivider(t.Primary)
	l.drawRightBorder(t.Primary)
	l.drawFooter(t.Primary)
}

func (l *Layout) drawHeader(p *canvas.Plane) {
	p.FillRect(0, 0, l.geo.Width, l.dim.HeaderHeight, canvas.Ink)
}

func (l *Layout) drawLeftBorder(p *canvas.Plane) {
	hh := l.dim.HeaderHeight
	p.FillRect(0, hh, l.dim.SideBorderWidth, hh+l.dim.ColumnHeight, canvas.Ink)
}

func (l *Layout) drawCenterDivider(p *canvas.Plane) {
	hh := l.dim.HeaderHeight
	off := l.RightColumnOffset()
	p.FillRect(off-l.dim.DividerWidth, hh, off, hh+l.dim.ColumnHeight, canvas.Ink)
}

func (l *Layout) drawRightBorder(p *canvas.Plane) {
	hh := l.dim.HeaderHeight
	p.FillRect(l.geo.Width-l.dim.SideBorderWidth, hh, l.geo.Width, hh+l.dim.ColumnHeight, canvas.Ink)
}

func (l *Layout) drawFooter(p *canvas.Plane) {
	p.FillRect(0, l.dim.HeaderHeight+l.dim.ColumnHeight, l.geo.Width, l.geo.Height, canvas.Ink)
}
