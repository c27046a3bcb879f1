package render

import (
	"image"
	"time"

	"golang.org/x/image/font"

	"organizer/internal/canvas"
	"organizer/internal/config"
)

// BatteryUnknown is the reading reported when the power controller is
// absent, i.e. the organizer runs on mains.
const BatteryUnknown = -1.0

// Battery glyphs (Font Awesome 5 solid).
const (
	glyphBatteryPlug    = "\uf1e6"
	glyphBatteryFull    = "\uf240"
	glyphBatteryThree   = "\uf241"
	glyphBatteryHalf    = "\uf242"
	glyphBatteryQuarter = "\uf243"
	glyphBatteryEmpty   = "\uf244"
)

// BatteryTier is the fill level shown in the header.
type BatteryTier int

const (
	BatteryTierUnknown BatteryTier = iota
	BatteryTierFull
	BatteryTierThreeQuarters
	BatteryTierHalf
	BatteryTierQuarter
	BatteryTierEmpty
)

func (t BatteryTier) String() string {
	switch t {
	case BatteryTierUnknown:
		return "unknown"
	case BatteryTierFull:
		return "full"
	case BatteryTierThreeQuarters:
		return "three-quarters"
	case BatteryTierHalf:
		return "half"
	case BatteryTierQuarter:
		return "quarter"
	case BatteryTierEmpty:
		return "empty"
	default:
		return "invalid"
	}
}

// BatteryIcon says which glyph to draw, on which plane and in which colour.
type BatteryIcon struct {
	Tier   BatteryTier
	Glyph  string
	Accent bool
	Color  uint8
}

// SelectBatteryIcon maps a battery reading to its icon. Each tier includes
// its lower bound. Below 20% the icon moves to the accent plane and is drawn
// in ink, so the warning shows in red.
func SelectBatteryIcon(level float64) BatteryIcon {
	icon := func(tier BatteryTier, glyph string) BatteryIcon {
		return BatteryIcon{Tier: tier, Glyph: glyph, Color: canvas.Paper}
	}
	switch {
	case level == BatteryUnknown:
		return icon(BatteryTierUnknown, glyphBatteryPlug)
	case level >= 80:
		return icon(BatteryTierFull, glyphBatteryFull)
	case level >= 60:
		return icon(BatteryTierThreeQuarters, glyphBatteryThree)
	case level >= 40:
		return icon(BatteryTierHalf, glyphBatteryHalf)
	case level >= 20:
		return icon(BatteryTierQuarter, glyphBatteryQuarter)
	default:
		return BatteryIcon{Tier: BatteryTierEmpty, Glyph: glyphBatteryEmpty, Accent: true, Color: canvas.Ink}
	}
}

// Header draws the date, the last-updated time and the battery state into
// the header band.
type Header struct {
	layout  *Layout
	battery float64
	now     time.Time

	title font.Face
	body  font.Face
	icon  font.Face
}

// NewHeader resolves the header faces. now is the time shown as last
// updated; battery is a percentage or BatteryUnknown.
func NewHeader(layout *Layout, faces FaceSource, battery float64, now time.Time) (*Header, error) {
	h := &Header{layout: layout, battery: battery, now: now}
	var err error
	if h.title, err = faces.Face(config.RegionHeader, config.FieldTitle); err != nil {
		return nil, err
	}
	if h.body, err = faces.Face(config.RegionHeader, config.FieldBody); err != nil {
		return nil, err
	}
	if h.icon, err = faces.Face(config.RegionHeader, config.FieldIcon); err != nil {
		return nil, err
	}
	return h, nil
}

// DrawHeaderText centres today's date across the full width.
func (h *Header) DrawHeaderText(t *canvas.Target) {
	today := h.now.Format("Monday, January 02")
	w, _ := canvas.TextSize(h.title, today)
	x := (h.layout.Width() - w) / 2
	canvas.DrawText(t.Primary, h.title, image.Pt(x, 5), today, canvas.Paper)
}

// DrawLastUpdated right-aligns the current time just left of the battery icon.
func (h *Header) DrawLastUpdated(t *canvas.Target) {
	current := clock(h.now)
	timeW, _ := canvas.TextSize(h.body, current)
	x := h.layout.Width() - h.layout.Border() - timeW - h.batteryWidth() - 10
	canvas.DrawText(t.Primary, h.body, image.Pt(x, 17), current, canvas.Paper)
}

// DrawBatteryState draws the battery icon flush with the right border.
func (h *Header) DrawBatteryState(t *canvas.Target) {
	icon := SelectBatteryIcon(h.battery)
	plane := t.Primary
	if icon.Accent {
		plane = t.Accent
	}
	x := h.layout.Width() - h.layout.Border() - h.batteryWidth()
	canvas.DrawText(plane, h.icon, image.Pt(x, 15), icon.Glyph, icon.Color)
}

// Render draws the date, the update time and the battery icon.
func (h *Header) Render(t *canvas.Target) {
	h.DrawHeaderText(t)
	h.DrawLastUpdated(t)
	h.DrawBatteryState(t)
}

// batteryWidth is measured on one reference glyph so that the layout does
// not shift with the charge level.
func (h *Header) batteryWidth() int {
	w, _ := canvas.TextSize(h.icon, glyphBatteryQuarter)
	return w
}
