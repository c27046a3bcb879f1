package render

import (
	"fmt"
	"image"
	"slices"

	"golang.org/x/image/font"

	"organizer/internal/canvas"
	"organizer/internal/config"
	"organizer/internal/model"
)

const (
	glyphDroplet = "\uf043"

	// slotGap is the blank run on each side of a divider between slots.
	slotGap = 20
)

// weatherGlyphs maps condition codes to icons. Families are checked in
// order and the first match wins; 1087 appears under sleet and thunder, so
// it renders as sleet.
var weatherGlyphs = []struct {
	family string
	codes  []int
	glyph  string
}{
	{"clear", []int{1000}, "\uf185"},
	{"partly cloudy", []int{1003}, "\uf6c4"},
	{"cloudy", []int{1006, 1009}, "\uf0c2"},
	{"fog", []int{1030, 1135, 1147}, "\uf75f"},
	{"light rain", []int{1063, 1150, 1153, 1180, 1183, 1186, 1189, 1240}, "\uf73d"},
	{"heavy rain", []int{1192, 1195, 1243, 1246}, "\uf740"},
	{"snow", []int{1066, 1114, 1117, 1210, 1213, 1216, 1219, 1222, 1225, 1255, 1258}, "\uf2dc"},
	{"sleet", []int{1069, 1072, 1087, 1168, 1171, 1198, 1201, 1204, 1207, 1237, 1249, 1252, 1261, 1264}, "\uf7ad"},
	{"thunder", []int{1087, 1273, 1276, 1279, 1282}, "\uf0e7"},
}

// WeatherGlyph returns the icon for a condition code, or "" when the code is
// not in the table.
func WeatherGlyph(code int) string {
	glyph, _ := weatherFamily(code)
	return glyph
}

func weatherFamily(code int) (glyph, family string) {
	for _, g := range weatherGlyphs {
		if slices.Contains(g.codes, code) {
			return g.glyph, g.family
		}
	}
	return "", "unknown"
}

// Footer draws the weather strip.
type Footer struct {
	weather []model.WeatherSlot
	box     Region

	title font.Face
	icon  font.Face
	body  font.Face
}

// NewFooter resolves the footer faces for box.
func NewFooter(weather []model.WeatherSlot, box Region, faces FaceSource) (*Footer, error) {
	f := &Footer{weather: weather, box: box}
	var err error
	if f.title, err = faces.Face(config.RegionFooter, config.FieldTitle); err != nil {
		return nil, err
	}
	if f.icon, err = faces.Face(config.RegionFooter, config.FieldIcon); err != nil {
		return nil, err
	}
	if f.body, err = faces.Face(config.RegionFooter, config.FieldBody); err != nil {
		return nil, err
	}
	return f, nil
}

// DrawWeather renders one slot into its own plane, sized to its content and
// drawn paper on ink: the time centred on top, then icon, temperature,
// droplet and precipitation in one row.
func (f *Footer) DrawWeather(slot model.WeatherSlot) (*canvas.Plane, error) {
	at, err := ParseTimestamp("weather.time", slot.Time)
	if err != nil {
		return nil, err
	}
	label := clock(at)
	icon := WeatherGlyph(slot.Condition)
	temperature := fmt.Sprintf("%d\u00b0 | ", slot.Temperature)
	precipitation := fmt.Sprintf("%d%%", slot.Precipitation)

	timeW, timeH := canvas.TextSize(f.title, label)
	iconW, iconH := canvas.TextSize(f.icon, icon)
	tempW, tempH := canvas.TextSize(f.body, temperature)
	dropW, dropH := canvas.TextSize(f.icon, glyphDroplet)
	precipW, precipH := canvas.TextSize(f.body, precipitation)

	width := iconW + tempW + dropW + 4 + precipW
	height := timeH + 5 + max(iconH, tempH, dropH, precipH) + 2
	p := canvas.NewPlane(width, height, canvas.Ink)

	canvas.DrawText(p, f.title, image.Pt((width-timeW)/2, 0), label, canvas.Paper)
	x, y := 0, timeH+5
	canvas.DrawText(p, f.icon, image.Pt(x, y+2), icon, canvas.Paper)
	x += iconW
	canvas.DrawText(p, f.body, image.Pt(x, y), temperature, canvas.Paper)
	x += tempW
	canvas.DrawText(p, f.icon, image.Pt(x, y+2), glyphDroplet, canvas.Paper)
	x += dropW + 4
	canvas.DrawText(p, f.body, image.Pt(x, y), precipitation, canvas.Paper)
	return p, nil
}

// StripLayout is where the slot planes and the dividers between them go.
type StripLayout struct {
	Width     int
	Start     int
	Positions []int
	Dividers  []int
}

// LayoutStrip places slots of the given widths side by side, centred on
// maxX/2, with slotGap blank pixels, a one pixel divider and slotGap more
// between neighbours.
func LayoutStrip(widths []int, maxX int) StripLayout {
	var s StripLayout
	for i, w := range widths {
		s.Width += w
		if i > 0 {
			s.Width += 2*slotGap + 1
		}
	}
	s.Start = (maxX - s.Width) / 2
	x := s.Start
	for i, w := range widths {
		if i > 0 {
			s.Dividers = append(s.Dividers, x+slotGap)
			x += 2*slotGap + 1
		}
		s.Positions = append(s.Positions, x)
		x += w
	}
	return s
}

// DrawWeatherForecast pastes every slot onto the primary plane along the
// top of the footer box, with paper dividers running to its bottom edge.
func (f *Footer) DrawWeatherForecast(t *canvas.Target) error {
	planes := make([]*canvas.Plane, 0, len(f.weather))
	widths := make([]int, 0, len(f.weather))
	for _, slot := range f.weather {
		p, err := f.DrawWeather(slot)
		if err != nil {
			return err
		}
		planes = append(planes, p)
		widths = append(widths, p.Width())
	}

	y, maxY := f.box.Start.Y, f.box.End.Y
	strip := LayoutStrip(widths, f.box.End.X)
	for _, x := range strip.Dividers {
		t.Primary.FillRect(x, y, x, maxY, canvas.Paper)
	}
	for i, p := range planes {
		t.Primary.Paste(p, image.Pt(strip.Positions[i], y))
	}
	return nil
}

func (f *Footer) Render(t *canvas.Target) error {
	return f.DrawWeatherForecast(t)
}
