package render

import (
	"errors"
	"image"
	"io"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"organizer/internal/canvas"
	"organizer/internal/config"
	"organizer/internal/log"
)

// recordingFace is basicfont's 7x13 face that remembers every rune it was
// asked to draw. Every rune measures 7 pixels wide and 13 high.
type recordingFace struct {
	font.Face
	drawn []rune
}

func (f *recordingFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	f.drawn = append(f.drawn, r)
	return f.Face.Glyph(dot, r)
}

// testFaces hands out one recordingFace per region and field.
type testFaces struct {
	faces map[string]*recordingFace
	fail  map[string]error
}

func newTestFaces() *testFaces {
	return &testFaces{faces: map[string]*recordingFace{}, fail: map[string]error{}}
}

func (s *testFaces) Face(region, field string) (font.Face, error) {
	key := region + "." + field
	if err := s.fail[key]; err != nil {
		return nil, err
	}
	f, ok := s.faces[key]
	if !ok {
		f = &recordingFace{Face: basicfont.Face7x13}
		s.faces[key] = f
	}
	return f, nil
}

func (s *testFaces) drawn(region, field string) []rune {
	if f, ok := s.faces[region+"."+field]; ok {
		return f.drawn
	}
	return nil
}

var (
	testGeometry = Geometry{Width: 800, Height: 480}
	testDims     = config.Dimensions{
		ColumnWidth:     393,
		ColumnHeight:    340,
		DividerWidth:    4,
		HeaderHeight:    50,
		SideBorderWidth: 5,
	}
)

func testLogger() *log.Logger {
	return log.New(log.Options{Out: io.Discard, Level: log.LevelError})
}

// fullRow reports whether every pixel of row y between x0 and x1 is ink.
func fullRow(p *canvas.Plane, y, x0, x1 int) bool {
	for x := x0; x <= x1; x++ {
		if p.Bit(x, y) != canvas.Ink {
			return false
		}
	}
	return true
}

func TestRegionRect(t *testing.T) {
	r := Region{Start: image.Pt(2, 3), End: image.Pt(5, 3)}
	got := r.Rect()
	if got.Dx() != 4 || got.Dy() != 1 {
		t.Errorf("Rect() = %v, want 4x1", got)
	}
}

func TestCenterOffset(t *testing.T) {
	tests := []struct {
		name         string
		x, maxX      int
		textW, iconW int
		want         int
	}{
		{name: "schedule strip", x: 10, maxX: 388, textW: 56, iconW: 7, want: 162},
		{name: "exact fit", x: 0, maxX: 30, textW: 10, iconW: 10, want: 0},
		{name: "odd slack rounds down", x: 0, maxX: 31, textW: 10, iconW: 10, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := centerOffset(tt.x, tt.maxX, tt.textW, tt.iconW)
			if got != tt.want {
				t.Fatalf("centerOffset = %d, want %d", got, tt.want)
			}
			if got < tt.x || got+tt.iconW+headerGap+tt.textW > tt.maxX {
				t.Errorf("row [%d, %d] leaves box [%d, %d]", got, got+tt.iconW+headerGap+tt.textW, tt.x, tt.maxX)
			}
		})
	}
}

func TestFaceErrorsPropagate(t *testing.T) {
	boom := errors.New("no such face")
	faces := newTestFaces()
	faces.fail[config.RegionFooter+"."+config.FieldIcon] = boom

	_, err := New(Input{Geometry: testGeometry, Dimensions: testDims}, faces, WithLogger(testLogger()))
	if !errors.Is(err, boom) {
		t.Fatalf("New error = %v, want %v", err, boom)
	}
}
