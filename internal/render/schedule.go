package render

import (
	"image"
	"strings"

	"golang.org/x/image/font"

	"organizer/internal/canvas"
	"organizer/internal/config"
	"organizer/internal/model"
)

const (
	scheduleWrapWidth = 27
	glyphCalendar     = "\uf133"
)

// Schedule draws the day's meetings into the left column.
type Schedule struct {
	meetings []model.Meeting
	box      Region

	title font.Face
	icon  font.Face
	body  font.Face
}

// NewSchedule resolves the schedule faces for box.
func NewSchedule(meetings []model.Meeting, box Region, faces FaceSource) (*Schedule, error) {
	s := &Schedule{meetings: meetings, box: box}
	var err error
	if s.title, err = faces.Face(config.RegionSchedule, config.FieldTitle); err != nil {
		return nil, err
	}
	if s.icon, err = faces.Face(config.RegionSchedule, config.FieldIcon); err != nil {
		return nil, err
	}
	if s.body, err = faces.Face(config.RegionSchedule, config.FieldBody); err != nil {
		return nil, err
	}
	return s, nil
}

// DrawHeader draws the centred calendar icon and title and returns the y
// where the list starts.
func (s *Schedule) DrawHeader(t *canvas.Target) int {
	x, y := s.box.Start.X, s.box.Start.Y
	iconW, _ := canvas.TextSize(s.icon, glyphCalendar)
	textW, textH := canvas.TextSize(s.title, "Schedule")
	off := centerOffset(x, s.box.End.X, textW, iconW)
	canvas.DrawText(t.Primary, s.icon, image.Pt(off, y+2), glyphCalendar, canvas.Ink)
	canvas.DrawText(t.Primary, s.title, image.Pt(off+iconW+headerGap, y), "Schedule", canvas.Ink)
	return y + textH + 10
}

// DrawSchedule stacks the meetings from startY down. Entries are not
// clipped to the column: a long schedule runs past the bottom of the box.
func (s *Schedule) DrawSchedule(t *canvas.Target, startY int) error {
	y := startY
	x, maxX := s.box.Start.X, s.box.End.X
	for i, m := range s.meetings {
		start, err := ParseTimestamp("meeting.startTime", m.StartTime)
		if err != nil {
			return err
		}
		prefix := clock(start) + " \u2014 "
		summary := strings.Join(Wrap(m.Summary, scheduleWrapWidth), "\n")

		y += 4
		prefixW, _ := canvas.TextSize(s.body, prefix)
		_, summaryH := canvas.MultilineSize(s.body, summary)
		canvas.DrawText(t.Primary, s.body, image.Pt(x+8, y), prefix, canvas.Ink)
		canvas.DrawMultiline(t.Primary, s.body, image.Pt(x+8+prefixW, y), summary, canvas.Ink)
		y += summaryH + 6

		if i < len(s.meetings)-1 {
			t.Primary.FillRect(x, y, maxX, y, canvas.Ink)
			y++
		}
	}
	return nil
}

// Render draws the header strip, then the meetings below it.
func (s *Schedule) Render(t *canvas.Target) error {
	return s.DrawSchedule(t, s.DrawHeader(t))
}
