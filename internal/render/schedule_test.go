package render

import (
	"errors"
	"slices"
	"testing"

	"organizer/internal/canvas"
	"organizer/internal/config"
	"organizer/internal/model"
)

func renderSchedule(t *testing.T, meetings []model.Meeting) (*canvas.Target, *testFaces, error) {
	t.Helper()
	faces := newTestFaces()
	l := NewLayout(testGeometry, testDims)
	s, err := NewSchedule(meetings, l.LeftColumn(), faces)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	target := canvas.NewTarget(testGeometry.Width, testGeometry.Height)
	return target, faces, s.Render(target)
}

// ruleRows returns the rows of box that are ink from edge to edge.
func ruleRows(p *canvas.Plane, box Region) []int {
	var rows []int
	for y := box.Start.Y; y <= box.End.Y; y++ {
		if fullRow(p, y, box.Start.X, box.End.X) {
			rows = append(rows, y)
		}
	}
	return rows
}

func TestScheduleSeparators(t *testing.T) {
	left := NewLayout(testGeometry, testDims).LeftColumn()

	tests := []struct {
		name     string
		meetings []model.Meeting
		rules    []int
	}{
		{name: "none", meetings: nil, rules: nil},
		{
			name:     "single",
			meetings: []model.Meeting{{StartTime: "2024-05-06T09:00:00Z", Summary: "Standup"}},
			rules:    nil,
		},
		{
			// header ends at 83; +4, one 13px line, +6.
			name: "two",
			meetings: []model.Meeting{
				{StartTime: "2024-05-06T09:00:00Z", Summary: "Standup"},
				{StartTime: "2024-05-06T11:00:00Z", Summary: "Design review"},
			},
			rules: []int{106},
		},
		{
			// three wrapped lines: 3*13 + 2*4 = 47.
			name: "wrapped first",
			meetings: []model.Meeting{
				{StartTime: "2024-05-06T09:00:00Z", Summary: "Long planning session with many words that must wrap across multiple lines"},
				{StartTime: "2024-05-06T11:00:00Z", Summary: "Lunch"},
				{StartTime: "2024-05-06T13:00:00Z", Summary: "1:1"},
			},
			rules: []int{140, 164},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, _, err := renderSchedule(t, tt.meetings)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got := ruleRows(target.Primary, left); !slices.Equal(got, tt.rules) {
				t.Errorf("separator rows = %v, want %v", got, tt.rules)
			}
		})
	}
}

func TestScheduleText(t *testing.T) {
	_, faces, err := renderSchedule(t, []model.Meeting{
		{StartTime: "2024-05-06T09:05:00+02:00", Summary: "Standup"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := string(faces.drawn(config.RegionSchedule, config.FieldIcon)); got != "\uf133" {
		t.Errorf("icon = %q", got)
	}
	if got := string(faces.drawn(config.RegionSchedule, config.FieldTitle)); got != "Schedule" {
		t.Errorf("title = %q", got)
	}
	if got := string(faces.drawn(config.RegionSchedule, config.FieldBody)); got != "09:05 \u2014 Standup" {
		t.Errorf("body = %q", got)
	}
}

func TestScheduleMalformedStart(t *testing.T) {
	_, _, err := renderSchedule(t, []model.Meeting{
		{StartTime: "2024-05-06T09:00:00Z", Summary: "Standup"},
		{StartTime: "after lunch", Summary: "Review"},
	})
	if !errors.Is(err, ErrMalformedTimestamp) {
		t.Fatalf("err = %v, want ErrMalformedTimestamp", err)
	}
	var me *MalformedTimestampError
	if !errors.As(err, &me) || me.Value != "after lunch" {
		t.Errorf("err = %#v", err)
	}
}
