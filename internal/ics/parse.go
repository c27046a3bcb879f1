package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"organizer/internal/log"
)

// Event is a VEVENT reduced to what the schedule needs. Recurrences are
// kept unexpanded.
type Event struct {
	SourceID string

	UID string
	Seq int

	Summary  string
	Location string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, set on overrides only
}

// IsOverride reports whether e replaces one instance of a recurring event.
func (e Event) IsOverride() bool { return e.Recurrence != nil }

// Parse reads one calendar. Events that cannot be read are logged and
// skipped; only an unreadable calendar is an error. Floating times are
// read in loc.
func Parse(sourceID string, body []byte, loc *time.Location) ([]Event, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(sourceID, comp, loc)
		if err != nil {
			log.Error("ics vevent skipped", err, "id", sourceID)
			continue
		}
		events = append(events, ev)
	}

	log.Debug("ics parsed", "id", sourceID, "event_count", len(events))
	return events, nil
}

func parseVEvent(sourceID string, ve *ical.VEvent, loc *time.Location) (Event, error) {
	out := Event{SourceID: sourceID}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			out.Seq = n
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDate(dtstart)

	if out.AllDay {
		start, err := parseTime(dtstart.Value, loc)
		if err != nil {
			return out, err
		}
		out.Start = start
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if end, err := parseTime(p.Value, loc); err == nil {
				out.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		out.Start = start
		if end, err := ve.GetEndAt(); err == nil {
			out.End = end
		}
	}
	if !out.End.After(out.Start) {
		if out.AllDay {
			out.End = out.Start.AddDate(0, 0, 1)
		} else {
			out.End = out.Start
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseTime(part, tzid(p, loc)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseTime(p.Value, tzid(p, loc)); err == nil {
			out.Recurrence = &t
		}
	}

	return out, nil
}

func isDate(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// tzid resolves a TZID parameter, falling back to def.
func tzid(p *ical.IANAProperty, def *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if l, err := time.LoadLocation(tzs[0]); err == nil {
			return l
		}
	}
	return def
}

// parseTime reads a DATE or DATE-TIME value without relying on its params.
func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
