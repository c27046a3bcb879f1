// Package ics turns subscribed iCalendar feeds into schedule entries for
// the current day.
package ics

import (
	"context"
	"sort"
	"time"

	"organizer/internal/config"
	"organizer/internal/httpcache"
	"organizer/internal/log"
	"organizer/internal/model"
	"organizer/internal/render"
)

// Fetcher is satisfied by *httpcache.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, req httpcache.Request) (httpcache.Result, error)
}

// Today fetches every configured calendar and returns the meetings of the
// day containing now, in loc. A calendar that fails is logged and skipped;
// its error is returned alongside whatever the others produced.
func Today(ctx context.Context, f Fetcher, sources []config.ICSConfig, now time.Time, loc *time.Location, showAllDay bool) ([]model.Meeting, []error) {
	if loc == nil {
		loc = time.Local
	}
	var (
		events []Event
		errs   []error
	)
	for _, src := range sources {
		if src.URL == "" {
			continue
		}
		id := sourceID(src)
		res, err := f.Fetch(ctx, httpcache.Request{ID: id, URL: src.URL})
		if err != nil {
			log.Error("ics fetch failed", err, "id", id, "url", httpcache.RedactURL(src.URL))
			errs = append(errs, err)
			continue
		}
		parsed, err := Parse(id, res.Body, loc)
		if err != nil {
			log.Error("ics parse failed", err, "id", id)
			errs = append(errs, err)
			continue
		}
		events = append(events, parsed...)
	}

	n := now.In(loc)
	dayStart := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	res, err := Expand(events, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      dayStart,
		RangeEnd:        dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond),
	})
	if err != nil {
		return nil, append(errs, err)
	}
	return Meetings(res.Occurrences, showAllDay), errs
}

// Meetings converts occurrences to schedule entries. All-day occurrences are
// dropped unless showAllDay is set.
func Meetings(occ []Occurrence, showAllDay bool) []model.Meeting {
	out := make([]model.Meeting, 0, len(occ))
	for _, o := range occ {
		if o.AllDay && !showAllDay {
			continue
		}
		out = append(out, model.Meeting{
			StartTime: o.Start.Format(time.RFC3339),
			EndTime:   o.End.Format(time.RFC3339),
			Summary:   o.Summary,
		})
	}
	return out
}

// Merge appends extra to schedule and orders the result by start time.
// A start given as a bare clock time is placed on the day of now, in now's
// location. Entries whose start cannot be read keep their relative order at
// the end.
func Merge(schedule, extra []model.Meeting, now time.Time) []model.Meeting {
	if len(extra) == 0 {
		return schedule
	}
	out := make([]model.Meeting, 0, len(schedule)+len(extra))
	out = append(out, schedule...)
	out = append(out, extra...)

	key := func(m model.Meeting) (time.Time, bool) {
		t, err := render.ParseTimestamp("startTime", m.StartTime)
		if err != nil {
			return time.Time{}, false
		}
		if t.Year() == 0 {
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
		}
		return t, true
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := key(out[i])
		tj, okJ := key(out[j])
		if okI && okJ {
			return ti.Before(tj)
		}
		return okI && !okJ
	})
	return out
}

func sourceID(src config.ICSConfig) string {
	switch {
	case src.ID != "":
		return src.ID
	case src.Name != "":
		return src.Name
	default:
		return httpcache.RedactURL(src.URL)
	}
}
