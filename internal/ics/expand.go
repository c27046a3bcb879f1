package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"organizer/internal/log"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted to. Nil
	// means time.Local.
	DisplayLocation *time.Location

	// RangeStart and RangeEnd bound the occurrences, both inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps runaway rules. Zero picks a default.
	MaxOccurrencesPerEvent int
}

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	SourceID string
	UID      string
	Summary  string
	Location string
	AllDay   bool
	Start    time.Time
	End      time.Time
}

type ExpandResult struct {
	Occurrences []Occurrence
	// TruncatedEvents lists UIDs that hit MaxOccurrencesPerEvent.
	TruncatedEvents []string
}

// Expand turns events into the occurrences overlapping the configured
// range. EXDATEs remove instances and RECURRENCE-ID overrides replace them.
// The result is sorted by start.
func Expand(events []Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("ics: range end is before range start")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	base := make(map[string][]Event)
	overrides := make(map[string][]Event)
	var order []string
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := base[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		base[ev.UID] = append(base[ev.UID], ev)
	}

	for _, uid := range order {
		truncated := false
		for _, ev := range base[uid] {
			occ, hitCap := expandEvent(ev, overrides[uid], cfg)
			truncated = truncated || hitCap
			result.Occurrences = append(result.Occurrences, occ...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			log.Error("ics occurrences truncated", errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		return result.Occurrences[i].Start.Before(result.Occurrences[j].Start)
	})
	return result, nil
}

func expandEvent(ev Event, overrides []Event, cfg ExpandConfig) ([]Occurrence, bool) {
	if ev.RawRRule == "" {
		return expandSingle(ev, overrides, cfg), false
	}
	return expandRecurring(ev, overrides, cfg)
}

func expandSingle(ev Event, overrides []Event, cfg ExpandConfig) []Occurrence {
	if o, ok := findOverride(overrides, ev.Start); ok {
		ev = o
	}
	if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []Occurrence{makeOccurrence(ev, ev.Start, ev.End, cfg.DisplayLocation)}
}

func expandRecurring(ev Event, overrides []Event, cfg ExpandConfig) ([]Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		log.Error("ics rrule unreadable", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Instances that started before the range but are still running count.
	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	var out []Occurrence
	for _, s := range starts {
		inst, start, end := ev, s, s.Add(dur)
		if o, ok := findOverride(overrides, s); ok {
			inst, start, end = o, o.Start, o.End
		}
		if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, makeOccurrence(inst, start, end, cfg.DisplayLocation))
	}
	return out, hitCap
}

// findOverride returns the override whose RECURRENCE-ID is start.
func findOverride(overrides []Event, start time.Time) (Event, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return Event{}, false
}

func makeOccurrence(ev Event, start, end time.Time, loc *time.Location) Occurrence {
	return Occurrence{
		SourceID: ev.SourceID,
		UID:      ev.UID,
		Summary:  ev.Summary,
		Location: ev.Location,
		AllDay:   ev.AllDay,
		Start:    start.In(loc),
		End:      end.In(loc),
	}
}

// overlaps treats [aStart, aEnd) as half-open, except that a zero-length
// event at the range start still counts.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.After(bEnd) {
		return false
	}
	if aEnd.Equal(aStart) {
		return !aStart.Before(bStart)
	}
	return aEnd.After(bStart)
}
