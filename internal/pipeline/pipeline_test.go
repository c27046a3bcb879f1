package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"organizer/internal/battery"
	"organizer/internal/config"
	"organizer/internal/epd"
	"organizer/internal/httpcache"
	"organizer/internal/log"
	"organizer/internal/model"
	"organizer/internal/render"
	"organizer/internal/snapshot"
)

type basicFaces struct{}

func (basicFaces) Face(string, string) (font.Face, error) { return basicfont.Face7x13, nil }

type fakeLoader struct {
	payload snapshot.Payload
	err     error
}

func (f *fakeLoader) Load(context.Context) (snapshot.Payload, error) { return f.payload, f.err }

type fakeAlarm struct{ at []time.Time }

func (a *fakeAlarm) SetAlarm(_ context.Context, at time.Time) error {
	a.at = append(a.at, at)
	return nil
}

type fakeAlerter struct{ levels []float64 }

func (a *fakeAlerter) LowBattery(_ context.Context, level float64) error {
	a.levels = append(a.levels, level)
	return nil
}

type fakeCalendars map[string]string

func (f fakeCalendars) Fetch(_ context.Context, req httpcache.Request) (httpcache.Result, error) {
	body, ok := f[req.URL]
	if !ok {
		return httpcache.Result{}, errors.New("not found")
	}
	return httpcache.Result{Body: []byte(strings.ReplaceAll(body, "\n", "\r\n"))}, nil
}

var (
	testNow     = time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)
	testUpdated = time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
)

type harness struct {
	p       *Pipeline
	cfg     *config.Config
	loader  *fakeLoader
	panel   *epd.Null
	alarm   *fakeAlarm
	alerter *fakeAlerter
	dir     string
}

func newHarness(t *testing.T, level float64) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.StateDir = dir
	cfg.Battery.RTCWake = true

	h := &harness{
		cfg: cfg,
		loader: &fakeLoader{payload: snapshot.Payload{
			Updated: testUpdated,
			Snapshot: model.Snapshot{
				Schedule: []model.Meeting{{StartTime: "2024-05-06T11:00:00Z", EndTime: "2024-05-06T12:00:00Z", Summary: "Review"}},
				Tasks:    []model.Task{{Summary: "Water plants"}},
			},
		}},
		panel:   &epd.Null{},
		alarm:   &fakeAlarm{},
		alerter: &fakeAlerter{},
		dir:     dir,
	}
	h.p = New(Options{
		Config:   cfg,
		Snapshot: h.loader,
		State:    snapshot.NewState(dir),
		Faces:    basicFaces{},
		Battery:  battery.NewStaticReader(level),
		Alarm:    h.alarm,
		Panel:    func() (epd.Panel, error) { return h.panel, nil },
		Alerter:  h.alerter,
		DumpDir:  dir,
		Logger:   log.New(log.Options{Out: io.Discard}),
		Now:      func() time.Time { return testNow },
	})
	return h
}

func TestRunDrawsAndRecords(t *testing.T) {
	h := newHarness(t, 64)

	res, err := h.p.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Rendered || h.panel.Frames() != 1 {
		t.Fatalf("rendered = %v, frames = %d", res.Rendered, h.panel.Frames())
	}
	if res.Battery != 64 || !res.RenderedAt.Equal(testNow) {
		t.Errorf("res = %+v", res)
	}
	if want := time.Date(2024, 5, 6, 11, 55, 0, 0, time.UTC); !res.NextWake.Equal(want) || len(h.alarm.at) != 1 {
		t.Errorf("NextWake = %v, alarms %v", res.NextWake, h.alarm.at)
	}
	for _, name := range []string{"black.bin", "red.bin", "preview.png", "last_rendered.txt"} {
		if _, err := os.Stat(filepath.Join(h.dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if last, ok := h.p.Last(); !ok || last.Snapshot.Tasks[0].Summary != "Water plants" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
	if len(h.alerter.levels) != 1 || h.alerter.levels[0] != 64 {
		t.Errorf("alerter saw %v", h.alerter.levels)
	}
}

func TestRunSkipsUnchangedPayload(t *testing.T) {
	h := newHarness(t, battery.Unknown)
	if _, err := h.p.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	res, err := h.p.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rendered || h.panel.Frames() != 1 {
		t.Errorf("unchanged payload drew again: rendered %v, frames %d", res.Rendered, h.panel.Frames())
	}
	if len(h.alarm.at) != 2 {
		t.Errorf("wake alarm set %d times, want 2", len(h.alarm.at))
	}
	if len(h.alerter.levels) != 2 {
		t.Errorf("battery checked on %d passes, want 2", len(h.alerter.levels))
	}

	if res, err := h.p.Run(context.Background(), true); err != nil || !res.Rendered {
		t.Errorf("forced run: %+v, %v", res, err)
	}

	h.loader.payload.Updated = testUpdated.Add(time.Minute)
	if res, err := h.p.Run(context.Background(), false); err != nil || !res.Rendered {
		t.Errorf("newer payload: %+v, %v", res, err)
	}
	if h.panel.Frames() != 3 {
		t.Errorf("frames = %d, want 3", h.panel.Frames())
	}
}

func TestRunAlertsOnSkippedPass(t *testing.T) {
	h := newHarness(t, 64)
	if _, err := h.p.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	h.p.opts.Battery = battery.NewStaticReader(12)
	res, err := h.p.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rendered || res.Battery != 12 {
		t.Errorf("res = %+v", res)
	}
	if n := len(h.alerter.levels); n != 2 || h.alerter.levels[n-1] != 12 {
		t.Errorf("alerter saw %v, want the low reading from the skipped pass", h.alerter.levels)
	}
}

func TestRunMergesCalendars(t *testing.T) {
	h := newHarness(t, battery.Unknown)
	h.cfg.ICS = []config.ICSConfig{{ID: "work", URL: "https://cal.example/work.ics"}}
	h.p.opts.Calendars = fakeCalendars{"https://cal.example/work.ics": `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//organizer//test//EN
BEGIN:VEVENT
UID:standup
SUMMARY:Standup
DTSTART:20240506T100000Z
DTEND:20240506T101500Z
END:VEVENT
END:VCALENDAR
`}

	for i := range 2 {
		res, err := h.p.Run(context.Background(), false)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Rendered {
			t.Fatalf("pass %d skipped with calendars configured", i)
		}
		var got []string
		for _, m := range res.Snapshot.Schedule {
			got = append(got, m.Summary)
		}
		if strings.Join(got, ",") != "Standup,Review" {
			t.Errorf("schedule = %v", got)
		}
	}
}

func TestRunErrors(t *testing.T) {
	h := newHarness(t, battery.Unknown)
	h.loader.err = errors.New("bucket unreachable")
	if _, err := h.p.Run(context.Background(), false); err == nil {
		t.Fatal("load error swallowed")
	}

	h.loader.err = nil
	h.loader.payload.Snapshot.Schedule = []model.Meeting{{StartTime: "nine-ish", Summary: "Broken"}}
	_, err := h.p.Run(context.Background(), false)
	if !errors.Is(err, render.ErrMalformedTimestamp) {
		t.Fatalf("Run = %v, want ErrMalformedTimestamp", err)
	}
	if h.panel.Frames() != 0 {
		t.Error("partial frame reached the panel")
	}
	if !snapshot.NewState(h.dir).LastRendered().IsZero() {
		t.Error("failed pass marked as rendered")
	}
	if _, ok := h.p.Last(); ok {
		t.Error("failed pass recorded as last")
	}
}

func TestRunBusy(t *testing.T) {
	h := newHarness(t, battery.Unknown)
	h.p.run.Lock()
	defer h.p.run.Unlock()
	if _, err := h.p.Run(context.Background(), true); !errors.Is(err, ErrBusy) {
		t.Errorf("Run = %v, want ErrBusy", err)
	}
}
