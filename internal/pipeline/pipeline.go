// Package pipeline runs one refresh of the organizer: load the snapshot,
// merge today's calendars, read the battery, draw, and push the frame to the
// panel.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"organizer/internal/battery"
	"organizer/internal/canvas"
	"organizer/internal/config"
	"organizer/internal/convert"
	"organizer/internal/epd"
	"organizer/internal/ics"
	"organizer/internal/log"
	"organizer/internal/model"
	"organizer/internal/render"
	"organizer/internal/snapshot"
)

// ErrBusy is returned by Run while another pass is in progress.
var ErrBusy = errors.New("pipeline: a refresh is already running")

type Loader interface {
	Load(ctx context.Context) (snapshot.Payload, error)
}

type Alerter interface {
	LowBattery(ctx context.Context, level float64) error
}

// Options wires the collaborators of a pass. Calendars, Panel, Alerter,
// Alarm and DumpDir are optional.
type Options struct {
	Config    *config.Config
	Snapshot  Loader
	State     *snapshot.State
	Calendars ics.Fetcher
	Faces     render.FaceSource
	Battery   battery.Reader
	Alarm     battery.Alarm
	// Panel opens the display for one pass. Nil renders without a display.
	Panel   func() (epd.Panel, error)
	Alerter Alerter
	// DumpDir receives black.bin, red.bin and preview.png after each draw.
	DumpDir string
	Logger  *log.Logger
	Now     func() time.Time
}

// Result describes a finished pass.
type Result struct {
	Rendered bool `json:"rendered"`
	// Updated is when the snapshot payload last changed.
	Updated    time.Time      `json:"updated"`
	RenderedAt time.Time      `json:"rendered_at,omitzero"`
	Battery    float64        `json:"battery"`
	Snapshot   model.Snapshot `json:"snapshot"`
	NextWake   time.Time      `json:"next_wake,omitzero"`
}

type Pipeline struct {
	opts Options
	log  *log.Logger

	run    sync.Mutex
	passes atomic.Uint64

	mu   sync.RWMutex
	last *Result
}

func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Battery == nil {
		opts.Battery = battery.NewStaticReader(battery.Unknown)
	}
	return &Pipeline{opts: opts, log: opts.Logger}
}

// Last returns the most recent pass that drew a frame.
func (p *Pipeline) Last() (Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Result{}, false
	}
	return *p.last, true
}

// Run performs one pass. Unless force is set, the pass stops after loading
// when the snapshot has not changed since the last frame; calendars make
// every pass draw, since today's meetings move with the clock. The battery
// is checked and the wake alarm is set either way.
func (p *Pipeline) Run(ctx context.Context, force bool) (Result, error) {
	if !p.run.TryLock() {
		return Result{}, ErrBusy
	}
	defer p.run.Unlock()

	l := p.log.With("pass", p.passes.Add(1))
	cfg := p.opts.Config
	loc := cfg.Location()
	now := p.opts.Now().In(loc)

	payload, err := p.opts.Snapshot.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Updated: payload.Updated, Snapshot: payload.Snapshot}
	l.Info("snapshot loaded",
		"updated", payload.Updated.Format(time.RFC3339),
		"last_rendered", p.lastRendered(),
		"from_cache", payload.FromCache,
	)

	res.Battery = battery.Level(ctx, p.opts.Battery)

	gated := !force && len(cfg.ICS) == 0 && p.opts.State != nil
	if gated && !p.opts.State.NeedsRender(payload.Updated) {
		l.Info("payload has not been updated since last render")
		p.alert(ctx, l, res.Battery)
		res.NextWake = p.setWake(ctx, l, now)
		return res, nil
	}

	if len(cfg.ICS) > 0 && p.opts.Calendars != nil {
		meetings, errs := ics.Today(ctx, p.opts.Calendars, cfg.ICS, now, loc, cfg.ShowAllDay)
		if len(errs) > 0 {
			l.Error("some calendars were skipped", errors.Join(errs...), "count", len(errs))
		}
		res.Snapshot.Schedule = ics.Merge(res.Snapshot.Schedule, meetings, now)
	}

	d, err := render.New(render.Input{
		Snapshot:   res.Snapshot,
		Geometry:   render.Geometry{Width: cfg.Display.Width, Height: cfg.Display.Height},
		Dimensions: cfg.Dimensions(),
		Battery:    res.Battery,
	}, p.opts.Faces,
		render.WithLogger(l),
		render.WithClock(func() time.Time { return now }),
	)
	if err != nil {
		return Result{}, err
	}
	target, err := d.Render()
	if err != nil {
		return Result{}, err
	}

	if p.opts.DumpDir != "" {
		if err := convert.Dump(p.opts.DumpDir, target); err != nil {
			l.Error("dump failed", err, "dir", p.opts.DumpDir)
		}
	}

	if p.opts.Panel != nil {
		if err := p.display(ctx, l, target); err != nil {
			return Result{}, err
		}
	}

	if p.opts.State != nil {
		if err := p.opts.State.MarkRendered(payload.Updated); err != nil {
			l.Error("failed to record last render", err)
		}
	}
	res.Rendered = true
	res.RenderedAt = now

	p.alert(ctx, l, res.Battery)
	if res.Battery != battery.Unknown {
		l.Info("battery after refresh", "percent", res.Battery)
	}

	res.NextWake = p.setWake(ctx, l, now)

	p.mu.Lock()
	last := res
	p.last = &last
	p.mu.Unlock()
	return res, nil
}

func (p *Pipeline) display(ctx context.Context, l *log.Logger, target *canvas.Target) (err error) {
	black, red, err := convert.Buffers(target)
	if err != nil {
		return err
	}
	panel, err := p.opts.Panel()
	if err != nil {
		return fmt.Errorf("pipeline: open panel: %w", err)
	}
	defer func() {
		if cerr := panel.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	l.Info("Init screen")
	if err := panel.Init(ctx); err != nil {
		return err
	}
	l.Info("Begin painting")
	if err := panel.Display(ctx, black, red); err != nil {
		return err
	}
	l.Info("End painting")
	return panel.Sleep(ctx)
}

func (p *Pipeline) alert(ctx context.Context, l *log.Logger, level float64) {
	if p.opts.Alerter == nil {
		return
	}
	if err := p.opts.Alerter.LowBattery(ctx, level); err != nil {
		l.Error("low battery alert failed", err)
	}
}

func (p *Pipeline) setWake(ctx context.Context, l *log.Logger, now time.Time) time.Time {
	if p.opts.Alarm == nil || !p.opts.Config.Battery.RTCWake {
		return time.Time{}
	}
	next := battery.NextWake(now)
	if err := p.opts.Alarm.SetAlarm(ctx, next); err != nil {
		l.Error("failed to set next wake time", err, "at", next.Format(time.RFC3339))
		return time.Time{}
	}
	l.Info("next wake time set", "at", next.Format(time.RFC3339))
	return next
}

func (p *Pipeline) lastRendered() string {
	if p.opts.State == nil {
		return ""
	}
	t := p.opts.State.LastRendered()
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
