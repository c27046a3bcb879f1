package render

import (
	"fmt"
	"time"

	"organizer/internal/canvas"
	"organizer/internal/config"
	"organizer/internal/log"
	"organizer/internal/model"
)

// Input is everything one render pass draws from.
type Input struct {
	Snapshot   model.Snapshot
	Geometry   Geometry
	Dimensions config.Dimensions
	// Battery is the charge in percent, or BatteryUnknown.
	Battery float64
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sends the pass's debug and progress lines to l.
func WithLogger(l Logger) Option {
	return func(d *Dashboard) { d.log = l }
}

// WithClock replaces time.Now as the source of the header date and time.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// Dashboard wires the layout and the four region renderers together. It is
// built for a single snapshot; Render may be called more than once and
// always produces the same planes.
type Dashboard struct {
	input Input
	log   Logger
	now   func() time.Time

	layout     *Layout
	header     *Header
	schedule   *Schedule
	actionList *ActionList
	footer     *Footer
}

// New resolves every face the renderers need, so a missing font fails here
// rather than halfway through a pass.
func New(input Input, faces FaceSource, opts ...Option) (*Dashboard, error) {
	d := &Dashboard{input: input, log: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}

	d.layout = NewLayout(input.Geometry, input.Dimensions)
	var err error
	if d.header, err = NewHeader(d.layout, faces, input.Battery, d.now()); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if d.schedule, err = NewSchedule(input.Snapshot.Schedule, d.layout.LeftColumn(), faces); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if d.actionList, err = NewActionList(input.Snapshot.Tasks, d.layout.RightColumn(), faces); err != nil {
		return nil, fmt.Errorf("action list: %w", err)
	}
	if d.footer, err = NewFooter(input.Snapshot.Weather, d.layout.Footer(), faces); err != nil {
		return nil, fmt.Errorf("footer: %w", err)
	}
	return d, nil
}

// Layout returns the regions the dashboard draws into.
func (d *Dashboard) Layout() *Layout { return d.layout }

// Render draws a fresh pair of planes. On error nothing is returned: a
// partly drawn target must never reach the panel.
func (d *Dashboard) Render() (*canvas.Target, error) {
	t := canvas.NewTarget(d.input.Geometry.Width, d.input.Geometry.Height)

	d.log.Info("Rendering layout", "width", t.Width(), "height", t.Height())
	d.layout.Draw(t)

	d.log.Info("Rendering header", "battery", d.input.Battery, "tier", SelectBatteryIcon(d.input.Battery).Tier.String())
	d.header.Render(t)

	d.log.Info("Rendering schedule", "meetings", len(d.input.Snapshot.Schedule))
	if err := d.schedule.Render(t); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	d.log.Info("Rendering action list", "tasks", len(d.input.Snapshot.Tasks))
	d.actionList.Render(t)

	d.log.Info("Rendering footer", "slots", len(d.input.Snapshot.Weather))
	for _, slot := range d.input.Snapshot.Weather {
		_, family := weatherFamily(slot.Condition)
		d.log.Debug("weather slot", "time", slot.Time, "condition", slot.Condition, "family", family)
	}
	if err := d.footer.Render(t); err != nil {
		return nil, fmt.Errorf("footer: %w", err)
	}
	return t, nil
}
