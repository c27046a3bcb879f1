package battery

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"organizer/internal/config"
)

// Unknown is the level reported when no battery is present, i.e. the
// organizer runs on mains.
const Unknown = -1.0

// Status is one battery reading, as served by the status API.
type Status struct {
	// Percent is the charge in 0-100, or Unknown.
	Percent float64 `json:"percent"`
	// VoltageMv is the battery voltage in millivolts, 0 if the source does
	// not report it.
	VoltageMv int    `json:"voltage_mv,omitempty"`
	Source    string `json:"source"`
}

// Reader abstracts how battery information is obtained: the PiSugar power
// manager daemon, the controller's registers over I2C, or nothing at all.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// Alarm programs the real-time clock that powers the board back on.
type Alarm interface {
	SetAlarm(ctx context.Context, at time.Time) error
}

// Level reads r and collapses every failure to Unknown. A board without a
// battery answers garbage or nothing, so a failed read means mains power.
func Level(ctx context.Context, r Reader) float64 {
	st, err := r.Read(ctx)
	if err != nil {
		return Unknown
	}
	return st.Percent
}

// New builds the reader and alarm for the configured source. Sources
// without an RTC get an alarm that does nothing.
func New(cfg config.BatteryConfig) (Reader, Alarm) {
	switch cfg.Source {
	case "pisugar":
		p := NewPiSugar(cfg.Address)
		return p, p
	case "i2c":
		return NewI2CReader("", DefaultI2CAddr), noAlarm{}
	default:
		return NewStaticReader(Unknown), noAlarm{}
	}
}

type noAlarm struct{}

func (noAlarm) SetAlarm(context.Context, time.Time) error { return nil }

// staticReader always reports the same level.
type staticReader struct {
	level float64
}

// NewStaticReader is used when no battery is fitted and in tests.
func NewStaticReader(level float64) Reader {
	return &staticReader{level: level}
}

func (s *staticReader) Read(context.Context) (Status, error) {
	return Status{Percent: s.level, Source: "static"}, nil
}

// DefaultI2CAddr is the PiSugar 3 controller's 7-bit address.
const DefaultI2CAddr = 0x57

// i2cReader talks to the battery controller directly. The PiSugar 3
// exposes:
//   - 0x22 (high), 0x23 (low): battery voltage in millivolts
//   - 0x2A: battery percentage (0-100)
type i2cReader struct {
	busName string
	addr    uint16
}

// NewI2CReader constructs an I2C-backed Reader.
//
//   - busName: periph.io bus name, "" for the default (/dev/i2c-1 on a Pi)
//   - addr:    7-bit address of the controller
//
// Nothing is opened until Read.
func NewI2CReader(busName string, addr uint16) Reader {
	return &i2cReader{busName: busName, addr: addr}
}

func (r *i2cReader) Read(_ context.Context) (Status, error) {
	if runtime.GOOS != "linux" {
		return Status{}, errors.New("battery: i2c reader unavailable on this platform")
	}
	if _, err := host.Init(); err != nil {
		return Status{}, fmt.Errorf("battery: host init: %w", err)
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		return Status{}, fmt.Errorf("battery: open i2c bus: %w", err)
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}
	readReg := func(reg byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{reg}, buf); err != nil {
			return 0, fmt.Errorf("battery: read register %#02x: %w", reg, err)
		}
		return buf[0], nil
	}

	high, err := readReg(0x22)
	if err != nil {
		return Status{}, err
	}
	low, err := readReg(0x23)
	if err != nil {
		return Status{}, err
	}
	pct, err := readReg(0x2A)
	if err != nil {
		return Status{}, err
	}

	return Status{
		Percent:   float64(min(pct, 100)),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
		Source:    "i2c",
	}, nil
}
