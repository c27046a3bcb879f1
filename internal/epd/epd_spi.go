package epd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"organizer/internal/convert"
)

// BCM pin numbers of the Waveshare e-Paper HAT. Chip select is left to
// spidev (CE0).
const (
	bcmRST  = 17
	bcmDC   = 25
	bcmBUSY = 24
	bcmPWR  = 18
)

// Controller commands used by the 7.5" B V2 sequences.
const (
	cmdPanelSetting   = 0x00
	cmdPowerSetting   = 0x01
	cmdPowerOff       = 0x02
	cmdPowerOn        = 0x04
	cmdDeepSleep      = 0x07
	cmdDataStart1     = 0x10
	cmdDisplayRefresh = 0x12
	cmdDataStart2     = 0x13
	cmdDualSPI        = 0x15
	cmdVCOMInterval   = 0x50
	cmdTCON           = 0x60
	cmdResolution     = 0x61
	cmdGetStatus      = 0x71
)

// ErrBusyTimeout is returned when the controller stays busy past
// SPIConfig.BusyTimeout.
var ErrBusyTimeout = errors.New("epd: panel busy timeout")

// SPIConfig tunes the pure Go driver. Zero values pick the HAT defaults.
type SPIConfig struct {
	Port        string
	Frequency   physic.Frequency
	BusyTimeout time.Duration
}

// bus is the part of spi.Conn the driver needs.
type bus interface {
	Tx(w, r []byte) error
}

type outPin interface {
	Out(l gpio.Level) error
}

type inPin interface {
	Read() gpio.Level
}

// SPIDriver is the pure Go equivalent of the Waveshare DEV_* layer plus the
// EPD_7IN5B_V2_* sequences.
type SPIDriver struct {
	bus   bus
	chunk int

	rst  outPin
	dc   outPin
	pwr  outPin
	busy inPin

	closer      io.Closer
	busyTimeout time.Duration
	sleep       func(time.Duration)
}

// OpenSPI initializes periph.io, opens the SPI port and claims the HAT's
// GPIO pins. The panel itself is not touched until Init.
func OpenSPI(cfg SPIConfig) (*SPIDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("epd: periph host init failed: %w", err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("epd: failed to open SPI port: %w", err)
	}
	freq := cfg.Frequency
	if freq == 0 {
		freq = 4 * physic.MegaHertz
	}
	c, err := port.Connect(freq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("epd: failed to connect SPI: %w", err)
	}

	pin := func(num int) (gpio.PinIO, error) {
		name := fmt.Sprintf("GPIO%d", num)
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("epd: gpio %s not found", name)
		}
		return p, nil
	}
	var pins [4]gpio.PinIO
	for i, num := range []int{bcmRST, bcmDC, bcmPWR, bcmBUSY} {
		if pins[i], err = pin(num); err != nil {
			_ = port.Close()
			return nil, err
		}
	}
	if err := pins[3].In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("epd: busy pin: %w", err)
	}

	d := newSPIDriver(c, pins[0], pins[1], pins[2], pins[3])
	d.closer = port
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		d.chunk = l.MaxTxSize()
	}
	if cfg.BusyTimeout > 0 {
		d.busyTimeout = cfg.BusyTimeout
	}
	return d, nil
}

func newSPIDriver(b bus, rst, dc, pwr outPin, busy inPin) *SPIDriver {
	return &SPIDriver{
		bus:         b,
		chunk:       4096,
		rst:         rst,
		dc:          dc,
		pwr:         pwr,
		busy:        busy,
		busyTimeout: 40 * time.Second,
		sleep:       time.Sleep,
	}
}

// Init powers the panel up and loads the 800x480 red/black configuration.
func (d *SPIDriver) Init(ctx context.Context) error {
	if err := d.pwr.Out(gpio.High); err != nil {
		return fmt.Errorf("epd: power pin: %w", err)
	}
	if err := d.reset(); err != nil {
		return err
	}

	if err := d.run([]step{
		{cmdPowerSetting, []byte{0x07, 0x07, 0x3F, 0x3F}},
		{cmdPowerOn, nil},
	}); err != nil {
		return err
	}
	d.sleep(100 * time.Millisecond)
	if err := d.waitIdle(ctx); err != nil {
		return err
	}

	return d.run([]step{
		{cmdPanelSetting, []byte{0x0F}},
		{cmdResolution, []byte{0x03, 0x20, 0x01, 0xE0}},
		{cmdDualSPI, []byte{0x00}},
		{cmdVCOMInterval, []byte{0x11, 0x07}},
		{cmdTCON, []byte{0x22}},
	})
}

// Display sends both planes and refreshes. The controller's red memory
// takes a set bit as red, so the red plane is inverted on the way out.
func (d *SPIDriver) Display(ctx context.Context, black, red []byte) error {
	if len(black) != convert.EPDPlaneSize || len(red) != convert.EPDPlaneSize {
		return fmt.Errorf("epd: invalid buffer size, expected %d bytes per plane", convert.EPDPlaneSize)
	}
	inverted := make([]byte, len(red))
	for i, b := range red {
		inverted[i] = ^b
	}
	if err := d.command(cmdDataStart1); err != nil {
		return err
	}
	if err := d.data(black); err != nil {
		return err
	}
	if err := d.command(cmdDataStart2); err != nil {
		return err
	}
	if err := d.data(inverted); err != nil {
		return err
	}
	return d.refresh(ctx)
}

// Clear turns the whole panel white.
func (d *SPIDriver) Clear(ctx context.Context) error {
	white := make([]byte, convert.EPDPlaneSize)
	for i := range white {
		white[i] = 0xFF
	}
	if err := d.command(cmdDataStart1); err != nil {
		return err
	}
	if err := d.data(white); err != nil {
		return err
	}
	if err := d.command(cmdDataStart2); err != nil {
		return err
	}
	if err := d.data(make([]byte, convert.EPDPlaneSize)); err != nil {
		return err
	}
	return d.refresh(ctx)
}

// Sleep powers the panel off and puts the controller in deep sleep. Init
// must be called again before the next frame.
func (d *SPIDriver) Sleep(ctx context.Context) error {
	if err := d.command(cmdPowerOff); err != nil {
		return err
	}
	if err := d.waitIdle(ctx); err != nil {
		return err
	}
	if err := d.command(cmdDeepSleep); err != nil {
		return err
	}
	if err := d.data([]byte{0xA5}); err != nil {
		return err
	}
	d.sleep(2 * time.Second)
	return d.pwr.Out(gpio.Low)
}

func (d *SPIDriver) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

func (d *SPIDriver) reset() error {
	for _, r := range []struct {
		level gpio.Level
		wait  time.Duration
	}{
		{gpio.High, 20 * time.Millisecond},
		{gpio.Low, 2 * time.Millisecond},
		{gpio.High, 20 * time.Millisecond},
	} {
		if err := d.rst.Out(r.level); err != nil {
			return fmt.Errorf("epd: reset pin: %w", err)
		}
		d.sleep(r.wait)
	}
	return nil
}

func (d *SPIDriver) refresh(ctx context.Context) error {
	if err := d.command(cmdDisplayRefresh); err != nil {
		return err
	}
	d.sleep(100 * time.Millisecond)
	return d.waitIdle(ctx)
}

// step is one command and its parameters.
type step struct {
	cmd  byte
	data []byte
}

func (d *SPIDriver) run(steps []step) error {
	for _, s := range steps {
		if err := d.command(s.cmd); err != nil {
			return err
		}
		if len(s.data) > 0 {
			if err := d.data(s.data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *SPIDriver) command(c byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("epd: dc pin: %w", err)
	}
	if err := d.bus.Tx([]byte{c}, nil); err != nil {
		return fmt.Errorf("epd: command %#02x: %w", c, err)
	}
	return nil
}

// data writes p in chunks no larger than the bus allows.
func (d *SPIDriver) data(p []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("epd: dc pin: %w", err)
	}
	for len(p) > 0 {
		n := min(len(p), d.chunk)
		if err := d.bus.Tx(p[:n], nil); err != nil {
			return fmt.Errorf("epd: data: %w", err)
		}
		p = p[n:]
	}
	return nil
}

// waitIdle polls the status register until BUSY goes high. Low means the
// controller is still working.
func (d *SPIDriver) waitIdle(ctx context.Context) error {
	deadline := time.Now().Add(d.busyTimeout)
	for {
		if err := d.command(cmdGetStatus); err != nil {
			return err
		}
		if d.busy.Read() == gpio.High {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return ErrBusyTimeout
		}
		d.sleep(5 * time.Millisecond)
	}
	d.sleep(200 * time.Millisecond)
	return nil
}
