// Package epd drives the Waveshare 7.5" B V2 tri-color e-paper panel.
//
// Two drivers are provided: a pure Go one speaking SPI through periph.io,
// and a cgo wrapper around the Waveshare C SDK for boards where that SDK is
// already installed. Both take the packed planes produced by
// convert.Buffers.
package epd

import (
	"context"
	"fmt"
	"sync"
)

// Panel is one display session: Init, any number of Display or Clear
// calls, then Sleep. Close releases the bus.
type Panel interface {
	Init(ctx context.Context) error
	Display(ctx context.Context, black, red []byte) error
	Clear(ctx context.Context) error
	Sleep(ctx context.Context) error
	Close() error
}

// Open returns the panel for a display.driver config value.
func Open(driver string) (Panel, error) {
	switch driver {
	case "spi":
		d, err := OpenSPI(SPIConfig{})
		if err != nil {
			return nil, err
		}
		return d, nil
	case "cgo":
		return &CDriver{}, nil
	case "none", "":
		return &Null{}, nil
	default:
		return nil, fmt.Errorf("epd: unknown driver %q", driver)
	}
}

// Null is a panel that only remembers what it was sent. It is used when no
// display is attached.
type Null struct {
	mu     sync.Mutex
	frames int
	black  []byte
	red    []byte
}

func (n *Null) Init(context.Context) error { return nil }

func (n *Null) Display(_ context.Context, black, red []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.frames++
	n.black = append(n.black[:0], black...)
	n.red = append(n.red[:0], red...)
	return nil
}

func (n *Null) Clear(context.Context) error { return nil }
func (n *Null) Sleep(context.Context) error { return nil }
func (n *Null) Close() error                { return nil }

// Frames reports how many frames were displayed.
func (n *Null) Frames() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frames
}
