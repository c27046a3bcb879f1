//go:build !(linux && arm && cgo)

package epd

import (
	"context"
	"errors"
)

// ErrCDriverUnavailable is returned when drawing through the CDriver on builds
// without the Waveshare C SDK.
var ErrCDriverUnavailable = errors.New("epd(cgo): C driver is only available on linux/arm with cgo enabled")

// CDriver is a stand-in so the package builds everywhere; use the "spi"
// driver on these targets.
type CDriver struct{}

func (d *CDriver) Init(context.Context) error                    { return ErrCDriverUnavailable }
func (d *CDriver) Clear(context.Context) error                   { return ErrCDriverUnavailable }
func (d *CDriver) Display(context.Context, []byte, []byte) error { return ErrCDriverUnavailable }
func (d *CDriver) Sleep(context.Context) error                   { return nil }
func (d *CDriver) Close() error                                  { return nil }
