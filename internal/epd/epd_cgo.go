//go:build linux && arm && cgo

// cgo-backed EPD driver wrapper.
//
// Only built for linux/arm with cgo enabled. It links the Waveshare C SDK
// (DEV_Config.c + EPD_7in5b_V2.c) built as a static library under
// internal/epd/c:
//
//	UBYTE DEV_Module_Init(void);
//	void  DEV_Module_Exit(void);
//
//	UBYTE EPD_7IN5B_V2_Init(void);
//	void  EPD_7IN5B_V2_Clear(void);
//	void  EPD_7IN5B_V2_Display(const UBYTE *blackimage, const UBYTE *ryimage);
//	void  EPD_7IN5B_V2_Sleep(void);
//
// The C Display inverts the red plane itself, so both planes are passed as
// packed by convert.Buffers.

package epd

/*
#cgo linux,arm CFLAGS: -I${SRCDIR}/c
#cgo linux,arm LDFLAGS: -L${SRCDIR}/c -lepddrv -llgpio

#include <stdint.h>
#include "EPD_7in5b_V2.h"
#include "DEV_Config.h"
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"organizer/internal/convert"
)

// CDriver calls the Waveshare C SDK directly.
type CDriver struct {
	open bool
}

func (d *CDriver) Init(context.Context) error {
	if !d.open {
		if ret := C.DEV_Module_Init(); ret != 0 {
			return fmt.Errorf("epd(cgo): DEV_Module_Init failed (ret=%d)", int(ret))
		}
		d.open = true
	}
	if ret := C.EPD_7IN5B_V2_Init(); ret != 0 {
		return fmt.Errorf("epd(cgo): EPD_7IN5B_V2_Init failed (ret=%d)", int(ret))
	}
	return nil
}

func (d *CDriver) Clear(context.Context) error {
	C.EPD_7IN5B_V2_Clear()
	return nil
}

func (d *CDriver) Display(_ context.Context, black, red []byte) error {
	if len(black) != convert.EPDPlaneSize || len(red) != convert.EPDPlaneSize {
		return fmt.Errorf("epd(cgo): invalid buffer size, expected %d bytes per plane", convert.EPDPlaneSize)
	}
	cb := (*C.UBYTE)(unsafe.Pointer(&black[0]))
	cr := (*C.UBYTE)(unsafe.Pointer(&red[0]))
	C.EPD_7IN5B_V2_Display(cb, cr)
	return nil
}

func (d *CDriver) Sleep(context.Context) error {
	C.EPD_7IN5B_V2_Sleep()
	return nil
}

// Close releases the GPIO/SPI handles held by the SDK.
func (d *CDriver) Close() error {
	if d.open {
		C.DEV_Module_Exit()
		d.open = false
	}
	return nil
}
