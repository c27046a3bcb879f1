package convert

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"organizer/internal/canvas"
)

// EPD panel geometry (Waveshare 7.5" B V2, tri-color).
const (
	EPDWidth      = 800
	EPDHeight     = 480
	EPDByteStride = EPDWidth / 8 // 100 bytes per row
	EPDPlaneSize  = EPDByteStride * EPDHeight
)

// Buffers returns the two packed planes of t in the layout the panel
// controller expects.
//
//   - each plane is y-major, MSB-first 1bpp:
//     byteIndex = y * 100 + (x >> 3)
//     mask      = 0x80 >> (x & 7)
//   - a set bit is paper and a clear bit is ink, on both planes; the
//     drivers invert the red plane on the way out.
func Buffers(t *canvas.Target) (black, red []byte, err error) {
	if t.Width() != EPDWidth || t.Height() != EPDHeight {
		return nil, nil, fmt.Errorf("convert: expected %dx%d target, got %dx%d", EPDWidth, EPDHeight, t.Width(), t.Height())
	}
	black, red = t.Primary.Bytes(), t.Accent.Bytes()
	if len(black) != EPDPlaneSize || len(red) != EPDPlaneSize {
		return nil, nil, fmt.Errorf("convert: expected %d bytes per plane, got %d/%d", EPDPlaneSize, len(black), len(red))
	}
	return black, red, nil
}

var (
	previewWhite = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	previewBlack = color.NRGBA{A: 0xFF}
	previewRed   = color.NRGBA{R: 0xD0, G: 0x10, B: 0x10, A: 0xFF}
)

// Preview composes the planes the way the panel shows them: accent ink
// wins over primary ink, everything else is white.
func Preview(t *canvas.Target) *image.NRGBA {
	w, h := t.Width(), t.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := previewWhite
			switch {
			case t.Accent.Bit(x, y) == canvas.Ink:
				c = previewRed
			case t.Primary.Bit(x, y) == canvas.Ink:
				c = previewBlack
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Dump writes black.bin, red.bin and preview.png into dir.
func Dump(dir string, t *canvas.Target) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("convert: create %s: %w", dir, err)
	}
	files := map[string][]byte{
		"black.bin": t.Primary.Bytes(),
		"red.bin":   t.Accent.Bytes(),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("convert: write %s: %w", name, err)
		}
	}

	f, err := os.Create(filepath.Join(dir, "preview.png"))
	if err != nil {
		return fmt.Errorf("convert: create preview: %w", err)
	}
	if err := png.Encode(f, Preview(t)); err != nil {
		f.Close()
		return fmt.Errorf("convert: encode preview: %w", err)
	}
	return f.Close()
}
