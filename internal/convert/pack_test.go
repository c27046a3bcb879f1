package convert

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"organizer/internal/canvas"
)

func TestBuffers(t *testing.T) {
	target := canvas.NewTarget(EPDWidth, EPDHeight)
	target.Primary.SetBit(0, 0, canvas.Ink)
	target.Accent.SetBit(9, 1, canvas.Ink)

	black, red, err := Buffers(target)
	if err != nil {
		t.Fatalf("Buffers: %v", err)
	}
	if len(black) != EPDPlaneSize || len(red) != EPDPlaneSize {
		t.Fatalf("plane sizes = %d/%d, want %d", len(black), len(red), EPDPlaneSize)
	}
	if black[0] != 0x7F {
		t.Errorf("black[0] = %#02x, want 0x7f", black[0])
	}
	if got := red[EPDByteStride+1]; got != 0xBF {
		t.Errorf("red[stride+1] = %#02x, want 0xbf", got)
	}
}

func TestBuffersWrongSize(t *testing.T) {
	if _, _, err := Buffers(canvas.NewTarget(640, 384)); err == nil {
		t.Fatal("Buffers accepted a 640x384 target")
	}
}

func TestPreview(t *testing.T) {
	target := canvas.NewTarget(4, 1)
	target.Primary.SetBit(1, 0, canvas.Ink)
	target.Accent.SetBit(2, 0, canvas.Ink)
	target.Primary.SetBit(3, 0, canvas.Ink)
	target.Accent.SetBit(3, 0, canvas.Ink)

	img := Preview(target)
	want := []struct {
		x    int
		want color.NRGBA
	}{
		{0, previewWhite},
		{1, previewBlack},
		{2, previewRed},
		{3, previewRed},
	}
	for _, tt := range want {
		if got := img.NRGBAAt(tt.x, 0); got != tt.want {
			t.Errorf("pixel %d = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	target := canvas.NewTarget(16, 2)
	target.Primary.SetBit(0, 0, canvas.Ink)

	if err := Dump(dir, target); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	black, err := os.ReadFile(filepath.Join(dir, "black.bin"))
	if err != nil {
		t.Fatalf("read black.bin: %v", err)
	}
	if !bytes.Equal(black, target.Primary.Bytes()) {
		t.Errorf("black.bin = %x", black)
	}
	f, err := os.Open(filepath.Join(dir, "preview.png"))
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 2 {
		t.Errorf("preview bounds = %v", b)
	}
}
