package snapshot

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/HugoSmits86/nativewebp"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestWriter_Due(t *testing.T) {
	w := &Writer{Every: 3}
	var got []int
	for f := 0; f < 10; f++ {
		if w.Due(f) {
			got = append(got, f)
		}
	}
	if len(got) != 4 || got[1] != 3 || got[3] != 9 {
		t.Fatalf("due frames = %v", got)
	}
	var nilWriter *Writer
	if nilWriter.Due(0) {
		t.Fatalf("nil writer is never due")
	}
}

func TestWriter_Capture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	w, err := New(dir, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := w.Capture(42, solid(40, 20, color.RGBA{R: 200, G: 10, B: 10, A: 255}))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if filepath.Base(out) != "frame_000042.webp" {
		t.Fatalf("path = %s", out)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := nativewebp.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 20 || cfg.Height != 10 {
		t.Fatalf("encoded size = %dx%d want 20x10", cfg.Width, cfg.Height)
	}
	if w.Written() != 1 {
		t.Fatalf("written = %d", w.Written())
	}

	if _, err := w.Capture(43, nil); !errors.Is(err, ErrNoImage) {
		t.Fatalf("nil image err = %v", err)
	}
}

func TestDownscale(t *testing.T) {
	src := solid(64, 32, color.RGBA{R: 0, G: 128, B: 255, A: 255})
	tests := []struct {
		factor int
		w, h   int
	}{
		{1, 64, 32},
		{2, 32, 16},
		{4, 16, 8},
		{100, 1, 1},
	}
	for _, tt := range tests {
		dst := Downscale(src, tt.factor)
		if b := dst.Bounds(); b.Dx() != tt.w || b.Dy() != tt.h {
			t.Fatalf("factor %d: size %v", tt.factor, b)
		}
	}

	c := Downscale(src, 2).RGBAAt(5, 5)
	if c.R > 2 || c.B < 253 || c.A < 253 || c.G < 125 || c.G > 131 {
		t.Fatalf("solid colour drifted: %+v", c)
	}
}
