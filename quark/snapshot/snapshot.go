// Package snapshot writes rendered frames to disk as WebP images.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// ErrNoImage is returned when Capture is given no image.
var ErrNoImage = errors.New("snapshot: no image")

// Writer saves every Every-th frame into Dir as frame_NNNNNN.webp.
type Writer struct {
	Dir   string
	Every int
	// Supersample is the factor the frame was rendered at; captures are
	// scaled down by it before encoding.
	Supersample int
	// Extended selects the VP8X container.
	Extended bool

	written int
}

// New creates dir if needed and returns a Writer for it.
func New(dir string, every, supersample int) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}
	return &Writer{Dir: dir, Every: max(every, 1), Supersample: max(supersample, 1)}, nil
}

// Due reports whether frame should be captured.
func (w *Writer) Due(frame int) bool {
	if w == nil {
		return false
	}
	every := max(w.Every, 1)
	return frame%every == 0
}

// Written returns the number of files written so far.
func (w *Writer) Written() int { return w.written }

// Path returns the file name used for frame.
func (w *Writer) Path(frame int) string {
	return filepath.Join(w.Dir, fmt.Sprintf("frame_%06d.webp", frame))
}

// Capture encodes img for frame and returns the written path.
func (w *Writer) Capture(frame int, img *image.RGBA) (string, error) {
	if img == nil {
		return "", ErrNoImage
	}
	if w.Supersample > 1 {
		img = Downscale(img, w.Supersample)
	}

	out := w.Path(frame)
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("snapshot: create %s: %w", out, err)
	}
	err = nativewebp.Encode(f, img, &nativewebp.Options{UseExtendedFormat: w.Extended})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("snapshot: encode %s: %w", out, err)
	}
	w.written++
	return out, nil
}

// Downscale shrinks src by factor with a Catmull-Rom filter. image.RGBA is
// already alpha-premultiplied, so edges keep their colour.
func Downscale(src *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	w, h := max(b.Dx()/factor, 1), max(b.Dy()/factor, 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
