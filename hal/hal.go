// Package hal hosts the viewer: it owns the window or the headless ticker,
// feeds input and resize events to the App and presents its surface.
package hal

import (
	"errors"
	"image"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// App is driven by a runner, one call at a time from a single goroutine.
type App interface {
	// Frame advances and renders one frame. dt is the time since the
	// previous frame.
	Frame(dt time.Duration) error
	// Resize is called before the first frame and whenever the viewport
	// changes size.
	Resize(w, h int)
	// Surface is the last rendered frame.
	Surface() *image.RGBA
	HandleInput(in InputState)
	// Running reports false once the app wants the loop to end.
	Running() bool
}

// ErrNotImplemented is returned by runners the build has no backend for.
var ErrNotImplemented = errors.New("not implemented")

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyEscape
	KeySpace
	KeyR
	KeyW
	KeyH
	KeyPeriod
)

// InputState is the input seen during one frame.
type InputState struct {
	CursorX, CursorY int
	// DX and DY are the cursor movement since the previous frame.
	DX, DY float64

	Left, Right, Middle bool

	// Wheel is the vertical scroll this frame; positive scrolls up.
	Wheel float64

	// Pressed lists keys that went down this frame.
	Pressed []KeyCode
}

// JustPressed reports whether k went down this frame.
func (in InputState) JustPressed(k KeyCode) bool {
	for _, p := range in.Pressed {
		if p == k {
			return true
		}
	}
	return false
}

// Idle reports whether the state carries no input at all.
func (in InputState) Idle() bool {
	return in.DX == 0 && in.DY == 0 && in.Wheel == 0 && len(in.Pressed) == 0 &&
		!in.Left && !in.Right && !in.Middle
}
