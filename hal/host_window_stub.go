//go:build !cgo

package hal

import (
	"context"
	"fmt"
)

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
	Hz     int
}

// RunWindow opens a resizable window that shows app's surface and forwards
// mouse and keyboard input. Without cgo there is no window backend, so it
// fails with ErrNotImplemented; use headless mode instead.
func RunWindow(_ context.Context, _ App, _ WindowConfig) error {
	return fmt.Errorf("hal: window mode requires cgo (build with CGO_ENABLED=1): %w", ErrNotImplemented)
}
