package hal

import (
	"context"
	"fmt"
	"image"
	"time"
)

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Hz     int
	Frames int // 0 runs until the context ends or the app stops
	Width  int
	Height int
	// Unpaced runs frames back to back instead of on a ticker. Simulated
	// time still advances by 1/Hz per frame.
	Unpaced bool
	// OnFrame runs after every frame with the frame index and surface.
	OnFrame func(frame int, surface *image.RGBA) error
}

// RunHeadless drives app without opening a window. Every frame advances by
// exactly 1/Hz, so runs are reproducible.
func RunHeadless(ctx context.Context, app App, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("hal: invalid headless hz: %d", cfg.Hz)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		app.Resize(cfg.Width, cfg.Height)
	}

	var tick <-chan time.Time
	if !cfg.Unpaced {
		t := time.NewTicker(d)
		defer t.Stop()
		tick = t.C
	}

	for frame := 0; ; frame++ {
		if cfg.Frames > 0 && frame >= cfg.Frames {
			return nil
		}
		if !app.Running() {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := app.Frame(d); err != nil {
			return err
		}
		if cfg.OnFrame != nil {
			if err := cfg.OnFrame(frame, app.Surface()); err != nil {
				return err
			}
		}
	}
}
