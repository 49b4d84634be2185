//go:build cgo

package hal

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
	Hz     int
}

// RunWindow opens a resizable window that shows app's surface and forwards
// mouse and keyboard input. It blocks until the window closes, the app stops
// or ctx ends.
func RunWindow(ctx context.Context, app App, cfg WindowConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 960, 600
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	g := &hostGame{ctx: ctx, app: app, clock: newFrameClock(cfg.Hz, nil)}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Hz)
	if err := ebiten.RunGame(g); err != nil {
		return err
	}
	if g.err != nil {
		return g.err
	}
	return ctx.Err()
}

type hostGame struct {
	ctx   context.Context
	app   App
	clock *frameClock
	err   error

	img    *ebiten.Image
	w, h   int
	cx, cy int
	seen   bool
}

func (g *hostGame) Update() error {
	if g.ctx.Err() != nil || !g.app.Running() {
		return ebiten.Termination
	}
	g.app.HandleInput(g.poll())
	if err := g.app.Frame(g.clock.tick()); err != nil {
		g.err = err
		return ebiten.Termination
	}
	return nil
}

func (g *hostGame) poll() InputState {
	x, y := ebiten.CursorPosition()
	in := InputState{
		CursorX: x,
		CursorY: y,
		Left:    ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Right:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
		Middle:  ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle),
	}
	if g.seen {
		in.DX, in.DY = float64(x-g.cx), float64(y-g.cy)
	}
	g.cx, g.cy, g.seen = x, y, true
	_, in.Wheel = ebiten.Wheel()

	for _, k := range [...]struct {
		key  ebiten.Key
		code KeyCode
	}{
		{ebiten.KeyEscape, KeyEscape},
		{ebiten.KeySpace, KeySpace},
		{ebiten.KeyR, KeyR},
		{ebiten.KeyW, KeyW},
		{ebiten.KeyH, KeyH},
		{ebiten.KeyPeriod, KeyPeriod},
	} {
		if inpututil.IsKeyJustPressed(k.key) {
			in.Pressed = append(in.Pressed, k.code)
		}
	}
	return in
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	surf := g.app.Surface()
	if surf == nil {
		return
	}
	b := surf.Bounds()
	if g.img == nil || g.img.Bounds().Dx() != b.Dx() || g.img.Bounds().Dy() != b.Dy() {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.img.WritePixels(surf.Pix)
	screen.DrawImage(g.img, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.w || outsideHeight != g.h {
		g.w, g.h = outsideWidth, outsideHeight
		g.app.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
