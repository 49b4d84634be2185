package quarkgl

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// HUDFont is the overlay font.
var HUDFont tinyfont.Fonter = &proggy.TinySZ8pt7b

// HUD draws text lines in the top-left corner of a Target.
type HUD struct {
	Font       tinyfont.Fonter
	Color      color.RGBA
	Background Color
	Margin     int
}

// NewHUD returns a HUD with the default font and colors.
func NewHUD() *HUD {
	return &HUD{
		Font:       HUDFont,
		Color:      color.RGBA{R: 0xE8, G: 0xE8, B: 0xE8, A: 0xFF},
		Background: RGBA(0, 0, 0, 0x99),
		Margin:     4,
	}
}

// Draw renders lines top to bottom.
func (h *HUD) Draw(t Target, lines []string) {
	if h == nil || t == nil || len(lines) == 0 {
		return
	}
	font := h.Font
	if font == nil {
		font = HUDFont
	}
	lineH := int(font.GetYAdvance())
	if lineH <= 0 {
		return
	}

	boxW := 0
	for _, s := range lines {
		_, w := tinyfont.LineWidth(font, s)
		boxW = max(boxW, int(w))
	}
	boxH := lineH * len(lines)
	if h.Background.A != 0 {
		for y := 0; y < boxH+2*h.Margin; y++ {
			for x := 0; x < boxW+2*h.Margin; x++ {
				t.SetPixel(x, y, h.Background)
			}
		}
	}

	d := &targetDisplayer{t: t}
	for i, s := range lines {
		// tinyfont positions text by its baseline.
		y := h.Margin + (i+1)*lineH - 2
		tinyfont.WriteLine(d, font, int16(h.Margin), int16(y), s, h.Color)
	}
}

// targetDisplayer adapts a Target to the display interface tinyfont draws on.
type targetDisplayer struct {
	t Target
}

var _ drivers.Displayer = (*targetDisplayer)(nil)

func (d *targetDisplayer) Size() (x, y int16) {
	w, h := d.t.Size()
	return int16(w), int16(h)
}

func (d *targetDisplayer) SetPixel(x, y int16, c color.RGBA) {
	d.t.SetPixel(int(x), int(y), Color{R: c.R, G: c.G, B: c.B, A: 0xFF})
}

func (d *targetDisplayer) Display() error { return nil }
