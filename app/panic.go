package app

import (
	"fmt"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"tinygo.org/x/tinyfont"

	"quarkview/hal"
	"quarkview/quark/quarkgl"
)

// PanicError is a panic recovered from a frame.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("app: frame panic: %v", e.Value) }

// recoverFrame turns a panic in Frame into a *PanicError, logs the stack and
// paints a panic screen so a windowed run shows what happened before the
// loop ends.
func (v *Viewer) recoverFrame(err *error) {
	r := recover()
	if r == nil {
		return
	}
	pe := &PanicError{Value: r, Stack: debug.Stack()}
	*err = pe
	v.Stop()

	hal.Logf(v.log, "QuarkView Panic: frame=%d panic=%v", v.frames, r)
	lines := []string{
		"QuarkView Panic:",
		fmt.Sprintf("frame: %d", v.frames),
		fmt.Sprintf("panic: %v", r),
		"stack:",
	}
	for _, line := range strings.Split(string(pe.Stack), "\n") {
		if line == "" {
			continue
		}
		v.log.WriteLineString(line)
		lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
	}
	v.paintPanic(lines)
}

func (v *Viewer) paintPanic(lines []string) {
	if v.Renderer == nil {
		return
	}
	t := v.Renderer.Target()
	t.Clear(quarkgl.RGB(0x60, 0x10, 0x10))

	font := quarkgl.HUDFont
	_, glyphW := tinyfont.LineWidth(font, "0")
	w, h := t.Size()
	cols := 1
	if glyphW > 0 {
		cols = max(w/int(glyphW), 1)
	}
	lineH := int(font.GetYAdvance())
	if lineH <= 0 {
		return
	}

	var wrapped []string
	for _, line := range lines {
		for len(line) > 0 && len(wrapped)*lineH < h {
			chunk, rest := takeRunes(line, cols)
			wrapped = append(wrapped, chunk)
			line = strings.TrimLeft(rest, " ")
		}
	}
	hud := &quarkgl.HUD{Font: font, Color: v.HUD.Color, Margin: 2}
	hud.Draw(t, wrapped)
}

func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
