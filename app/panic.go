package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"pocketcalc/hal"
	"pocketcalc/internal/fbdraw"
	"pocketcalc/sparkos/kernel"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var panicFont tinyfont.Fonter = &proggy.TinySZ8pt7b

const (
	panicLineHeight = 10
	panicBaseline   = 7
)

func installPanicHandler(h hal.HAL) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		lines := panicLines(info)
		if l := h.Logger(); l != nil {
			for _, line := range lines {
				l.WriteLineString(line)
			}
		}

		disp := h.Display()
		if disp == nil {
			select {}
		}
		fb := disp.Framebuffer()
		if fb == nil {
			select {}
		}
		drawPanic(fbdraw.New(fb), lines)
		_ = fb.Present()
		select {}
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"Calc Panic:",
		fmt.Sprintf("task: %d", info.TaskID),
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
	}
	return lines
}

// drawPanic paints lines black on white, wrapping long lines, until the
// screen is full.
func drawPanic(d *fbdraw.Display, lines []string) {
	w, h := d.Size()
	if w <= 0 || h <= 0 {
		return
	}
	_ = d.FillRectangle(0, 0, w, h, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	fontWidth := fbdraw.TextWidth(panicFont, "0")
	if fontWidth <= 0 {
		return
	}
	cols := w / fontWidth
	if cols <= 0 {
		cols = 1
	}

	fg := color.RGBA{A: 0xff}
	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+panicLineHeight > h {
				return
			}
			chunk, rest := takeRunes(line, cols)
			d.Text(panicFont, 0, y+panicBaseline, chunk, fg)
			y += panicLineHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
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
