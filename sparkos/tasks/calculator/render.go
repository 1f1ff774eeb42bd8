package calculator

import (
	"image/color"
	"strings"

	"pocketcalc/internal/fbdraw"
	"pocketcalc/sparkos/calc"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

// Palette: stone digits, lighter function keys, amber operators.
var (
	colorBG       = color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
	colorPanelBG  = color.RGBA{R: 0x1c, G: 0x19, B: 0x17, A: 0xff}
	colorText     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorDim      = color.RGBA{R: 0xa8, G: 0xa2, B: 0x9e, A: 0xff}
	colorDigit    = color.RGBA{R: 0x44, G: 0x40, B: 0x3c, A: 0xff}
	colorFunction = color.RGBA{R: 0x78, G: 0x71, B: 0x6c, A: 0xff}
	colorOperator = color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	colorSelected = color.RGBA{R: 0x22, G: 0xd3, B: 0xee, A: 0xff}
)

var (
	displayFont tinyfont.Fonter = &freemono.Bold18pt7b
	buttonFont  tinyfont.Fonter = &freemono.Regular12pt7b
	statusFont  tinyfont.Fonter = &proggy.TinySZ8pt7b
)

const (
	margin       = 8
	panelHeight  = 60
	statusHeight = 16
	buttonGap    = 4

	// Baseline offsets from the top of their boxes.
	displayBaseline = 42
	statusBaseline  = 12
	buttonBaseline  = 6
)

type rect struct {
	x, y, w, h int16
}

func panelRect(w int16) rect {
	return rect{x: margin, y: margin, w: w - 2*margin, h: panelHeight}
}

func statusRect(w int16) rect {
	p := panelRect(w)
	return rect{x: p.x, y: p.y + p.h, w: p.w, h: statusHeight}
}

// buttonRect lays keypad button i out on the grid below the status line.
func buttonRect(i int, w, h int16) rect {
	cols := int16(calc.KeypadCols)
	rows := int16((len(calc.Keypad) + calc.KeypadCols - 1) / calc.KeypadCols)

	s := statusRect(w)
	top := s.y + s.h + buttonGap
	cellW := (w - 2*margin) / cols
	cellH := (h - margin - top) / rows

	col := int16(i) % cols
	row := int16(i) / cols
	return rect{
		x: margin + col*cellW + buttonGap/2,
		y: top + row*cellH + buttonGap/2,
		w: cellW - buttonGap,
		h: cellH - buttonGap,
	}
}

func buttonColor(token string) color.RGBA {
	switch token {
	case "/", "*", "-", "+", calc.TokenEquals:
		return colorOperator
	case calc.TokenClear, calc.TokenSign, calc.TokenPercent:
		return colorFunction
	default:
		return colorDigit
	}
}

// fitText shortens s from the left, marking the cut with '<', until it is at
// most maxW pixels wide.
func fitText(s string, maxW int16, width func(string) int16) string {
	if width(s) <= maxW {
		return s
	}
	rs := []rune(s)
	for i := 1; i < len(rs); i++ {
		cut := "<" + string(rs[i:])
		if width(cut) <= maxW {
			return cut
		}
	}
	return "<"
}

func statusText(st calc.State) string {
	var b strings.Builder
	if st.Pending != calc.OpNone {
		b.WriteString(calc.FormatNumber(st.Accumulator))
		b.WriteByte(' ')
		b.WriteString(st.Pending.String())
	}
	return b.String()
}

func (t *Task) render() {
	if t.tape() || t.fb == nil || t.d == nil {
		return
	}
	w := int16(t.fb.Width())
	h := int16(t.fb.Height())
	if w <= 0 || h <= 0 {
		return
	}

	_ = t.d.FillRectangle(0, 0, w, h, colorBG)

	st := t.calc.State()

	p := panelRect(w)
	_ = t.d.FillRectangle(p.x, p.y, p.w, p.h, colorPanelBG)
	text := fitText(st.Display, p.w-2*margin, func(s string) int16 {
		return fbdraw.TextWidth(displayFont, s)
	})
	tw := fbdraw.TextWidth(displayFont, text)
	t.d.Text(displayFont, p.x+p.w-margin-tw, p.y+displayBaseline, text, colorText)

	s := statusRect(w)
	if status := statusText(st); status != "" {
		t.d.Text(statusFont, s.x+margin, s.y+statusBaseline, status, colorDim)
	}
	if st.Fresh {
		const fresh = "NEW"
		fw := fbdraw.TextWidth(statusFont, fresh)
		t.d.Text(statusFont, s.x+s.w-margin-fw, s.y+statusBaseline, fresh, colorDim)
	}

	for i, tok := range calc.Keypad {
		r := buttonRect(i, w, h)
		if i == t.sel {
			_ = t.d.FillRectangle(r.x-2, r.y-2, r.w+4, r.h+4, colorSelected)
		}
		_ = t.d.FillRectangle(r.x, r.y, r.w, r.h, buttonColor(tok))
		lw := fbdraw.TextWidth(buttonFont, tok)
		t.d.Text(buttonFont, r.x+(r.w-lw)/2, r.y+r.h/2+buttonBaseline, tok, colorText)
	}

	_ = t.d.Display()
}
