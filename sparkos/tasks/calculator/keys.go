package calculator

import (
	"unicode/utf8"

	"pocketcalc/sparkos/calc"
)

type keyKind uint8

const (
	keyRune keyKind = iota
	keyEnter
	keyBackspace
	keyTab
	keyEsc
	keyUp
	keyDown
	keyLeft
	keyRight
	keyDelete
	keyCtrl
)

type key struct {
	kind keyKind
	r    rune
	ctrl byte
}

// nextKey decodes one key from VT100 input. ok is false when b holds an
// incomplete sequence that needs more bytes.
func nextKey(b []byte) (consumed int, k key, ok bool) {
	if len(b) == 0 {
		return 0, key{}, false
	}

	if b[0] == 0x1b {
		return parseEscapeKey(b)
	}

	switch b[0] {
	case '\r', '\n':
		return 1, key{kind: keyEnter}, true
	case 0x7f, 0x08:
		return 1, key{kind: keyBackspace}, true
	case '\t':
		return 1, key{kind: keyTab}, true
	}

	if b[0] < 0x20 {
		return 1, key{kind: keyCtrl, ctrl: b[0]}, true
	}
	if !utf8.FullRune(b) {
		return 0, key{}, false
	}
	r, sz := utf8.DecodeRune(b)
	if r == utf8.RuneError && sz == 1 {
		return 1, key{kind: keyCtrl}, true
	}
	return sz, key{kind: keyRune, r: r}, true
}

func parseEscapeKey(b []byte) (consumed int, k key, ok bool) {
	if len(b) < 2 || b[1] != '[' {
		return 1, key{kind: keyEsc}, true
	}
	if len(b) < 3 {
		return 0, key{}, false
	}

	switch b[2] {
	case 'A':
		return 3, key{kind: keyUp}, true
	case 'B':
		return 3, key{kind: keyDown}, true
	case 'C':
		return 3, key{kind: keyRight}, true
	case 'D':
		return 3, key{kind: keyLeft}, true
	case '3':
		if len(b) < 4 {
			return 0, key{}, false
		}
		if b[3] == '~' {
			return 4, key{kind: keyDelete}, true
		}
		return 1, key{kind: keyEsc}, true
	default:
		return 1, key{kind: keyEsc}, true
	}
}

// tokenForKey maps a keyboard key to a keypad token.
func tokenForKey(k key) (string, bool) {
	switch k.kind {
	case keyEnter:
		return calc.TokenEquals, true
	case keyEsc, keyDelete:
		return calc.TokenClear, true
	case keyRune:
		return tokenForRune(k.r)
	default:
		return "", false
	}
}

func tokenForRune(r rune) (string, bool) {
	if r >= '0' && r <= '9' {
		return string(r), true
	}
	switch r {
	case '.', ',':
		return calc.TokenDecimal, true
	case '+', '-', '*', '/', '=', '%':
		return string(r), true
	case 'x', 'X':
		return "*", true
	case 'c', 'C':
		return calc.TokenClear, true
	case 'n', 'N', '_':
		return calc.TokenSign, true
	default:
		return "", false
	}
}

// moveSelection moves sel across the keypad grid. The short last row is
// reachable from any column of the row above.
func moveSelection(sel int, k keyKind) int {
	n := len(calc.Keypad)
	cols := calc.KeypadCols
	lastRow := (n - 1) / cols

	switch k {
	case keyUp:
		if sel-cols >= 0 {
			return sel - cols
		}
	case keyDown:
		if sel/cols == lastRow {
			return sel
		}
		if sel+cols < n {
			return sel + cols
		}
		return n - 1
	case keyLeft:
		if sel%cols > 0 {
			return sel - 1
		}
	case keyRight:
		if sel%cols < cols-1 && sel+1 < n {
			return sel + 1
		}
	}
	return sel
}

func describeKey(k key) string {
	switch k.kind {
	case keyRune:
		return string(k.r)
	case keyBackspace:
		return "backspace"
	case keyTab:
		return "tab"
	case keyCtrl:
		return "ctrl"
	default:
		return "key"
	}
}
