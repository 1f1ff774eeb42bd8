// Package calc implements a four-function pocket calculator driven one
// keypress at a time.
//
// Operators apply strictly left to right: entering a second operator folds the
// pending one first, so "5 + 3 * 2 =" shows 16. A Calculator is not safe for
// concurrent use; its owner serializes key presses.
package calc

import "strings"

// State is a snapshot of the calculator registers.
type State struct {
	Display     string
	Accumulator float64
	Pending     Op
	Fresh       bool
}

// Calculator is the keypad state machine.
type Calculator struct {
	display string
	acc     float64
	op      Op
	fresh   bool
}

// New returns a cleared calculator.
func New() *Calculator {
	c := &Calculator{}
	c.Reset()
	return c
}

// Display returns the text currently shown.
func (c *Calculator) Display() string { return c.display }

// State returns a copy of the registers.
func (c *Calculator) State() State {
	return State{
		Display:     c.display,
		Accumulator: c.acc,
		Pending:     c.op,
		Fresh:       c.fresh,
	}
}

// Reset clears every register (the "C" key).
func (c *Calculator) Reset() {
	c.display = "0"
	c.acc = 0
	c.op = OpNone
	c.fresh = false
}

// Dispatch applies one keypad token. It reports false, leaving the state
// untouched, when the token is not a keypad key.
func (c *Calculator) Dispatch(token string) bool {
	k, err := ParseKey(token)
	if err != nil {
		return false
	}
	c.Press(k)
	return true
}

// Press applies a parsed key.
func (c *Calculator) Press(k Key) {
	switch k.Kind {
	case KeyDigit:
		c.InputDigit(k.Digit)
	case KeyClear:
		c.Reset()
	case KeyDecimal:
		c.InputDecimalPoint()
	case KeyOperator:
		c.InputOperator(k.Op)
	case KeyEquals:
		c.Equals()
	case KeySign:
		c.ToggleSign()
	case KeyPercent:
		c.Percent()
	}
}

// InputDigit types one digit ('0'..'9'); other bytes are ignored.
func (c *Calculator) InputDigit(d byte) {
	if d < '0' || d > '9' {
		return
	}
	if c.fresh || c.display == "0" {
		c.display = string(rune(d))
		c.fresh = false
		return
	}
	c.display += string(rune(d))
}

// InputDecimalPoint starts the fractional part. A second point is ignored.
func (c *Calculator) InputDecimalPoint() {
	if c.fresh {
		c.display = "0."
		c.fresh = false
		return
	}
	if !strings.Contains(c.display, ".") {
		c.display += "."
	}
}

// InputOperator sets the pending operator.
//
// Pressing an operator right after another one replaces it without computing.
// Otherwise a pending operation is folded into the display first.
func (c *Calculator) InputOperator(op Op) {
	if op == OpNone {
		return
	}
	if c.fresh && c.op != OpNone {
		c.op = op
		return
	}
	if c.op != OpNone {
		c.Equals()
	}
	c.acc = ParseNumber(c.display)
	c.op = op
	c.fresh = true
}

// Equals applies the pending operator to the accumulator and the display.
// Without a pending operator it does nothing.
func (c *Calculator) Equals() {
	if c.op == OpNone {
		return
	}
	result := c.op.Apply(c.acc, ParseNumber(c.display))
	c.display = FormatNumber(result)
	c.acc = ParseNumber(c.display)
	c.op = OpNone
	c.fresh = true
}

// Percent divides the displayed operand by 100.
func (c *Calculator) Percent() {
	c.display = FormatNumber(ParseNumber(c.display) / 100)
	c.fresh = true
}

// ToggleSign negates a nonzero display.
func (c *Calculator) ToggleSign() {
	v := ParseNumber(c.display)
	if v == 0 {
		return
	}
	c.display = FormatNumber(-v)
}
