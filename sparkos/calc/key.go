package calc

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is returned by ParseKey for tokens outside the keypad set.
var ErrUnknownKey = errors.New("unknown key")

// Op is a binary operator awaiting its right-hand operand.
type Op uint8

const (
	OpNone Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return ""
	}
}

// Apply evaluates a op b. Division by zero yields 0.
func (o Op) Apply(a, b float64) float64 {
	switch o {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	default:
		return b
	}
}

// KeyKind is the category of a keypad key.
type KeyKind uint8

const (
	KeyDigit KeyKind = iota
	KeyClear
	KeyDecimal
	KeyOperator
	KeyEquals
	KeySign
	KeyPercent
)

// Key is one parsed keypad press.
type Key struct {
	Kind  KeyKind
	Digit byte
	Op    Op
}

// Keypad tokens.
const (
	TokenClear   = "C"
	TokenDecimal = "."
	TokenEquals  = "="
	TokenSign    = "+/-"
	TokenPercent = "%"
)

// Keypad is the on-screen button layout, row-major, four columns wide.
// The last row holds three buttons.
var Keypad = []string{
	TokenClear, TokenSign, TokenPercent, "/",
	"7", "8", "9", "*",
	"4", "5", "6", "-",
	"1", "2", "3", "+",
	"0", TokenDecimal, TokenEquals,
}

// KeypadCols is the number of columns in Keypad.
const KeypadCols = 4

// ParseKey maps a keypad token to a Key.
func ParseKey(token string) (Key, error) {
	if len(token) == 1 {
		c := token[0]
		if c >= '0' && c <= '9' {
			return Key{Kind: KeyDigit, Digit: c}, nil
		}
		if op := parseOp(c); op != OpNone {
			return Key{Kind: KeyOperator, Op: op}, nil
		}
	}

	switch token {
	case TokenClear:
		return Key{Kind: KeyClear}, nil
	case TokenDecimal:
		return Key{Kind: KeyDecimal}, nil
	case TokenEquals:
		return Key{Kind: KeyEquals}, nil
	case TokenSign:
		return Key{Kind: KeySign}, nil
	case TokenPercent:
		return Key{Kind: KeyPercent}, nil
	}
	return Key{}, fmt.Errorf("calc: key %q: %w", token, ErrUnknownKey)
}

func parseOp(c byte) Op {
	switch c {
	case '+':
		return OpAdd
	case '-':
		return OpSub
	case '*':
		return OpMul
	case '/':
		return OpDiv
	default:
		return OpNone
	}
}

// Token returns the canonical keypad token for k.
func (k Key) Token() string {
	switch k.Kind {
	case KeyDigit:
		return string(rune(k.Digit))
	case KeyClear:
		return TokenClear
	case KeyDecimal:
		return TokenDecimal
	case KeyOperator:
		return k.Op.String()
	case KeyEquals:
		return TokenEquals
	case KeySign:
		return TokenSign
	case KeyPercent:
		return TokenPercent
	default:
		return ""
	}
}
