package termkbd

import (
	"bytes"

	"pocketcalc/hal"
	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/proto"
)

const (
	// Ticks are 1ms on host.
	// These values aim to match typical desktop key-repeat feel without spamming.
	repeatDelayTicks = 350
	repeatRateTicks  = 60
)

// Service turns HAL key events into VT100 bytes delivered as MsgTermInput.
type Service struct {
	in     hal.Input
	outCap kernel.Capability

	events  <-chan hal.KeyEvent
	pending []byte

	heldCode hal.KeyCode
	heldData []byte

	nextRepeatTick uint64
}

func New(in hal.Input, inputCap kernel.Capability) *Service {
	return &Service{in: in, outCap: inputCap}
}

func (s *Service) Run(ctx *kernel.Context) {
	if ctx == nil || s.in == nil {
		return
	}
	kbd := s.in.Keyboard()
	if kbd == nil {
		return
	}
	s.events = kbd.Events()
	if s.events == nil {
		return
	}

	done := make(chan struct{})
	defer close(done)

	tickCh := make(chan uint64, 16)
	go func() {
		last := ctx.NowTick()
		for {
			select {
			case <-done:
				return
			default:
			}
			last = ctx.WaitTick(last)
			select {
			case tickCh <- last:
			default:
			}
		}
	}()

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			s.handleKeyEvent(ctx.NowTick(), ev)
			s.flush(ctx)
		case tick := <-tickCh:
			s.handleRepeat(tick)
			s.flush(ctx)
		}
	}
}

func (s *Service) handleKeyEvent(now uint64, ev hal.KeyEvent) {
	if !ev.Press {
		if s.heldData != nil && ev.Code == s.heldCode {
			s.heldData = nil
			s.nextRepeatTick = 0
		}
		return
	}

	data := vt100FromKey(ev)
	if len(data) == 0 {
		return
	}
	s.pending = append(s.pending, data...)

	if !repeatableKey(ev) {
		return
	}
	s.heldCode = ev.Code
	s.heldData = append(s.heldData[:0], data...)
	s.nextRepeatTick = now + repeatDelayTicks
}

func (s *Service) handleRepeat(tick uint64) {
	if s.heldData == nil {
		return
	}
	if tick < s.nextRepeatTick {
		return
	}
	s.pending = append(s.pending, s.heldData...)
	s.nextRepeatTick = tick + repeatRateTicks
}

// flush sends pending bytes; on a full queue they stay pending for the next tick.
func (s *Service) flush(ctx *kernel.Context) {
	for len(s.pending) > 0 {
		if !s.outCap.Valid() {
			s.pending = nil
			return
		}

		chunk := s.pending[:chunkLen(s.pending, kernel.MaxMessageBytes)]

		res := ctx.SendToCapResult(s.outCap, uint16(proto.MsgTermInput), chunk, kernel.Capability{})
		switch res {
		case kernel.SendOK:
			s.pending = s.pending[len(chunk):]
		case kernel.SendErrQueueFull:
			return
		default:
			s.pending = nil
			return
		}
	}
}

// maxEscapeLen is the longest sequence vt100FromKey emits ("\x1b[3~").
const maxEscapeLen = 4

// chunkLen returns how many leading bytes of b fit in one message without
// cutting an escape sequence; a cut sequence would reach the reader as Esc.
func chunkLen(b []byte, max int) int {
	if len(b) <= max {
		return len(b)
	}
	n := max
	tail := b[n-maxEscapeLen+1 : n]
	if i := bytes.LastIndexByte(tail, 0x1b); i >= 0 {
		start := n - maxEscapeLen + 1 + i
		if start > 0 && start+escapeLen(b[start:]) > n {
			n = start
		}
	}
	return n
}

// escapeLen is the length of the escape sequence at the start of b.
func escapeLen(b []byte) int {
	if len(b) < 2 || b[1] != '[' {
		return 1
	}
	for i := 2; i < len(b); i++ {
		if b[i] >= 0x40 && b[i] <= 0x7e {
			return i + 1
		}
	}
	return len(b)
}

// Only navigation repeats; held digits or operators would re-enter values.
func repeatableKey(ev hal.KeyEvent) bool {
	if ev.Rune != 0 {
		return false
	}
	switch ev.Code {
	case hal.KeyUp, hal.KeyDown, hal.KeyLeft, hal.KeyRight:
		return true
	default:
		return false
	}
}

func vt100FromKey(ev hal.KeyEvent) []byte {
	if ev.Rune != 0 {
		return []byte(string(ev.Rune))
	}

	switch ev.Code {
	case hal.KeyEnter:
		return []byte{'\n'}
	case hal.KeyEscape:
		return []byte{0x1b}
	case hal.KeyBackspace:
		return []byte{0x7f}
	case hal.KeyTab:
		return []byte{'\t'}
	case hal.KeyUp:
		return []byte("\x1b[A")
	case hal.KeyDown:
		return []byte("\x1b[B")
	case hal.KeyRight:
		return []byte("\x1b[C")
	case hal.KeyLeft:
		return []byte("\x1b[D")
	case hal.KeyDelete:
		return []byte("\x1b[3~")
	default:
		return nil
	}
}
