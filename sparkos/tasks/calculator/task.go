// Package calculator is the pocket calculator app: it owns a calc.Calculator,
// feeds it keyboard input and IPC tokens, and renders either a keypad UI on
// the framebuffer or a tape of key presses on the terminal service.
package calculator

import (
	"fmt"

	"pocketcalc/hal"
	"pocketcalc/internal/fbdraw"
	"pocketcalc/sparkos/calc"
	logclient "pocketcalc/sparkos/client/logger"
	termclient "pocketcalc/sparkos/client/term"
	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/proto"
)

const (
	// termRetryTicks bounds how long a tape line waits for terminal queue space.
	termRetryTicks  = 16
	replyRetryTicks = 4
)

// Options wires optional services into the task.
type Options struct {
	// LogCap receives key and ignored-input log lines.
	LogCap kernel.Capability
	// TermCap switches rendering to a tape on the terminal service.
	TermCap kernel.Capability
}

// Task runs the calculator. Messages are handled one at a time on the task
// goroutine, which is the only owner of the calculator state.
type Task struct {
	disp hal.Display
	ep   kernel.Capability
	opts Options

	calc *calc.Calculator

	fb hal.Framebuffer
	d  *fbdraw.Display

	sel   int
	inbuf []byte
}

func New(disp hal.Display, ep kernel.Capability, opts Options) *Task {
	return &Task{
		disp: disp,
		ep:   ep,
		opts: opts,
		calc: calc.New(),
		sel:  defaultSelection(),
	}
}

func defaultSelection() int {
	for i, tok := range calc.Keypad {
		if tok == "5" {
			return i
		}
	}
	return 0
}

func (t *Task) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(t.ep)
	if !ok {
		return
	}

	if t.tape() {
		termclient.Clear(ctx, t.opts.TermCap)
		t.writeTape(ctx, fmt.Sprintf("calc %s\n", t.calc.Display()))
	} else if t.disp != nil {
		t.fb = t.disp.Framebuffer()
		if t.fb != nil {
			t.d = fbdraw.New(t.fb)
		}
	}
	t.render()

	for msg := range ch {
		t.handleMessage(ctx, msg)
	}
}

func (t *Task) tape() bool { return t.opts.TermCap.Valid() }

func (t *Task) handleMessage(ctx *kernel.Context, msg kernel.Message) {
	switch proto.Kind(msg.Kind) {
	case proto.MsgTermInput:
		t.handleInput(ctx, msg.Payload())

	case proto.MsgCalcKey:
		token, ok := proto.DecodeCalcKeyPayload(msg.Payload())
		if !ok {
			t.replyError(ctx, msg.Cap, proto.ErrBadMessage, proto.MsgCalcKey)
			t.logf(ctx, "calc: malformed key payload (%d bytes)", msg.Len)
			return
		}
		t.press(ctx, token)

	case proto.MsgCalcReset:
		t.press(ctx, calc.TokenClear)

	case proto.MsgCalcDisplay:
		if !msg.Cap.Valid() {
			return
		}
		payload, ok := proto.CalcDisplayRespPayload(t.calc.Display(), kernel.MaxMessageBytes)
		if !ok {
			t.replyError(ctx, msg.Cap, proto.ErrTooLarge, proto.MsgCalcDisplay)
			return
		}
		ctx.SendToCapRetry(msg.Cap, uint16(proto.MsgCalcDisplayResp), payload, kernel.Capability{}, replyRetryTicks)
	}
}

func (t *Task) handleInput(ctx *kernel.Context, b []byte) {
	t.inbuf = append(t.inbuf, b...)
	buf := t.inbuf

	for len(buf) > 0 {
		n, k, ok := nextKey(buf)
		if !ok {
			break
		}
		buf = buf[n:]
		t.handleKey(ctx, k)
	}

	t.inbuf = append(t.inbuf[:0], buf...)
}

func (t *Task) handleKey(ctx *kernel.Context, k key) {
	switch k.kind {
	case keyUp, keyDown, keyLeft, keyRight:
		if sel := moveSelection(t.sel, k.kind); sel != t.sel {
			t.sel = sel
			t.render()
		}
		return
	case keyTab:
		t.press(ctx, calc.Keypad[t.sel])
		return
	}
	if k.kind == keyRune && k.r == ' ' {
		t.press(ctx, calc.Keypad[t.sel])
		return
	}

	token, ok := tokenForKey(k)
	if !ok {
		t.logf(ctx, "calc: ignored key %q", describeKey(k))
		return
	}
	t.press(ctx, token)
}

// press applies one keypad token and publishes the new display.
func (t *Task) press(ctx *kernel.Context, token string) {
	if !t.calc.Dispatch(token) {
		t.logf(ctx, "calc: ignored key %q", token)
		return
	}
	for i, tok := range calc.Keypad {
		if tok == token {
			t.sel = i
			break
		}
	}

	display := t.calc.Display()
	t.logf(ctx, "calc: key=%s display=%s", token, display)
	if t.tape() {
		t.writeTape(ctx, tapeLine(token, display))
	}
	t.render()
}

func tapeLine(token, display string) string {
	return fmt.Sprintf("%-3s %s\n", token, display)
}

func (t *Task) writeTape(ctx *kernel.Context, s string) {
	if res := termclient.WriteString(ctx, t.opts.TermCap, s, termRetryTicks); res != kernel.SendOK {
		t.logf(ctx, "calc: tape write: %s", res)
	}
}

func (t *Task) replyError(ctx *kernel.Context, to kernel.Capability, code proto.ErrCode, ref proto.Kind) {
	if !to.Valid() {
		return
	}
	ctx.SendToCapRetry(to, uint16(proto.MsgError), proto.ErrorPayload(code, ref, nil), kernel.Capability{}, replyRetryTicks)
}

func (t *Task) logf(ctx *kernel.Context, format string, args ...any) {
	if !t.opts.LogCap.Valid() {
		return
	}
	logclient.Logf(ctx, t.opts.LogCap, format, args...)
}
