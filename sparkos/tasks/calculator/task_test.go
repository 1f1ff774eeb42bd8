package calculator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pocketcalc/hal"
	"pocketcalc/internal/fbdraw"
	"pocketcalc/sparkos/calc"
	calcclient "pocketcalc/sparkos/client/calc"
	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/proto"
)

type captureTask struct {
	ctx chan *kernel.Context
}

func (c captureTask) Run(ctx *kernel.Context) { c.ctx <- ctx }

type harness struct {
	t     *testing.T
	k     *kernel.Kernel
	ctx   *kernel.Context
	calc  kernel.Capability
	reply kernel.Capability
	log   kernel.Capability
	term  kernel.Capability
	task  *Task
}

type displayFunc func() hal.Framebuffer

func (f displayFunc) Framebuffer() hal.Framebuffer { return f() }

func newHarness(t *testing.T, fb hal.Framebuffer, tape bool) *harness {
	t.Helper()
	k := kernel.New()
	h := &harness{
		t:     t,
		k:     k,
		calc:  k.NewEndpoint(kernel.RightSend | kernel.RightRecv),
		reply: k.NewEndpoint(kernel.RightSend | kernel.RightRecv),
		log:   k.NewEndpoint(kernel.RightSend | kernel.RightRecv),
		term:  k.NewEndpoint(kernel.RightSend | kernel.RightRecv),
	}

	opts := Options{LogCap: h.log.Restrict(kernel.RightSend)}
	if tape {
		opts.TermCap = h.term.Restrict(kernel.RightSend)
	}
	var disp hal.Display
	if fb != nil {
		disp = displayFunc(func() hal.Framebuffer { return fb })
	}
	h.task = New(disp, h.calc.Restrict(kernel.RightRecv), opts)

	ch := make(chan *kernel.Context, 1)
	k.AddTask(captureTask{ctx: ch})
	h.ctx = <-ch
	k.AddTask(h.task)
	return h
}

// send delivers one message, waiting while the calculator queue is full.
func (h *harness) send(kind proto.Kind, payload []byte) {
	h.t.Helper()
	h.retry(kind.String(), func(to kernel.Capability) kernel.SendResult {
		return h.ctx.SendToCapResult(to, uint16(kind), payload, kernel.Capability{})
	})
}

// retry repeats send while the calculator queue is full.
func (h *harness) retry(what string, send func(kernel.Capability) kernel.SendResult) {
	h.t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		res := send(h.calc.Restrict(kernel.RightSend))
		if res == kernel.SendOK {
			return
		}
		if res != kernel.SendErrQueueFull || time.Now().After(deadline) {
			h.t.Fatalf("send %s: %s", what, res)
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) press(tokens ...string) {
	h.t.Helper()
	for _, tok := range tokens {
		h.retry(tok, func(to kernel.Capability) kernel.SendResult {
			return calcclient.Press(h.ctx, to, tok)
		})
	}
}

func (h *harness) display() string {
	h.t.Helper()
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := calcclient.Display(h.ctx, h.calc.Restrict(kernel.RightSend), h.reply)
		done <- result{text, err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			h.t.Fatalf("Display: %v", r.err)
		}
		return r.text
	case <-time.After(time.Second):
		h.t.Fatal("timed out waiting for display")
		return ""
	}
}

// drain collects payloads queued on ep until it stays empty briefly.
func (h *harness) drain(ep kernel.Capability, kind proto.Kind) []string {
	var out []string
	for {
		msg, ok := h.ctx.TryRecv(ep)
		if !ok {
			time.Sleep(5 * time.Millisecond)
			msg, ok = h.ctx.TryRecv(ep)
			if !ok {
				return out
			}
		}
		if proto.Kind(msg.Kind) == kind {
			out = append(out, string(msg.Payload()))
		}
	}
}

func split(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func TestTaskScenarios(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"5+3=", "8"},
		{"10-3=", "7"},
		{"6*7=", "42"},
		{"15/3=", "5"},
		{"10/0=", "0"},
		{"5+3*2=", "16"},
		{"50%", "0.5"},
	}
	for _, tt := range tests {
		h := newHarness(t, nil, false)
		h.press(split(tt.keys)...)
		if got := h.display(); got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.keys, got, tt.want)
		}
	}
}

func TestTaskKeyboardInput(t *testing.T) {
	h := newHarness(t, nil, false)
	h.send(proto.MsgTermInput, []byte("12x3\n"))
	if got := h.display(); got != "36" {
		t.Fatalf("got %q, want %q", got, "36")
	}

	h.send(proto.MsgTermInput, []byte("\x1b"))
	if got := h.display(); got != "0" {
		t.Fatalf("after Esc: got %q, want %q", got, "0")
	}
}

func TestTaskSplitEscapeSequence(t *testing.T) {
	h := newHarness(t, nil, false)
	// "5" is selected initially; Right moves to "6".
	h.send(proto.MsgTermInput, []byte("\x1b["))
	h.send(proto.MsgTermInput, []byte("C "))
	if got := h.display(); got != "6" {
		t.Fatalf("got %q, want %q", got, "6")
	}
}

func TestTaskKeypadNavigation(t *testing.T) {
	h := newHarness(t, nil, false)
	h.send(proto.MsgTermInput, []byte(" "))
	h.send(proto.MsgTermInput, []byte("\x1b[A\t"))
	if got := h.display(); got != "58" {
		t.Fatalf("got %q, want %q", got, "58")
	}
}

func TestTaskResetAndUnknownTokens(t *testing.T) {
	h := newHarness(t, nil, false)
	h.press("4", "2", "sqrt", "")
	if got := h.display(); got != "42" {
		t.Fatalf("got %q, want %q", got, "42")
	}
	h.retry("reset", func(to kernel.Capability) kernel.SendResult {
		return calcclient.Reset(h.ctx, to)
	})
	if got := h.display(); got != "0" {
		t.Fatalf("after reset: got %q, want %q", got, "0")
	}

	lines := strings.Join(h.drain(h.log.Restrict(kernel.RightRecv), proto.MsgLogLine), "\n")
	if !strings.Contains(lines, `calc: ignored key "sqrt"`) {
		t.Fatalf("missing ignored-key log in:\n%s", lines)
	}
	if !strings.Contains(lines, "calc: key=2 display=42") {
		t.Fatalf("missing key log in:\n%s", lines)
	}
}

func TestTaskMalformedKeyReplyError(t *testing.T) {
	h := newHarness(t, nil, false)
	res := h.ctx.SendToCapResult(h.calc.Restrict(kernel.RightSend), uint16(proto.MsgCalcKey), []byte{5, '1'}, h.reply.Restrict(kernel.RightSend))
	if res != kernel.SendOK {
		t.Fatalf("send: %s", res)
	}
	msg, ok := h.ctx.Recv(h.reply)
	if !ok {
		t.Fatal("expected a reply")
	}
	code, ref, _, ok := proto.DecodeErrorPayload(msg.Payload())
	if proto.Kind(msg.Kind) != proto.MsgError || !ok || code != proto.ErrBadMessage || ref != proto.MsgCalcKey {
		t.Fatalf("unexpected reply kind=%s code=%s ref=%s", proto.Kind(msg.Kind), code, ref)
	}
}

func TestTaskDisplayTooLarge(t *testing.T) {
	h := newHarness(t, nil, false)
	h.send(proto.MsgTermInput, []byte(strings.Repeat("7", kernel.MaxMessageBytes)))
	_, err := calcclient.Display(h.ctx, h.calc.Restrict(kernel.RightSend), h.reply)
	if !errors.Is(err, calcclient.ErrRemote) {
		t.Fatalf("got %v, want ErrRemote", err)
	}
}

func TestTaskTape(t *testing.T) {
	h := newHarness(t, nil, true)
	h.press("5", "+", "3", "=")
	if got := h.display(); got != "8" {
		t.Fatalf("got %q, want %q", got, "8")
	}

	writes := h.drain(h.term.Restrict(kernel.RightRecv), proto.MsgTermWrite)
	want := []string{"calc 0\n", "5   5\n", "+   5\n", "3   3\n", "=   8\n"}
	if strings.Join(writes, "") != strings.Join(want, "") {
		t.Fatalf("tape = %q, want %q", writes, want)
	}
}

func TestTaskRendersDisplay(t *testing.T) {
	fb := hal.NewFramebuffer(320, 320)
	h := newHarness(t, fb, false)
	h.press("8")
	if got := h.display(); got != "8" {
		t.Fatalf("got %q, want %q", got, "8")
	}

	d := fbdraw.New(fb)
	p := panelRect(320)
	text := fbdraw.RGB565(colorText)
	lit := 0
	for y := p.y; y < p.y+p.h; y++ {
		for x := p.x; x < p.x+p.w; x++ {
			if d.Pixel(x, y) == text {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("expected display digits in the panel")
	}

	sel := buttonRect(indexOf("8"), 320, 320)
	if got := d.Pixel(sel.x-1, sel.y-1); got != fbdraw.RGB565(colorSelected) {
		t.Fatalf("selected button border = %#04x, want %#04x", got, fbdraw.RGB565(colorSelected))
	}
}

func overlaps(a, b rect) bool {
	return a.x < b.x+b.w && b.x < a.x+a.w && a.y < b.y+b.h && b.y < a.y+a.h
}

func TestButtonRectsDoNotOverlap(t *testing.T) {
	const w, h = 320, 320
	p := panelRect(w)
	for i := range calc.Keypad {
		r := buttonRect(i, w, h)
		if r.w <= 0 || r.h <= 0 || r.x < 0 || r.y+r.h > h || r.x+r.w > w {
			t.Fatalf("button %d out of bounds: %+v", i, r)
		}
		if overlaps(p, r) {
			t.Fatalf("button %d overlaps the display panel", i)
		}
		for j := i + 1; j < len(calc.Keypad); j++ {
			o := buttonRect(j, w, h)
			if overlaps(r, o) {
				t.Fatalf("buttons %d and %d overlap", i, j)
			}
		}
	}
}

func TestFitText(t *testing.T) {
	width := func(s string) int16 { return int16(len(s)) * 10 }
	tests := []struct {
		in   string
		maxW int16
		want string
	}{
		{"42", 100, "42"},
		{"1234567890", 100, "1234567890"},
		{"12345678901", 100, "<345678901"},
		{"123", 5, "<"},
	}
	for _, tt := range tests {
		if got := fitText(tt.in, tt.maxW, width); got != tt.want {
			t.Fatalf("fitText(%q, %d) = %q, want %q", tt.in, tt.maxW, got, tt.want)
		}
	}
}

func TestStatusText(t *testing.T) {
	if got := statusText(calc.State{Display: "3"}); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := statusText(calc.State{Display: "3", Accumulator: 2.5, Pending: calc.OpMul}); got != "2.5 *" {
		t.Fatalf("got %q", got)
	}
}
