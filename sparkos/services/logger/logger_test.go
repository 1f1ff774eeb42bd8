package logger

import (
	"sync"
	"testing"
	"time"

	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/proto"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) WriteLineString(s string) { r.WriteLineBytes([]byte(s)) }

func (r *lineRecorder) WriteLineBytes(b []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, string(b))
}

func (r *lineRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type sender struct {
	to   kernel.Capability
	done chan struct{}
}

func (s sender) Run(ctx *kernel.Context) {
	ctx.SendToCapResult(s.to, uint16(proto.MsgTermWrite), []byte("not a log line"), kernel.Capability{})
	ctx.SendToCapResult(s.to, uint16(proto.MsgLogLine), []byte("calc: key=5 display=5"), kernel.Capability{})
	close(s.done)
}

func TestServiceWritesLogLinesOnly(t *testing.T) {
	rec := &lineRecorder{}
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	k.AddTask(New(rec, ep.Restrict(kernel.RightRecv)))

	done := make(chan struct{})
	k.AddTask(sender{to: ep.Restrict(kernel.RightSend), done: done})
	<-done

	deadline := time.After(500 * time.Millisecond)
	for {
		if lines := rec.snapshot(); len(lines) > 0 {
			if len(lines) != 1 || lines[0] != "calc: key=5 display=5" {
				t.Fatalf("unexpected lines %q", lines)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for log line")
		case <-time.After(time.Millisecond):
		}
	}
}
