package hal

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestHostTimeAdvance(t *testing.T) {
	ht := newHostTime()
	base := time.Unix(100, 0)

	ht.advance(base)
	ht.advance(base.Add(500 * time.Microsecond))
	ht.advance(base.Add(3200 * time.Microsecond))

	var got []uint64
	for {
		select {
		case seq := <-ht.Ticks():
			got = append(got, seq)
			continue
		default:
		}
		break
	}
	want := []uint64{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got ticks %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got ticks %v, want %v", got, want)
		}
	}
}

func TestFramebufferClearRGB(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	if fb.StrideBytes() != 6 || len(fb.Buffer()) != 12 {
		t.Fatalf("unexpected geometry stride=%d len=%d", fb.StrideBytes(), len(fb.Buffer()))
	}
	fb.ClearRGB(0xff, 0, 0)
	buf := fb.Buffer()
	for i := 0; i < len(buf); i += 2 {
		if p := uint16(buf[i]) | uint16(buf[i+1])<<8; p != 0xf800 {
			t.Fatalf("pixel %d = %#04x, want 0xf800", i/2, p)
		}
	}
}

func TestExpandRGB565(t *testing.T) {
	src := []byte{0x00, 0xf8, 0xff, 0xff}
	dst := make([]byte, 8)
	expandRGB565(dst, src)
	want := []byte{0xff, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v, want %v", dst, want)
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.WriteLineString("a")
	l.WriteLineBytes([]byte("b"))
	if got := buf.String(); got != "a\nb\n" {
		t.Fatalf("got %q", got)
	}
}

func TestRunHeadlessTypesKeys(t *testing.T) {
	var kbd Keyboard
	steps := 0
	err := RunHeadless(context.Background(), func(h HAL) func() error {
		kbd = h.Input().Keyboard()
		return func() error {
			steps++
			return nil
		}
	}, HeadlessConfig{Enabled: true, Hz: 1000, Ticks: 5, Keys: "5+3"})
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if steps != 5 {
		t.Fatalf("expected 5 steps, got %d", steps)
	}

	var typed []rune
	for {
		select {
		case ev := <-kbd.Events():
			if !ev.Press {
				t.Fatalf("unexpected release event %+v", ev)
			}
			typed = append(typed, ev.Rune)
			continue
		default:
		}
		break
	}
	if string(typed) != "5+3" {
		t.Fatalf("typed %q, want %q", string(typed), "5+3")
	}
}

func TestRunHeadlessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunHeadless(ctx, func(HAL) func() error { return nil }, HeadlessConfig{Enabled: true})
	if err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestNewHostDevices(t *testing.T) {
	h := New()
	fb := h.Display().Framebuffer()
	if fb.Width() != hostScreenWidth || fb.Height() != hostScreenHeight {
		t.Fatalf("framebuffer %dx%d, want %dx%d", fb.Width(), fb.Height(), hostScreenWidth, hostScreenHeight)
	}
	if fb.Format() != PixelFormatRGB565 || fb.StrideBytes() != hostScreenWidth*2 {
		t.Fatalf("unexpected format %d stride %d", fb.Format(), fb.StrideBytes())
	}
	if h.Input().Keyboard().Events() == nil || h.Time().Ticks() == nil || h.Logger() == nil {
		t.Fatal("expected keyboard, ticks and logger")
	}
}
