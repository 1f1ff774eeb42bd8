package term

import (
	"bytes"

	"pocketcalc/hal"
	"pocketcalc/internal/fbdraw"
	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/proto"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	fontHeight = 10
	fontOffset = 6
)

// Service renders MsgTermWrite bytes with tinyterm.
//
// The screen is cleared instead of scrolled: a write that would move the
// cursor onto the last row starts a fresh page first.
type Service struct {
	disp hal.Display
	ep   kernel.Capability

	fb hal.Framebuffer
	d  *fbdraw.Display
	t  *tinyterm.Terminal

	rows  int
	lines int
}

func New(disp hal.Display, ep kernel.Capability) *Service {
	return &Service{disp: disp, ep: ep}
}

func (s *Service) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(s.ep)
	if !ok {
		return
	}

	if s.disp == nil {
		return
	}
	s.fb = s.disp.Framebuffer()
	if s.fb == nil {
		return
	}

	s.d = fbdraw.New(s.fb)
	s.rows = s.fb.Height() / fontHeight
	s.reset()

	dirty := false

	done := make(chan struct{})
	defer close(done)

	tickCh := forwardTicks(ctx, done)

	for {
		select {
		case <-tickCh:
			if dirty {
				_ = s.d.Display()
				dirty = false
			}

		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch proto.Kind(msg.Kind) {
			case proto.MsgTermWrite:
				s.write(msg.Payload())
				dirty = true
			case proto.MsgTermClear:
				s.reset()
				dirty = true
			}
		}
	}
}

// forwardTicks delivers kernel ticks on the returned channel until done is
// closed; the channel is closed when the forwarder exits.
func forwardTicks(ctx *kernel.Context, done <-chan struct{}) <-chan uint64 {
	tickCh := make(chan uint64, 16)
	go func() {
		defer close(tickCh)
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
	return tickCh
}

func (s *Service) write(b []byte) {
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			_, _ = s.t.Write(b)
			return
		}
		if s.lines+1 >= s.rows-1 {
			s.reset()
		}
		_, _ = s.t.Write(b[:i+1])
		s.lines++
		b = b[i+1:]
	}
}

func (s *Service) reset() {
	s.t = tinyterm.NewTerminal(s.d)
	s.t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: fontHeight,
		FontOffset: fontOffset,
	})
	s.lines = 0
	s.fb.ClearRGB(0, 0, 0)
	_ = s.fb.Present()
}
