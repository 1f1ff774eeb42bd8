// Package app wires the calculator system together: it creates the kernel
// endpoints, starts the services and the calculator task, and forwards HAL
// ticks into the kernel clock.
package app

import (
	"pocketcalc/hal"
	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/services/logger"
	"pocketcalc/sparkos/services/term"
	"pocketcalc/sparkos/services/termkbd"
	"pocketcalc/sparkos/tasks/calculator"
)

type system struct {
	k *kernel.Kernel

	logEP  kernel.Capability
	termEP kernel.Capability
	calcEP kernel.Capability
}

type Config struct {
	// Term renders a tape of key presses on the terminal instead of the keypad UI.
	Term bool
}

// New starts the system with default config.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, Config{})
}

// NewWithConfig starts the system and returns the host step function.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	_ = newSystem(h, cfg)
	return func() error { return nil }
}

func newSystem(h hal.HAL, cfg Config) *system {
	installPanicHandler(h)

	k := kernel.New()
	s := &system{
		k:      k,
		logEP:  k.NewEndpoint(kernel.RightSend | kernel.RightRecv),
		termEP: k.NewEndpoint(kernel.RightSend | kernel.RightRecv),
		calcEP: k.NewEndpoint(kernel.RightSend | kernel.RightRecv),
	}

	k.AddTask(logger.New(h.Logger(), s.logEP.Restrict(kernel.RightRecv)))

	opts := calculator.Options{LogCap: s.logEP.Restrict(kernel.RightSend)}
	if cfg.Term {
		k.AddTask(term.New(h.Display(), s.termEP.Restrict(kernel.RightRecv)))
		opts.TermCap = s.termEP.Restrict(kernel.RightSend)
	}
	k.AddTask(calculator.New(h.Display(), s.calcEP.Restrict(kernel.RightRecv), opts))
	k.AddTask(termkbd.New(h.Input(), s.calcEP.Restrict(kernel.RightSend)))

	if ht := h.Time(); ht != nil {
		if ch := ht.Ticks(); ch != nil {
			go func() {
				for seq := range ch {
					k.TickTo(seq)
				}
			}()
		}
	}

	return s
}
