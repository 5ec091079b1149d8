// Package flash provides page-level access to the KW41Z program flash used
// for non-volatile settings storage.
package flash

import (
	"errors"
	"fmt"
)

var (
	ErrPkg         = errors.New("flash")
	ErrInvalidArgs = errors.New("invalid arguments")
	ErrFailed      = errors.New("operation failed")
	ErrBusy        = errors.New("controller busy")

	// ErrAlignment is returned by a Controller when an address or size is not
	// a multiple of the required unit.
	ErrAlignment = errors.New("alignment error")
)

// Controller is the flash program/erase engine.
type Controller interface {
	Init() error
	// Size is the program flash block size in bytes.
	Size() uint32
	// SectorSize is the smallest erasable unit in bytes.
	SectorSize() uint32
	// Erase erases size bytes starting at addr.
	Erase(addr, size uint32) error
	// Program writes data at addr. Programming can only clear bits.
	Program(addr uint32, data []byte) error
	// Read copies flash content at addr into buf and returns the number of bytes copied.
	Read(addr uint32, buf []byte) int
	// Ready reports whether the last command has completed.
	Ready() bool
}

// Clock returns a free-running millisecond counter.
type Clock interface {
	NowMs() uint32
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint32

func (f ClockFunc) NowMs() uint32 { return f() }

// Flash wraps a Controller with the error conventions of the radio stack.
type Flash struct {
	ctrl  Controller
	clock Clock
}

func New(ctrl Controller, clock Clock) *Flash {
	return &Flash{ctrl: ctrl, clock: clock}
}

func (f *Flash) Init() error {
	if err := f.ctrl.Init(); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrPkg, ErrFailed, err)
	}
	return nil
}

func (f *Flash) Size() uint32 {
	return f.ctrl.Size()
}

// ErasePage erases the sector starting at addr. A misaligned addr yields
// ErrInvalidArgs, any other controller failure ErrFailed.
func (f *Flash) ErasePage(addr uint32) error {
	err := f.ctrl.Erase(addr, f.ctrl.SectorSize())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAlignment):
		return fmt.Errorf("%w: %w (address 0x%08X)", ErrPkg, ErrInvalidArgs, addr)
	default:
		return fmt.Errorf("%w: %w: %w", ErrPkg, ErrFailed, err)
	}
}

// StatusWait polls the controller until it is ready or timeoutMs has
// elapsed. A zero timeout polls exactly once.
func (f *Flash) StatusWait(timeoutMs uint32) error {
	start := f.clock.NowMs()
	for {
		if f.ctrl.Ready() {
			return nil
		}
		if timeoutMs == 0 || f.clock.NowMs()-start >= timeoutMs {
			return fmt.Errorf("%w: %w", ErrPkg, ErrBusy)
		}
	}
}

// Write programs data at addr and returns the number of bytes written,
// which is 0 on failure.
func (f *Flash) Write(addr uint32, data []byte) int {
	if err := f.ctrl.Program(addr, data); err != nil {
		return 0
	}
	return len(data)
}

func (f *Flash) Read(addr uint32, buf []byte) int {
	return f.ctrl.Read(addr, buf)
}
