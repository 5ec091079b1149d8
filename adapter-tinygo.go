//go:build tinygo

package kw41z

import (
	"device/arm"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

const (
	_RADIO_1_IRQn  = 31 // transceiver INT1, driven by the ZLL block
	_PKT_BUFFER_TX = _ZLL_BASE + 0x400
	_PKT_BUFFER_RX = _ZLL_BASE + 0x500
)

// mmioBus accesses the on-chip transceiver through its memory mapped registers.
type mmioBus struct{}

func reg32(reg Register) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(reg)))
}

func reg8(addr uintptr) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(addr))
}

func (mmioBus) Read(reg Register) uint32 {
	return reg32(reg).Get()
}

func (mmioBus) Write(reg Register, val uint32) {
	reg32(reg).Set(val)
}

func (mmioBus) ReadPacket(buf []byte) {
	for i := range buf {
		buf[i] = reg8(uintptr(_PKT_BUFFER_RX) + uintptr(i)).Get()
	}
}

func (mmioBus) WritePacket(buf []byte) {
	for i, b := range buf {
		reg8(uintptr(_PKT_BUFFER_TX) + uintptr(i)).Set(b)
	}
}

// nvicLine runs the interrupt handler in a goroutine. The hardware ISR masks
// the NVIC line and wakes the goroutine, which unmasks it again once the
// handler has acknowledged the transceiver status.
type nvicLine struct {
	handler func()
	pending chan struct{}
	enabled volatile.Register8
}

var radioLine = &nvicLine{pending: make(chan struct{}, 1)}

var radioIRQ = interrupt.New(_RADIO_1_IRQn, func(interrupt.Interrupt) {
	arm.DisableIRQ(_RADIO_1_IRQn)
	select {
	case radioLine.pending <- struct{}{}:
	default:
	}
})

func (l *nvicLine) serve() {
	for range l.pending {
		if l.enabled.Get() == 0 {
			continue
		}
		l.handler()
		if l.enabled.Get() != 0 {
			arm.EnableIRQ(_RADIO_1_IRQn)
		}
	}
}

func (l *nvicLine) Enable(handler func()) error {
	if l.handler == nil {
		go l.serve()
	}
	l.handler = handler
	select {
	case <-l.pending:
	default:
	}
	l.enabled.Set(1)
	radioIRQ.Enable()
	return nil
}

func (l *nvicLine) Disable() error {
	l.enabled.Set(0)
	arm.DisableIRQ(_RADIO_1_IRQn)
	return nil
}

// NewTinyGo creates a new driver for the on-chip transceiver of a KW41Z.
func NewTinyGo(c RadioConfig) (*Device, error) {
	return NewWithHardware(HardwareConfig{
		RadioConfig: c,
		IRQ:         radioLine,
	}, mmioBus{})
}
