package kw41z

import "time"

// Symbol-time constants. One event timer tick is one 16us symbol.
const (
	usPerSymbol       = 16
	symbolsPerOctet   = 2
	turnaroundSymbols = 12
	ccaSymbols        = 8
	phySHRSymbols     = 10
	ackWaitSymbols    = 54
)

// now returns the 24-bit free-running event timer. Values wrap; only
// differences modulo 2^24 are meaningful.
// Call with lock held.
func (d *Device) now() uint32 {
	return (d.read(_EVENT_TMR) >> _EVENT_TMR_SHIFT) & _EVENT_TMR_MASK
}

// Now returns the current event timer value in symbol ticks.
// This method is concurrent safe.
func (d *Device) Now() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now()
}

const (
	symbolTime = usPerSymbol * time.Microsecond
	// maxTimerSpan is one full turn of the 24-bit event timer.
	maxTimerSpan = (_EVENT_TMR_MASK + 1) * symbolTime
)

// symbols converts a duration to event timer ticks, truncating. Deadlines
// need at least one tick and less than maxTimerSpan.
func symbols(dur time.Duration) uint32 {
	return uint32(dur.Microseconds() / usPerSymbol)
}

// ackDeadline returns the absolute time by which the ACK for a frame of
// length octets must have been received.
// Call with lock held.
func (d *Device) ackDeadline(length uint8) uint32 {
	deadline := d.now()
	deadline += ((d.read(_XCVR_END_OF_SEQ) & _END_OF_TX_WU_MASK) >> _END_OF_TX_WU_SHIFT) >> 4
	deadline += ccaSymbols + turnaroundSymbols + phySHRSymbols +
		(1+uint32(length))*symbolsPerOctet + ackWaitSymbols
	return deadline
}

// armDeadline programs TMR3 to fire at the absolute tick abs, replacing any
// deadline still pending.
// Call with lock held.
func (d *Device) armDeadline(abs uint32) {
	d.clearBits(_PHY_CTRL, _PHY_CTRL_TMR3CMP_EN)
	d.write(_T3CMP, abs&_EVENT_TMR_MASK)

	// Acknowledge and unmask TMR3 only, keep the other timer masks as they are.
	sts := d.read(_IRQSTS) & _IRQSTS_TMR_ALL_MSK
	sts &^= _IRQSTS_TMR3MSK
	sts |= _IRQSTS_TMR3IRQ
	d.write(_IRQSTS, sts)

	d.setBits(_PHY_CTRL, _PHY_CTRL_TMR3CMP_EN)
}

// stopDeadline masks TMR3 and disables its comparator. irq is the status
// snapshot taken at interrupt entry.
// Call with lock held.
func (d *Device) stopDeadline(irq uint32) {
	d.write(_IRQSTS, irq|_IRQSTS_TMR3MSK)
	d.clearBits(_PHY_CTRL, _PHY_CTRL_TMR3CMP_EN)
}
