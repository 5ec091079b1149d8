package kw41z

// PA_PWR settings indexed by the lowest requested power (dBm, exclusive)
// that still selects them. Anything at or below the last threshold gets 0.
var paPowerSteps = [...]struct {
	above int8
	pwr   uint32
}{
	{2, 30},
	{1, 24},
	{-1, 18},
	{-3, 14},
	{-4, 12},
	{-6, 10},
	{-8, 8},
	{-11, 6},
	{-14, 4},
	{-20, 2},
}

// paPower maps a transmit power in dBm to a PA_PWR register value.
func paPower(dbm int8) uint32 {
	for _, s := range paPowerSteps {
		if dbm > s.above {
			return s.pwr
		}
	}
	return 0
}

// sequence reads the active hardware sequence.
// Call with lock held.
func (d *Device) sequence() Sequence {
	return Sequence(d.read(_PHY_CTRL) & _PHY_CTRL_XCVSEQ_MASK)
}

// startSequence selects seq and unmasks its completion interrupt.
// Call with lock held.
func (d *Device) startSequence(seq Sequence) {
	d.setBits(_PHY_CTRL, uint32(seq))
	d.clearBits(_PHY_CTRL, _PHY_CTRL_SEQMSK)
}

// waitIdle spins until the sequence manager reports idle.
// Call with lock held.
func (d *Device) waitIdle() {
	d.spin("sequence idle", func() bool {
		return d.read(_SEQ_STATE)&_SEQ_STATE_MASK != 0
	})
}

// abort stops the running sequence and leaves the transceiver idle with the
// sequence interrupt masked. TMR1 and TMR4 status bits are left untouched.
// Call with lock held.
func (d *Device) abort() {
	d.setBits(_PHY_CTRL, _PHY_CTRL_SEQMSK)

	// A timer-triggered sequence may already be starting; let the TSM get
	// going before the trigger is pulled.
	if d.read(_PHY_CTRL)&_PHY_CTRL_TMRTRIGEN != 0 {
		d.clearBits(_PHY_CTRL, _PHY_CTRL_TMRTRIGEN)
		d.spin("TSM start", func() bool {
			return d.read(_XCVR_CTRL)&_XCVR_CTRL_TSM_COUNT_MASK == 0
		})
	}

	if d.read(_PHY_CTRL)&_PHY_CTRL_XCVSEQ_MASK != 0 {
		d.clearBits(_PHY_CTRL, _PHY_CTRL_XCVSEQ_MASK)
		d.waitIdle()
	}

	d.clearBits(_PHY_CTRL, _PHY_CTRL_TMR2CMP_EN|_PHY_CTRL_TMR3CMP_EN)
	d.clearBits(_IRQSTS, _IRQSTS_TMR1IRQ|_IRQSTS_TMR4IRQ)
}

// setChannel programs the channel register only when it changes.
// Call with lock held.
func (d *Device) setChannel(channel uint8) {
	if d.channel != channel {
		d.write(_CHANNEL_NUM0, uint32(channel))
		d.channel = channel
	}
}

// Call with lock held.
func (d *Device) setTxPower(dbm int8) {
	d.write(_PA_PWR, paPower(dbm))
}

// setCCAType selects the CCA mode used by the next sequence.
// Call with lock held.
func (d *Device) setCCAType(mode uint32) {
	ctrl := d.read(_PHY_CTRL) &^ _PHY_CTRL_CCATYPE_MASK
	d.write(_PHY_CTRL, ctrl|mode<<_PHY_CTRL_CCATYPE_SHIFT)
}
