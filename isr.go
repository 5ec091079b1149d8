package kw41z

// LQIAdjust maps a raw hardware LQI reading onto the full 0..255 range.
// Readings of 220 and above saturate.
func LQIAdjust(hw uint8) uint8 {
	if hw >= 220 {
		return 255
	}
	return uint8(51 * uint32(hw) / 44)
}

// RSSIFromLQI derives the received signal strength in dBm from an adjusted LQI.
func RSSIFromLQI(lqi uint8) int8 {
	return int8((36*int32(lqi) - 9836) / 109)
}

// HandleInterrupt services a transceiver interrupt request. The InterruptLine
// calls it once per request; tests and custom adapters may call it directly.
// This method is concurrent safe.
func (d *Device) HandleInterrupt() {
	d.mu.Lock()
	defer d.mu.Unlock()

	// The line is masked while disabled, a request racing Disable is stale.
	if d.state == StateDisabled {
		return
	}
	d.interrupts.Add(1)

	seq := d.sequence()
	irq := d.read(_IRQSTS)
	d.write(_IRQSTS, irq)

	if irq&_IRQSTS_TMR3IRQ != 0 && irq&_IRQSTS_TMR3MSK == 0 {
		d.handleDeadline(seq, irq)
	}

	if d.read(_PHY_CTRL)&_PHY_CTRL_SEQMSK == 0 && irq&_IRQSTS_SEQIRQ != 0 {
		d.handleSequenceDone(seq, irq)
	}

	// Keep listening whenever the logical state says so.
	if d.state == StateReceive && d.sequence() == SeqIdle {
		d.waitIdle()
		d.ackIRQ()
		d.startSequence(SeqReceive)
	}
}

// handleDeadline ends an energy scan or declares a missing ACK.
// Call with lock held.
func (d *Device) handleDeadline(seq Sequence, irq uint32) {
	d.stopDeadline(irq)

	switch {
	case seq == SeqCCA:
		d.abort()
		d.scanning = false
		d.postEnergyScan(d.maxED)
	case seq == SeqTransmitReceive && irq&_IRQSTS_RXIRQ == 0:
		d.abort()
		d.state = StateReceive
		d.postTransmit(txResult{frame: d.txFrame, err: ErrNoAck})
	}
}

// handleSequenceDone collects the result of a completed sequence.
// Call with lock held.
func (d *Device) handleSequenceDone(seq Sequence, irq uint32) {
	d.clearBits(_PHY_CTRL, _PHY_CTRL_XCVSEQ_MASK)
	d.setBits(_PHY_CTRL, _PHY_CTRL_SEQMSK)

	switch seq {
	case SeqReceive:
		lqi := LQIAdjust(uint8(d.read(_LQI_AND_RSSI) & _LQI_VALUE_MASK))
		length := uint8((irq & _IRQSTS_RX_FRAME_LENGTH_MASK) >> _IRQSTS_RX_FRAME_LENGTH_SHIFT)
		d.rxFrame.Length = length
		d.rxFrame.LQI = lqi
		d.rxFrame.RSSI = RSSIFromLQI(lqi)
		d.bus.ReadPacket(d.rxFrame.PSDU[:length])
		d.postReceive(d.rxFrame)

	case SeqTransmit, SeqTransmitReceive:
		d.state = StateReceive
		res := txResult{frame: d.txFrame}
		if d.read(_PHY_CTRL)&_PHY_CTRL_CCABFRTX != 0 && irq&_IRQSTS_CCA != 0 {
			res.err = ErrChannelAccessFailure
		} else {
			res.framePending = irq&_IRQSTS_RX_FRM_PEND != 0
		}
		d.postTransmit(res)

	case SeqCCA:
		ed := int8(uint8((d.read(_LQI_AND_RSSI) & _CCA1_ED_FNL_MASK) >> _CCA1_ED_FNL_SHIFT))
		if ed > d.maxED {
			d.maxED = ed
		}
		if d.scanning {
			d.waitIdle()
			d.write(_IRQSTS, d.read(_IRQSTS)&_IRQSTS_TMR_ALL_MSK|_IRQSTS_SEQIRQ)
			d.startSequence(SeqCCA)
		}

	default:
		d.unexpected.Add(1)
		globalLogger.Warn("Unexpected sequence completion (" + seq.String() + "), aborting")
		d.abort()
	}
}
