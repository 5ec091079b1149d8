package kw41z

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// State returns the logical radio state.
// This method is concurrent safe.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsEnabled reports whether the radio has been enabled.
// This method is concurrent safe.
func (d *Device) IsEnabled() bool {
	return d.State() != StateDisabled
}

// Enable unmasks the transceiver interrupt and moves the radio from Disabled
// to Sleep. Enabling an already enabled radio is a no-op that succeeds.
// This method is concurrent safe.
func (d *Device) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateDisabled {
		return nil
	}

	d.clearBits(_PHY_CTRL, _PHY_CTRL_TRCV_MSK)
	if err := d.config.IRQ.Enable(d.HandleInterrupt); err != nil {
		d.setBits(_PHY_CTRL, _PHY_CTRL_TRCV_MSK)
		return fmt.Errorf("failed to enable IRQ line: %w", err)
	}

	d.state = StateSleep
	globalLogger.Info("Radio enabled.")
	return nil
}

// Disable aborts any running sequence, masks the transceiver interrupt and
// moves the radio to Disabled.
// This method is concurrent safe.
func (d *Device) Disable() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateDisabled {
		return errState(d.state)
	}

	if err := d.config.IRQ.Disable(); err != nil {
		globalLogger.Warn("Failed to disable IRQ line")
	}
	d.abort()
	d.setBits(_PHY_CTRL, _PHY_CTRL_TRCV_MSK)
	d.scanning = false
	d.state = StateDisabled

	globalLogger.Info("Radio disabled.")
	return nil
}

// Sleep aborts any running sequence and moves the radio to Sleep.
// This method is concurrent safe.
func (d *Device) Sleep() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateTransmit || d.state == StateDisabled {
		return errState(d.state)
	}

	d.abort()
	d.scanning = false
	d.state = StateSleep
	return nil
}

// Receive starts listening on channel. If the transceiver is already
// receiving on that channel the call only re-asserts the Receive state.
// This method is concurrent safe.
func (d *Device) Receive(channel uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateTransmit || d.state == StateDisabled {
		return errState(d.state)
	}
	if err := checkChannel(channel); err != nil {
		return err
	}

	d.state = StateReceive
	if d.sequence() == SeqReceive && d.channel == channel {
		return nil
	}

	d.abort()

	// ACKs sent by the auto-ACK engine use the default power
	d.setTxPower(d.autoTxPower)
	d.setChannel(channel)
	d.rxFrame.Channel = channel

	d.ackIRQ()
	d.startSequence(SeqReceive)
	return nil
}

// Transmit sends f, waiting for an ACK if f requests one. The outcome is
// reported through Handler.TransmitDone; f must stay untouched until then.
// The radio returns to Receive when the transmission completes.
// This method is concurrent safe.
func (d *Device) Transmit(f *Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateTransmit || d.state == StateDisabled {
		return errState(d.state)
	}
	if f == nil || f.Length == 0 || f.Length > MaxPHYPacketSize {
		return fmt.Errorf("%w: %w: bad transmit frame", ErrPkg, ErrInvalidArgs)
	}
	if err := checkChannel(f.Channel); err != nil {
		return err
	}

	if d.sequence() != SeqIdle {
		d.abort()
	}

	d.setChannel(f.Channel)
	d.setTxPower(f.Power)

	d.scratch[0] = f.Length
	copy(d.scratch[1:], f.PSDU[:f.Length])
	d.bus.WritePacket(d.scratch[:1+int(f.Length)])

	d.setCCAType(_CCA_MODE1)
	d.ackIRQ()

	if f.AckRequested() {
		d.setBits(_PHY_CTRL, _PHY_CTRL_RXACKRQD)
		d.setBits(_PHY_CTRL, uint32(SeqTransmitReceive))
		d.armDeadline(d.ackDeadline(f.Length))
	} else {
		d.clearBits(_PHY_CTRL, _PHY_CTRL_RXACKRQD)
		d.setBits(_PHY_CTRL, uint32(SeqTransmit))
	}

	d.txFrame = f
	d.state = StateTransmit
	d.clearBits(_PHY_CTRL, _PHY_CTRL_SEQMSK)
	return nil
}

// EnergyScan samples the energy on channel for duration and reports the
// highest reading through Handler.EnergyScanDone.
// This method is concurrent safe.
func (d *Device) EnergyScan(channel uint8, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateTransmit || d.state == StateDisabled {
		return errState(d.state)
	}
	if err := checkChannel(channel); err != nil {
		return err
	}
	if duration < symbolTime || duration >= maxTimerSpan {
		return fmt.Errorf("%w: %w: scan duration %s outside [%s, %s)",
			ErrPkg, ErrInvalidArgs, duration, symbolTime, maxTimerSpan)
	}

	if d.sequence() != SeqIdle {
		d.abort()
	}

	d.maxED = math.MinInt8
	d.scanning = true
	d.setChannel(channel)
	d.setCCAType(_CCA_ED)
	d.ackIRQ()
	d.startSequence(SeqCCA)
	d.armDeadline(d.now() + symbols(duration))
	return nil
}

// SetDefaultTxPower sets the power in dBm used for automatic ACK frames.
// It takes effect at the next Receive.
// This method is concurrent safe.
func (d *Device) SetDefaultTxPower(dbm int8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoTxPower = dbm
}

// SetPanID sets the PAN identifier used for address filtering and source match checksums.
// This method is concurrent safe.
func (d *Device) SetPanID(panID uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.panID = panID
	d.write(_MACSHORTADDRS0, d.read(_MACSHORTADDRS0)&^_MACPANID0_MASK|uint32(panID))
}

// SetShortAddress sets the 16-bit short address used for address filtering.
// This method is concurrent safe.
func (d *Device) SetShortAddress(addr uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.write(_MACSHORTADDRS0, d.read(_MACSHORTADDRS0)&^_MACSHORTADDRS0_MASK|uint32(addr)<<_MACSHORTADDRS0_SHIFT)
}

// SetExtendedAddress sets the 64-bit extended address, least significant byte first.
// This method is concurrent safe.
func (d *Device) SetExtendedAddress(addr [8]byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.write(_MACLONGADDRS0_LSB, binary.LittleEndian.Uint32(addr[0:4]))
	d.write(_MACLONGADDRS0_MSB, binary.LittleEndian.Uint32(addr[4:8]))
}

// SetPromiscuous toggles promiscuous reception. In promiscuous mode any frame
// version and the ACK and reserved frame types pass the filter.
// This method is concurrent safe.
func (d *Device) SetPromiscuous(enable bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if enable {
		d.setBits(_PHY_CTRL, _PHY_CTRL_PROMISCUOUS)
		d.setBits(_RX_FRAME_FILTER, _RX_FRAME_FILTER_FRM_VER_MASK|
			_RX_FRAME_FILTER_ACK_FT|
			_RX_FRAME_FILTER_NS_FT)
		return
	}

	d.clearBits(_PHY_CTRL, _PHY_CTRL_PROMISCUOUS)
	filter := d.read(_RX_FRAME_FILTER) &^ (_RX_FRAME_FILTER_FRM_VER_MASK |
		_RX_FRAME_FILTER_ACK_FT |
		_RX_FRAME_FILTER_NS_FT |
		_RX_FRAME_FILTER_ACTIVE_PROMISCUOUS)
	d.write(_RX_FRAME_FILTER, filter|3<<_RX_FRAME_FILTER_FRM_VER_SHIFT)
}

// Promiscuous reports whether promiscuous reception is on.
// This method is concurrent safe.
func (d *Device) Promiscuous() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(_PHY_CTRL)&_PHY_CTRL_PROMISCUOUS != 0
}

// RSSI returns the last signal strength reading in dBm.
// This method is concurrent safe.
func (d *Device) RSSI() int8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int8(uint8((d.read(_LQI_AND_RSSI) & _RSSI_MASK) >> _RSSI_SHIFT))
}

// Capabilities reports the features the hardware handles on its own.
func (d *Device) Capabilities() Capabilities {
	return CapsAckTimeout | CapsEnergyScan
}

// ReceiveSensitivity returns the receiver sensitivity in dBm.
func (d *Device) ReceiveSensitivity() int8 {
	return receiveSensitivity
}

// IeeeEui64 returns the factory EUI-64, least significant byte first. When the
// radio MAC registers were never programmed the chip unique ID is used instead.
// This method is concurrent safe.
func (d *Device) IeeeEui64() [8]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	lo, hi := d.read(_RSIM_MAC_LSB), d.read(_RSIM_MAC_MSB)
	if lo == 0xFFFFFFFF && hi == 0xFF {
		lo, hi = d.read(_SIM_UIDL), d.read(_SIM_UIDML)
	}

	var eui [8]byte
	binary.LittleEndian.PutUint32(eui[0:4], lo)
	binary.LittleEndian.PutUint32(eui[4:8], hi)
	return eui
}

// TransmitBuffer returns a driver-owned frame callers may fill and pass to Transmit.
func (d *Device) TransmitBuffer() *Frame {
	return &d.txBuffer
}

// checkChannel rejects channels outside the 2.4 GHz O-QPSK band.
func checkChannel(channel uint8) error {
	if channel < minChannel || channel > maxChannel {
		return fmt.Errorf("%w: %w: channel %d, must be between %d and %d",
			ErrPkg, ErrInvalidArgs, channel, minChannel, maxChannel)
	}
	return nil
}
