package kw41z

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrPkg                  = errors.New("kw41z")
	ErrInvalidState         = errors.New("operation not allowed in current radio state")
	ErrNoAck                = errors.New("no acknowledgement received")
	ErrChannelAccessFailure = errors.New("channel access failure")
	ErrNoBufs               = errors.New("source match table is full")
	ErrNoAddress            = errors.New("source match entry not found")
	ErrInvalidArgs          = errors.New("invalid arguments")
	ErrHardwareTimeout      = errors.New("timeout waiting for transceiver")
)

// State is the logical radio state exposed to the upper layer.
type State uint8

const (
	StateDisabled State = iota
	StateSleep
	StateReceive
	StateTransmit
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateSleep:
		return "sleep"
	case StateReceive:
		return "receive"
	case StateTransmit:
		return "transmit"
	default:
		return "unknown"
	}
}

// Sequence is the hardware sequence selected in PHY_CTRL.XCVSEQ.
type Sequence uint8

const (
	SeqIdle Sequence = iota
	SeqReceive
	SeqTransmit
	SeqCCA
	SeqTransmitReceive
	SeqContinuousCCA
)

func (s Sequence) String() string {
	switch s {
	case SeqIdle:
		return "idle"
	case SeqReceive:
		return "rx"
	case SeqTransmit:
		return "tx"
	case SeqCCA:
		return "cca"
	case SeqTransmitReceive:
		return "tr"
	case SeqContinuousCCA:
		return "ccca"
	default:
		return fmt.Sprintf("seq(%d)", uint8(s))
	}
}

// Capabilities advertised to the upper layer.
type Capabilities uint8

const (
	CapsAckTimeout Capabilities = 1 << iota
	CapsEnergyScan
)

const (
	maxSrcMatchEntries     = 16
	defaultSrcMatchEntries = 12
	defaultChannel         = 11
	minChannel             = 11
	maxChannel             = 26
	defaultSpinLimit       = 100000
	receiveSensitivity     = -100
)

type RadioConfig struct {
	// DefaultChannel is the IEEE 802.15.4 channel programmed at start-up.
	// Range: 11 to 26.
	// Defaults to 11 if not provided.
	DefaultChannel uint8
	// SrcMatchEntries is the number of source address match table slots in use.
	// Range: 1 to 16.
	// Defaults to 12 if not provided.
	SrcMatchEntries int
	// CCAThreshold is the energy level in dBm above which the channel is busy.
	// Defaults to -75 if not provided.
	CCAThreshold int8
	// LQICompensation is the offset the hardware adds to raw LQI readings.
	// Defaults to 96 if not provided.
	LQICompensation uint8
	// ACKDelay adjusts the automatic ACK turnaround, in symbols.
	// Defaults to -8 if not provided.
	ACKDelay int8
	// SpinLimit bounds every busy-wait on the transceiver state machine.
	// Exceeding it is treated as a hardware fault.
	// Defaults to 100000 iterations if not provided.
	SpinLimit int
	// Handler receives completion notifications from Process and Run.
	// Optional. Notifications are dropped if not provided.
	Handler Handler
}

type HardwareConfig struct {
	RadioConfig
	// IRQ is the transceiver interrupt line.
	IRQ InterruptLine
	// Reset is the transceiver reset pin, active low.
	// Optional. If not provided, no reset pulse is issued.
	Reset Pin
}

// Diagnostics holds counters maintained by the interrupt handler.
type Diagnostics struct {
	Interrupts          uint32
	UnexpectedSequences uint32
	DroppedEvents       uint32
}

type Device struct {
	config HardwareConfig
	bus    Bus
	closer io.Closer
	mu     sync.Mutex

	// Everything below is guarded by mu.
	state           State
	channel         uint8
	panID           uint16
	autoTxPower     int8
	maxED           int8
	scanning        bool
	extBitmap       [(maxSrcMatchEntries + 7) / 8]byte
	txFrame         *Frame
	txBuffer        Frame
	rxFrame         Frame
	scratch         [1 + MaxPHYPacketSize]byte

	txDone    mailbox[txResult]
	rxDone    mailbox[Frame]
	edDone    mailbox[int8]
	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// rxDelivered is only touched by the dispatcher.
	rxDelivered Frame

	interrupts atomic.Uint32
	unexpected atomic.Uint32
	dropped    atomic.Uint32
}

// NewWithHardware creates and initializes a new driver with the provided hardware interfaces.
// The radio starts disabled; call Enable before any other state transition.
func NewWithHardware(c HardwareConfig, bus Bus) (*Device, error) {
	if c.DefaultChannel == 0 {
		c.DefaultChannel = defaultChannel
	}
	if c.DefaultChannel < minChannel || c.DefaultChannel > maxChannel {
		return nil, fmt.Errorf("channel number must be between 11 and 26")
	}
	if c.SrcMatchEntries == 0 {
		c.SrcMatchEntries = defaultSrcMatchEntries
	}
	if c.SrcMatchEntries < 1 || c.SrcMatchEntries > maxSrcMatchEntries {
		return nil, fmt.Errorf("SrcMatchEntries must be between 1 and %d", maxSrcMatchEntries)
	}
	if c.CCAThreshold == 0 {
		c.CCAThreshold = -75
	}
	if c.LQICompensation == 0 {
		c.LQICompensation = 96
	}
	if c.ACKDelay == 0 {
		c.ACKDelay = -8
	}
	if c.SpinLimit <= 0 {
		c.SpinLimit = defaultSpinLimit
	}
	if c.Handler == nil {
		c.Handler = nopHandler{}
	}
	if c.IRQ == nil {
		return nil, fmt.Errorf("IRQ line not configured")
	}
	if bus == nil {
		return nil, fmt.Errorf("register bus not configured")
	}

	dev := &Device{
		config: c,
		bus:    bus,
		txDone: newMailbox[txResult](),
		rxDone: newMailbox[Frame](),
		edDone: newMailbox[int8](),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	if c.Reset != nil {
		globalLogger.Info("Resetting transceiver...")
		if err := c.Reset.Out(Low); err != nil {
			return nil, fmt.Errorf("failed to drive reset pin: %w", err)
		}
		time.Sleep(time.Millisecond)
		if err := c.Reset.Out(High); err != nil {
			return nil, fmt.Errorf("failed to release reset pin: %w", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	globalLogger.Info("Initializing 802.15.4 transceiver...")

	dev.mu.Lock()
	dev.initTransceiver()
	dev.mu.Unlock()

	if err := dev.Err(); err != nil {
		return nil, fmt.Errorf("failed to initialize transceiver: %w", err)
	}

	globalLogger.Info("Transceiver initialized. Radio disabled until enabled.")
	return dev, nil
}

// initTransceiver programs the power-on configuration.
// Call with lock held.
func (d *Device) initTransceiver() {
	// Timers off, auto-ACK and CCA before TX on, every interrupt source masked.
	d.write(_PHY_CTRL, _CCA_MODE1<<_PHY_CTRL_CCATYPE_SHIFT|
		_PHY_CTRL_CCABFRTX|
		_PHY_CTRL_TSM_MSK|
		_PHY_CTRL_WAKE_MSK|
		_PHY_CTRL_CRC_MSK|
		_PHY_CTRL_PLL_UNLOCK_MSK|
		_PHY_CTRL_FILTERFAIL_MSK|
		_PHY_CTRL_RX_WMRK_MSK|
		_PHY_CTRL_CCAMSK|
		_PHY_CTRL_RXMSK|
		_PHY_CTRL_TXMSK|
		_PHY_CTRL_SEQMSK|
		_PHY_CTRL_AUTOACK|
		_PHY_CTRL_TRCV_MSK)

	d.ackIRQ()

	// Accept frame versions 0 and 1 carrying beacon, data or command frames.
	d.write(_RX_FRAME_FILTER, 3<<_RX_FRAME_FILTER_FRM_VER_SHIFT|
		_RX_FRAME_FILTER_CMD_FT|
		_RX_FRAME_FILTER_DATA_FT|
		_RX_FRAME_FILTER_BEACON_FT)

	// 16us symbol time base for the event timer
	d.write(_TMR_PRESCALE, 0x05)

	cca := d.read(_CCA_LQI_CTRL) &^ (_CCA1_THRESH_MASK | _LQI_OFFSET_COMP_MASK)
	cca |= uint32(uint8(d.config.CCAThreshold))
	cca |= uint32(d.config.LQICompensation) << _LQI_OFFSET_COMP_SHIFT
	d.write(_CCA_LQI_CTRL, cca)

	ack := d.read(_ACKDELAY) &^ _ACKDELAY_MASK
	d.write(_ACKDELAY, ack|uint32(uint8(d.config.ACKDelay))&_ACKDELAY_MASK)

	d.setBits(_SAM_TABLE, _SAM_TABLE_INVALIDATE_ALL)

	d.setChannel(d.config.DefaultChannel)
	d.setTxPower(0)
}

func (d *Device) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return fmt.Sprintf("KW41Z(State=%s, Channel=%d, PanID=0x%04X, SrcMatchEntries=%d)",
		d.state,
		d.channel,
		d.panID,
		d.config.SrcMatchEntries,
	)
}

// Close disables the radio, stops Run and releases the underlying bus.
// This method is concurrent safe.
func (d *Device) Close() error {
	d.closeOnce.Do(func() { close(d.done) })

	if d.IsEnabled() {
		if err := d.Disable(); err != nil {
			globalLogger.Warn("Failed to disable radio on close")
		}
	}

	if d.closer != nil {
		if err := d.closer.Close(); err != nil {
			globalLogger.Warn("Failed to close register bus")
			return err
		}
		globalLogger.Info("Register bus closed.")
	}
	return nil
}

// Err reports a persistent failure of the register bus, if the bus tracks one.
func (d *Device) Err() error {
	if eb, ok := d.bus.(interface{ Err() error }); ok {
		return eb.Err()
	}
	return nil
}

// Diagnostics returns a snapshot of the interrupt handler counters.
func (d *Device) Diagnostics() Diagnostics {
	return Diagnostics{
		Interrupts:          d.interrupts.Load(),
		UnexpectedSequences: d.unexpected.Load(),
		DroppedEvents:       d.dropped.Load(),
	}
}

// --- Register access ---

func (d *Device) read(reg Register) uint32 {
	return d.bus.Read(reg)
}

func (d *Device) write(reg Register, val uint32) {
	d.bus.Write(reg, val)
}

func (d *Device) setBits(reg Register, mask uint32) {
	d.bus.Write(reg, d.bus.Read(reg)|mask)
}

func (d *Device) clearBits(reg Register, mask uint32) {
	d.bus.Write(reg, d.bus.Read(reg)&^mask)
}

// ackIRQ acknowledges every asserted interrupt status bit.
func (d *Device) ackIRQ() {
	d.write(_IRQSTS, d.read(_IRQSTS))
}

// spin busy-waits while busy reports true. The transceiver finishes the
// awaited micro-operation within microseconds; running past SpinLimit means
// the peripheral is wedged and the driver cannot continue.
func (d *Device) spin(what string, busy func() bool) {
	for i := 0; busy(); i++ {
		if i >= d.config.SpinLimit {
			globalLogger.Error("Transceiver stuck waiting for " + what)
			panic(fmt.Errorf("%w: %w: %s", ErrPkg, ErrHardwareTimeout, what))
		}
	}
}

func errState(s State) error {
	return fmt.Errorf("%w: %w (%s)", ErrPkg, ErrInvalidState, s)
}
