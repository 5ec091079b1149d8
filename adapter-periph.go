//go:build !tinygo

package kw41z

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// ErrBridgeIntegrity is recorded when the register bridge keeps answering
// with a bad checksum or status.
var ErrBridgeIntegrity = errors.New("register bridge integrity check failed")

// realPin wraps a gpio.PinIO to satisfy the Pin interface.
type realPin struct {
	gpio.PinIO
	stopWatch chan struct{}
}

func (p *realPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *realPin) In(pull Pull) error {
	var pPull gpio.Pull
	switch pull {
	case PullFloat:
		pPull = gpio.Float
	case PullDown:
		pPull = gpio.PullDown
	case PullUp:
		pPull = gpio.PullUp
	default:
		pPull = gpio.PullNoChange
	}
	return p.PinIO.In(pPull, gpio.NoEdge)
}

func (p *realPin) Read() Level {
	if p.PinIO.Read() == gpio.High {
		return High
	}
	return Low
}

func (p *realPin) Watch(edge Edge, handler func()) error {
	var pEdge gpio.Edge
	switch edge {
	case RisingEdge:
		pEdge = gpio.RisingEdge
	case FallingEdge:
		pEdge = gpio.FallingEdge
	case BothEdges:
		pEdge = gpio.BothEdges
	default:
		pEdge = gpio.NoEdge
	}

	if err := p.PinIO.In(gpio.PullUp, pEdge); err != nil {
		return err
	}

	stop := make(chan struct{})
	p.stopWatch = stop

	go func() {
		for {
			// -1 blocks until an edge arrives or the pin is reconfigured
			edged := p.PinIO.WaitForEdge(-1)
			select {
			case <-stop:
				return
			default:
			}
			if edged {
				handler()
			}
		}
	}()
	return nil
}

func (p *realPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
	}
	return p.PinIO.In(gpio.PullUp, gpio.NoEdge)
}

// pinLine drives an InterruptLine from the falling edge of an active-low IRQ pin.
type pinLine struct {
	pin Pin
}

// PinInterrupt returns an InterruptLine fed by the falling edges of pin.
func PinInterrupt(pin Pin) InterruptLine {
	return &pinLine{pin: pin}
}

func (l *pinLine) Enable(handler func()) error {
	if err := l.pin.In(PullUp); err != nil {
		return err
	}
	return l.pin.Watch(FallingEdge, handler)
}

func (l *pinLine) Disable() error {
	return l.pin.Unwatch()
}

// Register bridge opcodes and framing. The protocol is specific to this
// package and is served by bridge firmware on the KW41Z, not by the chip.
//
// Every transaction is one full-duplex SPI transfer: the command followed by
// padding, during which the bridge clocks out its reply. Register commands
// and short replies carry a CRC-8/MAXIM, packet bursts a CRC-16/KERMIT
// (little endian).
const (
	_BRIDGE_READ      = 0x01 // addr[4] crc8 -> ack val[4] crc8
	_BRIDGE_WRITE     = 0x02 // addr[4] val[4] crc8 -> ack crc8
	_BRIDGE_READ_PKT  = 0x03 // len crc8 -> ack data[len] crc16
	_BRIDGE_WRITE_PKT = 0x04 // len data[len] crc16 -> ack crc8
	_BRIDGE_ACK       = 0xA5
	_BRIDGE_NOP       = 0xFF
	_BRIDGE_RETRIES   = 3
	_BRIDGE_MAX_FRAME = 2 + 1 + MaxPHYPacketSize + 2 + 1 + MaxPHYPacketSize + 2
)

// spiBus reaches the transceiver register file through an SPI register bridge.
//
// The KW41Z has no SPI slave port onto its ZLL registers; the framing below is
// this package's own protocol. The far end of the link must be a KW41Z running
// custom bridge firmware that executes these commands against its registers
// and packet buffers.
type spiBus struct {
	conn  SPI
	crc8  *crc8.Table
	crc16 *crc16.Table
	tx    [_BRIDGE_MAX_FRAME]byte
	rx    [_BRIDGE_MAX_FRAME]byte

	errMu sync.Mutex
	err   error
}

func newSPIBus(conn SPI) *spiBus {
	return &spiBus{
		conn:  conn,
		crc8:  crc8.MakeTable(crc8.CRC8_MAXIM),
		crc16: crc16.MakeTable(crc16.CRC16_KERMIT),
	}
}

// Err returns the first transfer or integrity failure seen by the bus.
func (b *spiBus) Err() error {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.err
}

func (b *spiBus) fail(err error) {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	if b.err == nil {
		b.err = err
		globalLogger.Error("Register bridge failure: " + err.Error())
	}
}

// exchange clocks out the n-byte command already in tx followed by replyLen
// bytes of padding, and returns the reply once valid reports it intact.
func (b *spiBus) exchange(n, replyLen int, valid func(reply []byte) bool) ([]byte, bool) {
	total := n + replyLen
	for attempt := 0; attempt < _BRIDGE_RETRIES; attempt++ {
		for i := n; i < total; i++ {
			b.tx[i] = _BRIDGE_NOP
		}
		if err := b.conn.Tx(b.tx[:total], b.rx[:total]); err != nil {
			b.fail(fmt.Errorf("%w: SPI transfer: %w", ErrPkg, err))
			return nil, false
		}
		reply := b.rx[n:total]
		if reply[0] == _BRIDGE_ACK && valid(reply) {
			return reply, true
		}
		globalLogger.Debug("Register bridge reply rejected, retrying")
	}
	b.fail(fmt.Errorf("%w: %w", ErrPkg, ErrBridgeIntegrity))
	return nil, false
}

func (b *spiBus) crc8Valid(reply []byte) bool {
	last := len(reply) - 1
	return crc8.Checksum(reply[:last], b.crc8) == reply[last]
}

func (b *spiBus) crc16Valid(reply []byte) bool {
	last := len(reply) - 2
	return crc16.Checksum(reply[:last], b.crc16) == binary.LittleEndian.Uint16(reply[last:])
}

func (b *spiBus) Read(reg Register) uint32 {
	b.tx[0] = _BRIDGE_READ
	binary.LittleEndian.PutUint32(b.tx[1:5], uint32(reg))
	b.tx[5] = crc8.Checksum(b.tx[:5], b.crc8)

	reply, ok := b.exchange(6, 6, b.crc8Valid)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint32(reply[1:5])
}

func (b *spiBus) Write(reg Register, val uint32) {
	b.tx[0] = _BRIDGE_WRITE
	binary.LittleEndian.PutUint32(b.tx[1:5], uint32(reg))
	binary.LittleEndian.PutUint32(b.tx[5:9], val)
	b.tx[9] = crc8.Checksum(b.tx[:9], b.crc8)

	b.exchange(10, 2, b.crc8Valid)
}

func (b *spiBus) ReadPacket(buf []byte) {
	n := len(buf)
	b.tx[0] = _BRIDGE_READ_PKT
	b.tx[1] = byte(n)
	b.tx[2] = crc8.Checksum(b.tx[:2], b.crc8)

	reply, ok := b.exchange(3, 1+n+2, b.crc16Valid)
	if !ok {
		return
	}
	copy(buf, reply[1:1+n])
}

func (b *spiBus) WritePacket(buf []byte) {
	n := len(buf)
	b.tx[0] = _BRIDGE_WRITE_PKT
	b.tx[1] = byte(n)
	copy(b.tx[2:], buf)
	binary.LittleEndian.PutUint16(b.tx[2+n:], crc16.Checksum(b.tx[:2+n], b.crc16))

	b.exchange(2+n+2, 2, b.crc8Valid)
}

// Config holds the configuration for the Linux/periph.io driver.
type Config struct {
	RadioConfig
	// IRQPin is the GPIO pin number (BCM numbering) for the active-low interrupt request.
	// Defaults to 24 if not provided.
	IRQPin int
	// ResetPin is the GPIO pin number (BCM numbering) for the active-low reset.
	// Optional. If not provided, the transceiver is not reset.
	ResetPin int
	// SpiBusPath is the path to the SPI bus (e.g., "/dev/spidev0.0").
	// Defaults to "/dev/spidev0.0" if not provided.
	SpiBusPath string
	// SpiClockHz is the SPI clock frequency in Hz.
	// Defaults to 4000000 (4MHz) if not provided.
	SpiClockHz int
}

// New creates and initializes a new driver for Linux systems.
// It applies configuration defaults, opens the SPI register bridge and GPIO
// pins using periph.io, and programs the transceiver. The SPI peer must run
// the bridge firmware described on spiBus.
// It returns the initialized driver or an error if hardware initialization fails.
func New(c Config) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}

	if c.SpiBusPath == "" {
		c.SpiBusPath = "/dev/spidev0.0"
	}
	p, err := spireg.Open(c.SpiBusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port: %w", err)
	}

	if c.SpiClockHz == 0 {
		c.SpiClockHz = 4000000
	}
	conn, err := p.Connect(physic.Frequency(c.SpiClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create SPI connection: %w", err)
	}

	if c.IRQPin == 0 {
		c.IRQPin = 24
	}
	irqName := fmt.Sprintf("GPIO%d", c.IRQPin)
	realIrq := gpioreg.ByName(irqName)
	if realIrq == nil {
		p.Close()
		return nil, fmt.Errorf("failed to open IRQ pin %s", irqName)
	}

	var resetWrapper Pin
	if c.ResetPin != 0 {
		resetName := fmt.Sprintf("GPIO%d", c.ResetPin)
		realReset := gpioreg.ByName(resetName)
		if realReset == nil {
			p.Close()
			return nil, fmt.Errorf("failed to open reset pin %s", resetName)
		}
		resetWrapper = &realPin{PinIO: realReset}
	}

	hwConfig := HardwareConfig{
		RadioConfig: c.RadioConfig,
		IRQ:         PinInterrupt(&realPin{PinIO: realIrq}),
		Reset:       resetWrapper,
	}
	dev, err := NewWithHardware(hwConfig, newSPIBus(conn))
	if err != nil {
		p.Close()
		return nil, err
	}

	dev.closer = p
	return dev, nil
}
