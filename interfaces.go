package kw41z

// Level represents the logical level of a pin (Low or High).
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pull represents the internal pull-up/down resistor state.
type Pull uint8

const (
	PullNoChange Pull = iota
	PullFloat
	PullDown
	PullUp
)

// Edge represents the signal edge to trigger an interrupt.
type Edge uint8

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

// SPI represents a generic SPI connection.
type SPI interface {
	// Tx sends w and reads into r.
	// len(r) must be >= len(w).
	Tx(w, r []byte) error
}

// Pin represents a generic GPIO pin.
type Pin interface {
	// Out sets the pin as output with the given level.
	Out(l Level) error
	// In sets the pin as input with the given pull mode.
	In(pull Pull) error
	// Read returns the current level of the pin.
	Read() Level
	// Watch configures an interrupt/callback on the specified edge.
	// The handler should be called when the edge is detected.
	Watch(edge Edge, handler func()) error
	// Unwatch removes the interrupt/callback.
	Unwatch() error
}

// Bus gives the driver access to the transceiver register file and its
// packet buffers. Register accesses cannot fail on the MCU, so the interface
// carries no errors; adapters that can fail record the failure themselves.
type Bus interface {
	// Read returns the value of a 32-bit register.
	Read(reg Register) uint32
	// Write stores val into a 32-bit register.
	Write(reg Register, val uint32)
	// ReadPacket copies len(buf) bytes out of the receive packet buffer.
	ReadPacket(buf []byte)
	// WritePacket copies buf into the transmit packet buffer, starting with
	// the PHY length byte.
	WritePacket(buf []byte)
}

// InterruptLine is the transceiver interrupt request as routed to the host.
type InterruptLine interface {
	// Enable discards any pending request and starts calling handler for
	// each new one. Calls to handler are serialized and never happen from a
	// context that forbids blocking.
	Enable(handler func()) error
	// Disable masks the line. No handler call starts after Disable returns.
	Disable() error
}
