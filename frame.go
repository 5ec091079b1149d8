package kw41z

import (
	"fmt"

	"github.com/sigurn/crc16"
)

const (
	// MaxPHYPacketSize is the largest PSDU, FCS included.
	MaxPHYPacketSize = 127
	// FCSLength is the size of the frame check sequence appended by the hardware.
	FCSLength = 2

	_ACK_REQUEST = 1 << 5
)

var fcsTable = crc16.MakeTable(crc16.CRC16_KERMIT)

// Frame is a PHY service data unit plus its radio metadata.
//
// A transmit frame is filled by the caller and must not be modified until the
// matching TransmitDone notification. A received frame handed to ReceiveDone
// is only valid for the duration of the callback.
type Frame struct {
	// PSDU holds the frame bytes. The last FCSLength bytes of a frame are the
	// FCS, generated by the hardware on transmit.
	PSDU [MaxPHYPacketSize]byte
	// Length is the number of valid PSDU bytes, FCS included.
	Length uint8
	// Channel the frame is sent or was received on.
	Channel uint8
	// Power is the requested transmit power in dBm.
	Power int8
	// LQI is the adjusted link quality of a received frame.
	LQI uint8
	// RSSI is the received signal strength in dBm derived from LQI.
	RSSI int8
}

// SetPayload copies the MAC frame p into the PSDU and reserves room for the FCS.
func (f *Frame) SetPayload(p []byte) error {
	if len(p)+FCSLength > MaxPHYPacketSize {
		return fmt.Errorf("%w: %w: payload too large (%d bytes), max is %d",
			ErrPkg, ErrInvalidArgs, len(p), MaxPHYPacketSize-FCSLength)
	}
	copy(f.PSDU[:], p)
	f.Length = uint8(len(p) + FCSLength)
	return nil
}

// Payload returns the MAC frame without the FCS.
func (f *Frame) Payload() []byte {
	if f.Length < FCSLength {
		return nil
	}
	return f.PSDU[:f.Length-FCSLength]
}

// AckRequested reports whether the frame control field asks for an ACK.
func (f *Frame) AckRequested() bool {
	return f.Length > 0 && f.PSDU[0]&_ACK_REQUEST != 0
}

// FrameCheckSequence computes the IEEE 802.15.4 FCS (ITU-T CRC-16) of b.
func FrameCheckSequence(b []byte) uint16 {
	return crc16.Checksum(b, fcsTable)
}
