package kw41z

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameCheckSequence(t *testing.T) {
	if got := FrameCheckSequence([]byte("123456789")); got != 0x2189 {
		t.Errorf("Expected 0x2189, got 0x%04X", got)
	}
}

func TestFrame_SetPayload(t *testing.T) {
	var f Frame

	p := []byte{0x61, 0x88, 0x01, 'x'}
	if err := f.SetPayload(p); err != nil {
		t.Fatalf("SetPayload failed: %v", err)
	}
	if f.Length != uint8(len(p)+FCSLength) {
		t.Errorf("Expected length %d, got %d", len(p)+FCSLength, f.Length)
	}
	if !bytes.Equal(f.Payload(), p) {
		t.Errorf("Expected payload %X, got %X", p, f.Payload())
	}
	if !f.AckRequested() {
		t.Errorf("Expected ACK request bit to be detected")
	}

	if err := f.SetPayload(make([]byte, MaxPHYPacketSize-FCSLength)); err != nil {
		t.Errorf("Expected largest payload to fit, got %v", err)
	}
	if f.Length != MaxPHYPacketSize {
		t.Errorf("Expected length %d, got %d", MaxPHYPacketSize, f.Length)
	}

	err := f.SetPayload(make([]byte, MaxPHYPacketSize-FCSLength+1))
	if !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("Expected ErrInvalidArgs, got %v", err)
	}
}

func TestFrame_Empty(t *testing.T) {
	var f Frame
	if f.Payload() != nil {
		t.Errorf("Expected nil payload for empty frame")
	}
	if f.AckRequested() {
		t.Errorf("Expected no ACK request on empty frame")
	}
}
