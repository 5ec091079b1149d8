package flash

import (
	"bytes"
	"errors"
	"testing"
)

type busyController struct {
	*Memory
	readyAfter int
	polls      int
	initErr    error
	eraseErr   error
}

func (c *busyController) Init() error { return c.initErr }

func (c *busyController) Ready() bool {
	c.polls++
	return c.readyAfter >= 0 && c.polls > c.readyAfter
}

func (c *busyController) Erase(addr, size uint32) error {
	if c.eraseErr != nil {
		return c.eraseErr
	}
	return c.Memory.Erase(addr, size)
}

type tickClock struct{ now uint32 }

func (c *tickClock) NowMs() uint32 {
	c.now++
	return c.now
}

func TestFlash_WriteRead(t *testing.T) {
	f := New(NewMemory(4096, 1024), &tickClock{})
	if err := f.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if f.Size() != 4096 {
		t.Errorf("expected size 4096, got %d", f.Size())
	}

	data := []byte{0x01, 0x02, 0x03, 0x04, 0xF0, 0x0F, 0xAA, 0x55}
	if n := f.Write(1024, data); n != len(data) {
		t.Fatalf("expected %d bytes written, got %d", len(data), n)
	}

	buf := make([]byte, len(data))
	if n := f.Read(1024, buf); n != len(buf) {
		t.Fatalf("expected %d bytes read, got %d", len(buf), n)
	}
	if !bytes.Equal(buf, data) {
		t.Errorf("expected %X, got %X", data, buf)
	}
}

func TestFlash_ProgramOnlyClearsBits(t *testing.T) {
	f := New(NewMemory(4096, 1024), &tickClock{})

	f.Write(0, []byte{0xF0, 0xF0, 0xF0, 0xF0})
	f.Write(0, []byte{0x3C, 0x3C, 0x3C, 0x3C})

	buf := make([]byte, 4)
	f.Read(0, buf)
	if buf[0] != 0x30 {
		t.Errorf("expected 0x30 after second program, got 0x%02X", buf[0])
	}

	if err := f.ErasePage(0); err != nil {
		t.Fatalf("ErasePage: %v", err)
	}
	f.Read(0, buf)
	if !bytes.Equal(buf, []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("expected erased bytes, got %X", buf)
	}
}

func TestFlash_WriteFailureReturnsZero(t *testing.T) {
	f := New(NewMemory(4096, 1024), &tickClock{})

	if n := f.Write(2, []byte{1, 2, 3, 4}); n != 0 {
		t.Errorf("expected 0 for misaligned write, got %d", n)
	}
	if n := f.Write(4096, []byte{1, 2, 3, 4}); n != 0 {
		t.Errorf("expected 0 for out of range write, got %d", n)
	}
}

func TestFlash_ErasePageErrors(t *testing.T) {
	f := New(NewMemory(4096, 1024), &tickClock{})

	err := f.ErasePage(100)
	if !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("expected ErrInvalidArgs for misaligned page, got %v", err)
	}
	err = f.ErasePage(8192)
	if !errors.Is(err, ErrFailed) {
		t.Errorf("expected ErrFailed for out of range page, got %v", err)
	}

	ctrl := &busyController{Memory: NewMemory(4096, 1024), eraseErr: errors.New("protection violation")}
	err = New(ctrl, &tickClock{}).ErasePage(0)
	if !errors.Is(err, ErrFailed) || !errors.Is(err, ErrPkg) {
		t.Errorf("expected wrapped ErrFailed, got %v", err)
	}
}

func TestFlash_InitFailure(t *testing.T) {
	ctrl := &busyController{Memory: NewMemory(4096, 1024), initErr: errors.New("no clock")}
	if err := New(ctrl, &tickClock{}).Init(); !errors.Is(err, ErrFailed) {
		t.Errorf("expected ErrFailed, got %v", err)
	}
}

func TestFlash_StatusWait(t *testing.T) {
	tests := []struct {
		name       string
		readyAfter int
		timeout    uint32
		wantErr    bool
		wantPolls  int
	}{
		{"ready immediately", 0, 10, false, 1},
		{"zero timeout polls once", 5, 0, true, 1},
		{"ready before timeout", 3, 100, false, 4},
		{"never ready", -1, 10, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &busyController{Memory: NewMemory(4096, 1024), readyAfter: tt.readyAfter}
			err := New(ctrl, &tickClock{}).StatusWait(tt.timeout)
			if tt.wantErr {
				if !errors.Is(err, ErrBusy) {
					t.Errorf("expected ErrBusy, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantPolls > 0 && ctrl.polls != tt.wantPolls {
				t.Errorf("expected %d polls, got %d", tt.wantPolls, ctrl.polls)
			}
		})
	}
}
