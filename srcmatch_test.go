package kw41z

import (
	"errors"
	"testing"
)

func TestAddressChecksum(t *testing.T) {
	tests := []struct {
		name     string
		panID    uint16
		addr     []byte
		extended bool
		want     uint16
	}{
		{"short", 0xABCD, []byte{0x34, 0x12}, false, 0xBE01},
		{"short wraps", 0xFFFF, []byte{0x02, 0x00}, false, 0x0001},
		{"extended", 0x0000, []byte{1, 2, 3, 4, 5, 6, 7, 8}, true, 0x1410},
		{"extended with pan", 0x1000, []byte{1, 2, 3, 4, 5, 6, 7, 8}, true, 0x2410},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddressChecksum(tt.panID, tt.addr, tt.extended); got != tt.want {
				t.Errorf("Expected 0x%04X, got 0x%04X", tt.want, got)
			}
		})
	}
}

func TestEnableSrcMatch(t *testing.T) {
	r := newEnabledRig(t)

	r.dev.EnableSrcMatch(true)
	if r.hw.regs[_SAM_CTRL]&_SAM_CTRL_SAP0_EN == 0 {
		t.Errorf("Expected source matching enabled")
	}
	r.dev.EnableSrcMatch(false)
	if r.hw.regs[_SAM_CTRL]&_SAM_CTRL_SAP0_EN != 0 {
		t.Errorf("Expected source matching disabled")
	}
}

func TestSrcMatch_AddAndClearShort(t *testing.T) {
	r := newEnabledRig(t)
	r.dev.SetPanID(0xABCD)

	if err := r.dev.AddSrcMatchShortEntry(0x1234); err != nil {
		t.Fatalf("AddSrcMatchShortEntry failed: %v", err)
	}
	slot := r.hw.sam[0]
	if !slot.valid || slot.checksum != 0xBE01 {
		t.Errorf("Expected slot 0 valid with checksum 0xBE01, got %+v", slot)
	}

	if err := r.dev.ClearSrcMatchShortEntry(0x1234); err != nil {
		t.Fatalf("ClearSrcMatchShortEntry failed: %v", err)
	}
	if r.hw.validSlots() != 0 {
		t.Errorf("Expected empty table, got %d entries", r.hw.validSlots())
	}

	r.dev.AddSrcMatchShortEntry(0x5678)
	before := r.hw.sam
	err := r.dev.ClearSrcMatchShortEntry(0x1234)
	if !errors.Is(err, ErrNoAddress) {
		t.Errorf("Expected ErrNoAddress, got %v", err)
	}
	if r.hw.sam != before {
		t.Errorf("Expected table unchanged after failed removal")
	}
}

func TestSrcMatch_AddAndClearExt(t *testing.T) {
	r := newEnabledRig(t)
	addr := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

	if err := r.dev.AddSrcMatchExtEntry(addr); err != nil {
		t.Fatalf("AddSrcMatchExtEntry failed: %v", err)
	}
	if !r.hw.sam[0].valid || r.hw.sam[0].checksum != 0x1410 {
		t.Errorf("Expected slot 0 valid with checksum 0x1410, got %+v", r.hw.sam[0])
	}
	if !r.dev.isExtendedSlot(0) {
		t.Errorf("Expected slot 0 recorded as extended")
	}

	if err := r.dev.ClearSrcMatchExtEntry(addr); err != nil {
		t.Fatalf("ClearSrcMatchExtEntry failed: %v", err)
	}
	if r.hw.validSlots() != 0 || r.dev.isExtendedSlot(0) {
		t.Errorf("Expected slot 0 released")
	}
}

func TestSrcMatch_TableFull(t *testing.T) {
	r := newTestRig(t, RadioConfig{SrcMatchEntries: 3})
	r.dev.Enable()

	for i := uint16(0); i < 3; i++ {
		if err := r.dev.AddSrcMatchShortEntry(0x0100 + i); err != nil {
			t.Fatalf("AddSrcMatchShortEntry %d failed: %v", i, err)
		}
	}
	before := r.hw.sam
	writes := r.hw.samWrites

	err := r.dev.AddSrcMatchShortEntry(0x0200)
	if !errors.Is(err, ErrNoBufs) {
		t.Errorf("Expected ErrNoBufs, got %v", err)
	}
	if r.hw.sam != before || r.hw.samWrites != writes {
		t.Errorf("Expected table unchanged on overflow")
	}
	if r.dev.isExtendedSlot(3) {
		t.Errorf("Expected bitmap unchanged on overflow")
	}
}

func TestSrcMatch_WaitsForFreeIndex(t *testing.T) {
	r := newEnabledRig(t)

	r.dev.AddSrcMatchShortEntry(0x0001)
	r.dev.AddSrcMatchShortEntry(0x0002)

	if r.hw.samFinds != 2 {
		t.Errorf("Expected 2 free index searches, got %d", r.hw.samFinds)
	}
	if r.hw.samBusy != 0 {
		t.Errorf("Expected driver to wait until the table is not busy")
	}
	if !r.hw.sam[1].valid || r.hw.sam[1].checksum != 0x0002 {
		t.Errorf("Expected second entry in slot 1, got %+v", r.hw.sam[1])
	}
}

func TestSrcMatch_ClearByKind(t *testing.T) {
	r := newEnabledRig(t)
	ext := [8]byte{0xAA, 0, 0, 0, 0, 0, 0, 0}

	r.dev.AddSrcMatchShortEntry(0x0001)
	r.dev.AddSrcMatchExtEntry(ext)
	r.dev.AddSrcMatchShortEntry(0x0003)

	r.dev.ClearSrcMatchShortEntries()
	if r.hw.sam[0].valid || r.hw.sam[2].valid {
		t.Errorf("Expected short entries removed")
	}
	if !r.hw.sam[1].valid {
		t.Errorf("Expected extended entry kept")
	}

	r.dev.AddSrcMatchShortEntry(0x0004)
	r.dev.ClearSrcMatchExtEntries()
	if r.hw.sam[1].valid {
		t.Errorf("Expected extended entry removed")
	}
	if !r.hw.sam[0].valid {
		t.Errorf("Expected short entry kept")
	}
}

func TestSrcMatch_RemoveIndexOutOfRange(t *testing.T) {
	r := newEnabledRig(t)
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()

	for _, i := range []int{-1, r.dev.config.SrcMatchEntries} {
		if err := r.dev.removeSrcMatchIndex(i); !errors.Is(err, ErrNoAddress) {
			t.Errorf("index %d: expected ErrNoAddress, got %v", i, err)
		}
	}
}
