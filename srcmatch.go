package kw41z

import "fmt"

// AddressChecksum computes the source match checksum the hardware compares
// against: the 16-bit wrapping sum of panID and addr read as little-endian
// words. addr holds a short address (2 bytes) or, if extended is set, an
// extended address (8 bytes).
func AddressChecksum(panID uint16, addr []byte, extended bool) uint16 {
	n := 2
	if extended {
		n = 8
	}
	sum := panID
	for i := 0; i+1 < n && i+1 < len(addr); i += 2 {
		sum += uint16(addr[i]) | uint16(addr[i+1])<<8
	}
	return sum
}

// EnableSrcMatch toggles hardware source address matching for frame-pending ACKs.
// This method is concurrent safe.
func (d *Device) EnableSrcMatch(enable bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if enable {
		d.setBits(_SAM_CTRL, _SAM_CTRL_SAP0_EN)
	} else {
		d.clearBits(_SAM_CTRL, _SAM_CTRL_SAP0_EN)
	}
}

// AddSrcMatchShortEntry adds a short address to the source match table.
// It returns ErrNoBufs if the table is full.
// This method is concurrent safe.
func (d *Device) AddSrcMatchShortEntry(addr uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addSrcMatchEntry(d.shortChecksum(addr), false)
}

// AddSrcMatchExtEntry adds an extended address, least significant byte first.
// It returns ErrNoBufs if the table is full.
// This method is concurrent safe.
func (d *Device) AddSrcMatchExtEntry(addr [8]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addSrcMatchEntry(AddressChecksum(d.panID, addr[:], true), true)
}

// ClearSrcMatchShortEntry removes a short address.
// It returns ErrNoAddress if no entry matches.
// This method is concurrent safe.
func (d *Device) ClearSrcMatchShortEntry(addr uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeSrcMatchEntry(d.shortChecksum(addr))
}

// ClearSrcMatchExtEntry removes an extended address.
// It returns ErrNoAddress if no entry matches.
// This method is concurrent safe.
func (d *Device) ClearSrcMatchExtEntry(addr [8]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeSrcMatchEntry(AddressChecksum(d.panID, addr[:], true))
}

// ClearSrcMatchShortEntries removes every short address entry.
// This method is concurrent safe.
func (d *Device) ClearSrcMatchShortEntries() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearSrcMatchKind(false)
}

// ClearSrcMatchExtEntries removes every extended address entry.
// This method is concurrent safe.
func (d *Device) ClearSrcMatchExtEntries() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearSrcMatchKind(true)
}

// Call with lock held.
func (d *Device) shortChecksum(addr uint16) uint16 {
	return AddressChecksum(d.panID, []byte{byte(addr), byte(addr >> 8)}, false)
}

// Call with lock held.
func (d *Device) isExtendedSlot(index int) bool {
	return d.extBitmap[index>>3]&(1<<(index&7)) != 0
}

// Call with lock held.
func (d *Device) markSlot(index int, extended bool) {
	if extended {
		d.extBitmap[index>>3] |= 1 << (index & 7)
	} else {
		d.extBitmap[index>>3] &^= 1 << (index & 7)
	}
}

// addSrcMatchEntry stores checksum in the first free hardware slot.
// Call with lock held.
func (d *Device) addSrcMatchEntry(checksum uint16, extended bool) error {
	d.write(_SAM_TABLE, _SAM_TABLE_FIND_FREE_IDX)
	d.spin("source match table", func() bool {
		return d.read(_SAM_TABLE)&_SAM_TABLE_SAM_BUSY != 0
	})

	index := int(d.read(_SAM_FREE_IDX) & _SAM_FREE_IDX_SAP0_1ST_MASK)
	if index >= d.config.SrcMatchEntries {
		globalLogger.Debug("Source match table full")
		return fmt.Errorf("%w: %w", ErrPkg, ErrNoBufs)
	}

	d.write(_SAM_TABLE, uint32(index)<<_SAM_TABLE_INDEX_SHIFT|
		uint32(checksum)<<_SAM_TABLE_CHECKSUM_SHIFT|
		_SAM_TABLE_INDEX_WR|
		_SAM_TABLE_INDEX_EN)
	d.markSlot(index, extended)
	return nil
}

// removeSrcMatchEntry invalidates the first slot holding checksum.
// Call with lock held.
func (d *Device) removeSrcMatchEntry(checksum uint16) error {
	for i := 0; i < d.config.SrcMatchEntries; i++ {
		d.write(_SAM_TABLE, uint32(i)<<_SAM_TABLE_INDEX_SHIFT)
		stored := uint16((d.read(_SAM_TABLE) & _SAM_TABLE_CHECKSUM_MASK) >> _SAM_TABLE_CHECKSUM_SHIFT)
		if stored == checksum {
			return d.removeSrcMatchIndex(i)
		}
	}
	return fmt.Errorf("%w: %w (checksum 0x%04X)", ErrPkg, ErrNoAddress, checksum)
}

// removeSrcMatchIndex invalidates slot index.
// Call with lock held.
func (d *Device) removeSrcMatchIndex(index int) error {
	if index < 0 || index >= d.config.SrcMatchEntries {
		return fmt.Errorf("%w: %w (index %d)", ErrPkg, ErrNoAddress, index)
	}

	d.write(_SAM_TABLE, uint32(0xFFFF)<<_SAM_TABLE_CHECKSUM_SHIFT|
		uint32(index)<<_SAM_TABLE_INDEX_SHIFT|
		_SAM_TABLE_INDEX_INV|
		_SAM_TABLE_INDEX_WR)
	d.markSlot(index, false)
	return nil
}

// clearSrcMatchKind removes every slot whose recorded kind matches extended.
// Call with lock held.
func (d *Device) clearSrcMatchKind(extended bool) {
	for i := 0; i < d.config.SrcMatchEntries; i++ {
		if d.isExtendedSlot(i) == extended {
			// index is always in range here
			_ = d.removeSrcMatchIndex(i)
		}
	}
}
