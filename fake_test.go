package kw41z

import "testing"

// --- Mocks ---

const fakeSAMSlots = 16

type samSlot struct {
	checksum uint16
	valid    bool
}

// fakeZLL models the parts of the transceiver register file the driver
// relies on: write-one-to-clear interrupt status, the sequence manager going
// idle a few polls after XCVSEQ is cleared, and the source match table.
type fakeZLL struct {
	regs map[Register]uint32

	settlePolls int // SEQ_STATE busy polls after a sequence is cleared
	busyPolls   int
	stuck       bool

	sam        [fakeSAMSlots]samSlot
	samIndex   int
	samBusy    int
	samFinds   int
	samWrites  int
	rxPacket   []byte
	txPacket   []byte
	writes     int
	lastWrites map[Register]uint32
}

func newFakeZLL() *fakeZLL {
	f := &fakeZLL{
		regs:        make(map[Register]uint32),
		lastWrites:  make(map[Register]uint32),
		settlePolls: 2,
	}
	for i := range f.sam {
		f.sam[i].checksum = 0xFFFF
	}
	// TSM counter running
	f.regs[_XCVR_CTRL] = 0x40 << _XCVR_CTRL_TSM_COUNT_SHIFT
	return f
}

func (f *fakeZLL) Read(reg Register) uint32 {
	switch reg {
	case _SEQ_STATE:
		if f.stuck {
			return 0x1
		}
		if f.busyPolls > 0 {
			f.busyPolls--
			return 0x1
		}
		return 0
	case _SAM_TABLE:
		v := uint32(f.sam[f.samIndex].checksum)
		if f.samBusy > 0 {
			f.samBusy--
			v |= _SAM_TABLE_SAM_BUSY
		}
		return v
	}
	return f.regs[reg]
}

func (f *fakeZLL) Write(reg Register, val uint32) {
	f.writes++
	f.lastWrites[reg] = val

	switch reg {
	case _IRQSTS:
		cur := f.regs[_IRQSTS]
		cur &^= val & 0x000FFFFF
		cur = cur&^_IRQSTS_TMR_ALL_MSK | val&_IRQSTS_TMR_ALL_MSK
		f.regs[_IRQSTS] = cur
	case _PHY_CTRL:
		old := f.regs[_PHY_CTRL]
		if old&_PHY_CTRL_XCVSEQ_MASK != 0 && val&_PHY_CTRL_XCVSEQ_MASK == 0 {
			f.busyPolls = f.settlePolls
		}
		f.regs[_PHY_CTRL] = val
	case _SAM_TABLE:
		f.samCommand(val)
	default:
		f.regs[reg] = val
	}
}

func (f *fakeZLL) samCommand(val uint32) {
	index := int((val & _SAM_TABLE_INDEX_MASK) >> _SAM_TABLE_INDEX_SHIFT)
	switch {
	case val&_SAM_TABLE_INVALIDATE_ALL != 0:
		for i := range f.sam {
			f.sam[i] = samSlot{checksum: 0xFFFF}
		}
	case val&_SAM_TABLE_FIND_FREE_IDX != 0:
		f.samFinds++
		f.samBusy = 2
		free := 0xFF
		for i := range f.sam {
			if !f.sam[i].valid {
				free = i
				break
			}
		}
		f.regs[_SAM_FREE_IDX] = uint32(free)
	case val&_SAM_TABLE_INDEX_WR != 0:
		f.samWrites++
		slot := &f.sam[index]
		slot.checksum = uint16(val & _SAM_TABLE_CHECKSUM_MASK)
		switch {
		case val&_SAM_TABLE_INDEX_INV != 0:
			slot.valid = false
		case val&_SAM_TABLE_INDEX_EN != 0:
			slot.valid = true
		}
	default:
		f.samIndex = index
	}
}

func (f *fakeZLL) ReadPacket(buf []byte) {
	copy(buf, f.rxPacket)
}

func (f *fakeZLL) WritePacket(buf []byte) {
	f.txPacket = append([]byte(nil), buf...)
}

func (f *fakeZLL) seq() Sequence {
	return Sequence(f.regs[_PHY_CTRL] & _PHY_CTRL_XCVSEQ_MASK)
}

func (f *fakeZLL) validSlots() int {
	n := 0
	for _, s := range f.sam {
		if s.valid {
			n++
		}
	}
	return n
}

type mockIRQ struct {
	handler  func()
	enabled  bool
	enables  int
	disables int
	err      error
}

func (m *mockIRQ) Enable(handler func()) error {
	m.enables++
	if m.err != nil {
		return m.err
	}
	m.handler = handler
	m.enabled = true
	return nil
}

func (m *mockIRQ) Disable() error {
	m.disables++
	m.enabled = false
	return nil
}

type mockPin struct {
	levels []Level
}

func (m *mockPin) Out(l Level) error {
	m.levels = append(m.levels, l)
	return nil
}

func (m *mockPin) In(Pull) error                         { return nil }
func (m *mockPin) Read() Level                           { return High }
func (m *mockPin) Watch(edge Edge, handler func()) error { return nil }
func (m *mockPin) Unwatch() error                        { return nil }

// recorder is a Handler that keeps every notification.
type recorder struct {
	tx []txResult
	rx []Frame
	ed []int8
}

func (r *recorder) TransmitDone(f *Frame, framePending bool, err error) {
	r.tx = append(r.tx, txResult{frame: f, framePending: framePending, err: err})
}

func (r *recorder) ReceiveDone(f *Frame, err error) {
	r.rx = append(r.rx, *f)
}

func (r *recorder) EnergyScanDone(maxEnergy int8) {
	r.ed = append(r.ed, maxEnergy)
}

type testRig struct {
	dev *Device
	hw  *fakeZLL
	irq *mockIRQ
	rec *recorder
}

func newTestRig(t *testing.T, c RadioConfig) *testRig {
	t.Helper()
	hw := newFakeZLL()
	irq := &mockIRQ{}
	rec := &recorder{}
	c.Handler = rec
	dev, err := NewWithHardware(HardwareConfig{RadioConfig: c, IRQ: irq}, hw)
	if err != nil {
		t.Fatalf("NewWithHardware failed: %v", err)
	}
	return &testRig{dev: dev, hw: hw, irq: irq, rec: rec}
}

func newEnabledRig(t *testing.T) *testRig {
	t.Helper()
	r := newTestRig(t, RadioConfig{})
	if err := r.dev.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	return r
}

// completeSequence raises the sequence-done interrupt with extra status bits.
func (r *testRig) completeSequence(extra uint32) {
	r.hw.regs[_IRQSTS] |= _IRQSTS_SEQIRQ | extra
	r.irq.handler()
}

// fireTimer3 raises the TMR3 compare interrupt.
func (r *testRig) fireTimer3() {
	r.hw.regs[_IRQSTS] |= _IRQSTS_TMR3IRQ
	r.irq.handler()
}

func ackFrame(payload ...byte) *Frame {
	f := &Frame{Channel: 15}
	// data frame, ACK requested
	f.SetPayload(append([]byte{0x21, 0x88, 0x01}, payload...))
	return f
}

func noAckFrame(payload ...byte) *Frame {
	f := &Frame{Channel: 15}
	f.SetPayload(append([]byte{0x01, 0x88, 0x01}, payload...))
	return f
}
