package flash

import (
	"errors"
	"sync"
)

var ErrOutOfRange = errors.New("address out of range")

const (
	// KW41Z program flash geometry
	DefaultSize       = 512 * 1024
	DefaultSectorSize = 2 * 1024

	programUnit = 4
)

// Memory is a Controller backed by RAM that behaves like NOR flash: erase sets
// bytes to 0xFF and programming can only clear bits.
type Memory struct {
	mu         sync.Mutex
	data       []byte
	sectorSize uint32
}

// NewMemory returns an erased Memory. Zero arguments select the KW41Z geometry.
func NewMemory(size, sectorSize uint32) *Memory {
	if size == 0 {
		size = DefaultSize
	}
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	m := &Memory{data: make([]byte, size), sectorSize: sectorSize}
	for i := range m.data {
		m.data[i] = 0xFF
	}
	return m
}

func (m *Memory) Init() error        { return nil }
func (m *Memory) Size() uint32       { return uint32(len(m.data)) }
func (m *Memory) SectorSize() uint32 { return m.sectorSize }
func (m *Memory) Ready() bool        { return true }

func (m *Memory) inRange(addr uint32, n int) bool {
	return uint64(addr)+uint64(n) <= uint64(len(m.data))
}

func (m *Memory) Erase(addr, size uint32) error {
	if addr%m.sectorSize != 0 || size%m.sectorSize != 0 {
		return ErrAlignment
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.inRange(addr, int(size)) {
		return ErrOutOfRange
	}
	for i := addr; i < addr+size; i++ {
		m.data[i] = 0xFF
	}
	return nil
}

func (m *Memory) Program(addr uint32, data []byte) error {
	if addr%programUnit != 0 || len(data)%programUnit != 0 {
		return ErrAlignment
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.inRange(addr, len(data)) {
		return ErrOutOfRange
	}
	for i, b := range data {
		m.data[addr+uint32(i)] &= b
	}
	return nil
}

func (m *Memory) Read(addr uint32, buf []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if addr >= uint32(len(m.data)) {
		return 0
	}
	return copy(buf, m.data[addr:])
}
