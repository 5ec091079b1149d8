// Package random provides the pseudo and true random number sources used by
// the radio stack.
package random

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

var (
	ErrPkg         = errors.New("random")
	ErrInvalidArgs = errors.New("invalid arguments")
	ErrFailed      = errors.New("operation failed")
)

// TRNG is a hardware true random number generator.
type TRNG interface {
	// Fill fills p with entropy.
	Fill(p []byte) error
}

// Source serves fast pseudo random numbers seeded from a TRNG, and passes
// true random requests straight through. It is safe for concurrent use.
type Source struct {
	trng TRNG

	mu  sync.Mutex
	rng *rand.Rand
}

func New(trng TRNG) *Source {
	return &Source{
		trng: trng,
		rng:  rand.New(rand.NewPCG(0, 0)),
	}
}

// Init seeds the pseudo random generator from the TRNG. On failure the
// previous seed stays in effect.
func (s *Source) Init() error {
	var seed [16]byte
	if err := s.trng.Fill(seed[:]); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrPkg, ErrFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
	return nil
}

func (s *Source) Uint32() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint32()
}

// TrueRandom fills buf from the TRNG.
func (s *Source) TrueRandom(buf []byte) error {
	if len(buf) == 0 {
		return fmt.Errorf("%w: %w", ErrPkg, ErrInvalidArgs)
	}
	if err := s.trng.Fill(buf); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrPkg, ErrFailed, err)
	}
	return nil
}
