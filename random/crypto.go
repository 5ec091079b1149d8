package random

import "crypto/rand"

// CryptoTRNG draws entropy from the operating system.
type CryptoTRNG struct{}

func (CryptoTRNG) Fill(p []byte) error {
	_, err := rand.Read(p)
	return err
}
