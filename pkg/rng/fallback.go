package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Return an actually random number from the system's cryptographic randomness.
// This is not deterministic, obviously.
func TrueRandom() uint64 {
	var b [8]byte
	_, err := crand.Read(b[:])
	if err != nil {
		panic(fmt.Sprintf("cannot read system randomness: %v", err))
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Fallback returns an explicitly non-deterministic generator. It is what call
// sites get when deterministic seeding is unavailable.
func Fallback() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}
