package hash

import (
	"github.com/cespare/xxhash/v2"
)

// EmptyHash is Condense(nil): the xxHash64 (seed 0) of the empty buffer.
const EmptyHash uint64 = 0xEF46DB3751D8E999

// Condense folds an arbitrary-length buffer into one 64-bit value.
//
// The hash is xxHash64 with seed 0. It is stable across platforms and runs and
// is not cryptographic.
func Condense(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// KeyHash hashes a named key (UTF-8 bytes) into numeric form.
func KeyHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// Fold32 xors the high half of h onto the low half and keeps 32 bits.
// Callers that need only an int32 seed use this; it discards half the entropy.
func Fold32(h uint64) int32 {
	return int32(h ^ (h >> 32))
}
