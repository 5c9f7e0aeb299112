package rng

import "math/bits"

// Xoshiro256 is xoshiro256** (Blackman and Vigna), four 64-bit state words.
type Xoshiro256 struct {
	s0, s1, s2, s3 uint64
}

// NewXoshiro256 builds the generator directly from a 4x64 state.
func NewXoshiro256(st State) *Xoshiro256 {
	return &Xoshiro256{st.Words[0], st.Words[1], st.Words[2], st.Words[3]}
}

func (x *Xoshiro256) Uint64() uint64 {
	result := bits.RotateLeft64(x.s1*5, 7) * 9
	t := x.s1 << 17

	x.s2 ^= x.s0
	x.s3 ^= x.s1
	x.s1 ^= x.s2
	x.s0 ^= x.s3

	x.s2 ^= t
	x.s3 = bits.RotateLeft64(x.s3, 45)

	return result
}

// State reports the current internal words.
func (x *Xoshiro256) State() State {
	return State{Layout: Layout4x64, Words: [MaxWords]uint64{x.s0, x.s1, x.s2, x.s3}}
}

// Xoroshiro64 is xoroshiro64** (Blackman and Vigna), two 32-bit state words.
type Xoroshiro64 struct {
	s0, s1 uint32
}

// NewXoroshiro64 builds the generator directly from a 2x32 state.
func NewXoroshiro64(st State) *Xoroshiro64 {
	return &Xoroshiro64{st.Word32(0), st.Word32(1)}
}

func (x *Xoroshiro64) Uint32() uint32 {
	s0, s1 := x.s0, x.s1
	result := bits.RotateLeft32(s0*0x9E3779BB, 5) * 5

	s1 ^= s0
	x.s0 = bits.RotateLeft32(s0, 26) ^ s1 ^ (s1 << 9)
	x.s1 = bits.RotateLeft32(s1, 13)

	return result
}

// Uint64 joins two consecutive 32-bit outputs, the first one in the high half.
func (x *Xoroshiro64) Uint64() uint64 {
	hi := x.Uint32()
	lo := x.Uint32()
	return uint64(hi)<<32 | uint64(lo)
}

func (x *Xoroshiro64) State() State {
	return State{Layout: Layout2x32, Words: [MaxWords]uint64{uint64(x.s0), uint64(x.s1)}}
}
