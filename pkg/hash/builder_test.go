package hash

import (
	"bytes"
	"math"
	"testing"
)

func TestBuilderLittleEndianLayout(t *testing.T) {
	b := NewBuilder(0)
	b.PutU32(0x04030201).PutU64(0x0c0b0a0908070605).PutI32(-1).PutBool(true)

	want := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c,
		0xff, 0xff, 0xff, 0xff,
		0x01,
	}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("Bytes() = % x, want % x", got, want)
	}
	if b.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", b.Len(), len(want))
	}
}

func TestBuilderFloatUsesRawBits(t *testing.T) {
	b := NewBuilder(8).PutF64(1.0)
	want := []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("PutF64(1.0) = % x, want % x", got, want)
	}

	nz := NewBuilder(8).PutF64(math.Copysign(0, -1)).Sum64()
	pz := NewBuilder(8).PutF64(0).Sum64()
	if nz == pz {
		t.Fatalf("-0.0 and +0.0 must encode differently")
	}
}

func TestBuilderResetReuses(t *testing.T) {
	b := NewBuilder(16)
	b.PutU64(1).PutU64(2)
	first := b.Sum64()

	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() after Reset = %d", b.Len())
	}
	b.PutU64(1).PutU64(2)
	if got := b.Sum64(); got != first {
		t.Fatalf("Sum64 after reuse = %#x, want %#x", got, first)
	}
	if got := SumU64(1, 2); got != first {
		t.Fatalf("SumU64(1, 2) = %#x, want %#x", got, first)
	}
}

func TestBuilderBytesIsCopy(t *testing.T) {
	b := NewBuilder(4).PutU32(7)
	out := b.Bytes()
	out[0] = 0xff
	if b.View()[0] != 7 {
		t.Fatalf("Bytes() aliases the builder buffer")
	}
}
