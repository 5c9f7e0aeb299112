package hash

import (
	"testing"
)

func TestCondenseEmpty(t *testing.T) {
	if got := Condense(nil); got != EmptyHash {
		t.Fatalf("Condense(nil) = %#x, want %#x", got, EmptyHash)
	}
	if got := Condense([]byte{}); got != EmptyHash {
		t.Fatalf("Condense(empty) = %#x, want %#x", got, EmptyHash)
	}
	if got := KeyHash(""); got != EmptyHash {
		t.Fatalf("KeyHash(\"\") = %#x, want %#x", got, EmptyHash)
	}
}

func TestCondenseKnownVectors(t *testing.T) {
	tcs := []struct {
		in   string
		want uint64
	}{
		{"a", 0xd24ec4f1a98c6e5b},
		{"abc", 0x44bc2cf5ad770999},
	}
	for _, tc := range tcs {
		if got := Condense([]byte(tc.in)); got != tc.want {
			t.Fatalf("Condense(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
		if got := KeyHash(tc.in); got != tc.want {
			t.Fatalf("KeyHash(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
}

func TestCondenseStable(t *testing.T) {
	buf := []byte{0xef, 0xbe, 0xad, 0xde, 0, 0, 0, 0}
	first := Condense(buf)
	for i := 0; i < 100; i++ {
		if got := Condense(append([]byte(nil), buf...)); got != first {
			t.Fatalf("Condense changed between calls: %#x != %#x", got, first)
		}
	}
}

func TestFold32(t *testing.T) {
	tcs := []struct {
		in   uint64
		want int32
	}{
		{0, 0},
		{0x0000000100000001, 0},
		{0x00000000ffffffff, -1},
		{0x1234567800000000, 0x12345678},
		{0xffffffff00000000, -1},
	}
	for _, tc := range tcs {
		if got := Fold32(tc.in); got != tc.want {
			t.Fatalf("Fold32(%#x) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
