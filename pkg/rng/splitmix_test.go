package rng

import "testing"

func TestMixerReferenceOutputs(t *testing.T) {
	tcs := []struct {
		seed uint64
		want []uint64
	}{
		{0, []uint64{0xe220a8397b1dcdaf, 0x6e789e6aa1b965f4, 0x06c45d188009454f}},
		{1234567, []uint64{6457827717110365317, 3203168211198807973}},
	}
	for _, tc := range tcs {
		m := NewMixer(tc.seed)
		for i, want := range tc.want {
			if got := m.Next(); got != want {
				t.Fatalf("seed %d output %d = %#x, want %#x", tc.seed, i, got, want)
			}
		}
	}
}

func TestMixerFill32PacksLowThenHigh(t *testing.T) {
	ref := NewMixer(99)
	a, b := ref.Next(), ref.Next()

	var w [4]uint32
	NewMixer(99).Fill32(w[:])
	want := [4]uint32{uint32(a), uint32(a >> 32), uint32(b), uint32(b >> 32)}
	if w != want {
		t.Fatalf("Fill32 = %#x, want %#x", w, want)
	}

	var odd [3]uint32
	NewMixer(99).Fill32(odd[:])
	if odd[0] != want[0] || odd[1] != want[1] || odd[2] != want[2] {
		t.Fatalf("Fill32 odd = %#x, want prefix of %#x", odd, want)
	}
}

func TestMixerFill64MatchesNext(t *testing.T) {
	ref := NewMixer(7)
	var w [4]uint64
	NewMixer(7).Fill64(w[:])
	for i := range w {
		if want := ref.Next(); w[i] != want {
			t.Fatalf("Fill64[%d] = %#x, want %#x", i, w[i], want)
		}
	}
}

func TestMixerFirstPairDoesNotRecur(t *testing.T) {
	m := NewMixer(0x5eed)
	first, second := m.Next(), m.Next()

	prev := second
	for i := 2; i < 10_000; i++ {
		cur := m.Next()
		if prev == first && cur == second {
			t.Fatalf("first output pair recurred at position %d", i-1)
		}
		prev = cur
	}
}

func TestMixerNoRepeatsInShortRun(t *testing.T) {
	m := NewMixer(42)
	seen := make(map[uint64]int, 10_000)
	for i := 0; i < 10_000; i++ {
		v := m.Next()
		if j, ok := seen[v]; ok {
			t.Fatalf("output %d repeats output %d: %#x", i, j, v)
		}
		seen[v] = i
	}
}
