package rng

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func deadbeef() []byte {
	return binary.LittleEndian.AppendUint32(nil, 0xdeadbeef)
}

func TestEngineGoldenOutputs(t *testing.T) {
	e, err := NewEngine(Xoshiro256SS)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	st := e.State(deadbeef())
	wantState := [MaxWords]uint64{0xe2ce57b7ea44207e, 0x53685fc79577af02, 0xd3eebfc505cab140, 0xdaa6fbf626f16367}
	if st.Words != wantState {
		t.Fatalf("state = %#x, want %#x", st.Words, wantState)
	}

	r := e.Generate(deadbeef())
	want := []uint64{0xac6b0aa304e1afd0, 0x6425734ee7f84a1d, 0xd95657e49465b56b, 0xc71c59b3d93268fa}
	for i, w := range want {
		if got := r.Uint64(); got != w {
			t.Fatalf("output %d = %#x, want %#x", i, got, w)
		}
	}
}

func TestEngineDeterministic(t *testing.T) {
	for _, alg := range []Algorithm{Xoshiro256SS, Xoroshiro64SS, PCG} {
		e, err := NewEngine(alg)
		if err != nil {
			t.Fatalf("NewEngine(%s): %v", alg, err)
		}
		seed := []byte("same entropy, same stream")
		a, b := e.Generate(seed), e.Generate(append([]byte(nil), seed...))
		for i := 0; i < 64; i++ {
			if x, y := a.Uint64(), b.Uint64(); x != y {
				t.Fatalf("%s: output %d differs: %#x != %#x", alg, i, x, y)
			}
		}
	}
}

func TestEngineLayouts(t *testing.T) {
	tcs := []struct {
		alg  Algorithm
		want Layout
	}{
		{"", Layout4x64},
		{Xoshiro256SS, Layout4x64},
		{Xoroshiro64SS, Layout2x32},
		{PCG, Layout{Words: 2, Width: 8}},
	}
	for _, tc := range tcs {
		e, err := NewEngine(tc.alg)
		if err != nil {
			t.Fatalf("NewEngine(%q): %v", tc.alg, err)
		}
		if e.Layout() != tc.want {
			t.Fatalf("NewEngine(%q).Layout() = %v, want %v", tc.alg, e.Layout(), tc.want)
		}
	}
}

func TestEngineTwoWordStatePacksOneDraw(t *testing.T) {
	e, err := NewEngine(Xoroshiro64SS)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	st := e.State(deadbeef())
	x := NewMixer(0xb42061f1515d4240).Next()
	if st.Word32(0) != uint32(x) || st.Word32(1) != uint32(x>>32) {
		t.Fatalf("state = %#x, want low/high of %#x", st.Words[:2], x)
	}
}

func TestEngineSetupFailures(t *testing.T) {
	if _, err := NewEngine(ChaCha8); !errors.Is(err, ErrUnknownLayout) {
		t.Fatalf("NewEngine(chacha8) error = %v, want %v", err, ErrUnknownLayout)
	}
	if _, err := NewEngine("mt19937"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("NewEngine(mt19937) error = %v, want %v", err, ErrUnknownAlgorithm)
	}
}

// Single-byte changes must change the very first output.
func TestEngineAvalanche(t *testing.T) {
	e, err := NewEngine(Xoshiro256SS)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	src := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 2000; n++ {
		buf := make([]byte, 48)
		for i := range buf {
			buf[i] = byte(src.Uint32())
		}
		base := e.Generate(buf).Uint64()

		pos := src.IntN(len(buf))
		buf[pos] ^= byte(1 + src.IntN(255))
		if got := e.Generate(buf).Uint64(); got == base {
			t.Fatalf("sample %d: flipping byte %d kept first output %#x", n, pos, got)
		}
	}
}

func TestEngineOutputLooksUniform(t *testing.T) {
	e, err := NewEngine(Xoshiro256SS)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	r := e.Generate(deadbeef())
	const n = 100_000
	var ones int
	for i := 0; i < n; i++ {
		if r.Uint64()&1 == 1 {
			ones++
		}
	}
	// 5 sigma around n/2.
	if dev := math.Abs(float64(ones) - n/2); dev > 5*math.Sqrt(n/4) {
		t.Fatalf("low bit set %d times out of %d", ones, n)
	}
}

func TestFallbackIsNotDeterministic(t *testing.T) {
	a, b := Fallback(), Fallback()
	same := true
	for i := 0; i < 4; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
		}
	}
	if same {
		t.Fatalf("two fallback generators produced identical output")
	}
}
