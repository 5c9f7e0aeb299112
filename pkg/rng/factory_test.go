package rng

import "testing"

func TestFactoryNamedStreams(t *testing.T) {
	e, err := NewEngine(Xoshiro256SS)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	f1 := NewFactory(e, Deterministic, 1)
	f2 := NewFactory(e, Deterministic, 1)

	if f1.R("weather") != f1.R("weather") {
		t.Fatalf("R must cache streams by name")
	}
	for i := 0; i < 16; i++ {
		if a, b := f1.R("weather").Uint64(), f2.R("weather").Uint64(); a != b {
			t.Fatalf("output %d differs across factories: %#x != %#x", i, a, b)
		}
	}
	if NewFactory(e, Deterministic, 1).R("forage").Uint64() == NewFactory(e, Deterministic, 1).R("weather").Uint64() {
		t.Fatalf("different names produced the same first output")
	}
	if NewFactory(e, Deterministic, 2).R("weather").Uint64() == NewFactory(e, Deterministic, 1).R("weather").Uint64() {
		t.Fatalf("different base seeds produced the same first output")
	}
}

func TestFactoryRealModeDrawsBaseSeed(t *testing.T) {
	e, err := NewEngine(Xoshiro256SS)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	a, b := NewFactory(e, Real, 1), NewFactory(e, Real, 1)
	if a.Seed() == b.Seed() {
		t.Fatalf("real mode reused seed %d", a.Seed())
	}
}
