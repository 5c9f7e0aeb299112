package cache

import (
	"encoding/json"
	"testing"
)

func TestUnsetSentinel(t *testing.T) {
	u := Unset()
	if u.IsSet() || u.LastMillis != -1 || u.LastSteps != -1 {
		t.Fatalf("Unset() = %+v", u)
	}
	if !(State{LastMillis: -1, LastSteps: 0}).IsSet() {
		t.Fatalf("half-populated state must count as set")
	}
	if u.String() != "unset" {
		t.Fatalf("String() = %q", u.String())
	}
}

func TestNewSessionIsReproducible(t *testing.T) {
	const id = 0xABCDEF0123456789
	a, b := NewSession(id), NewSession(id)
	if a != b {
		t.Fatalf("NewSession differs: %+v vs %+v", a, b)
	}
	want := State{LastMillis: 0, LastSteps: 0, LastSeed: int32(0x23456789)}
	if a != want {
		t.Fatalf("NewSession(%#x) = %+v, want %+v", uint64(id), a, want)
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	in := State{LastMillis: 1<<40 + 7, LastSteps: 123456, LastSeed: -99}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
	if string(b) != `{"LastMilliseconds":1099511627783,"LastSteps":123456,"LastSeed":-99}` {
		t.Fatalf("wire form = %s", b)
	}
}

func TestNewSeedDeterministicAndSensitive(t *testing.T) {
	prev := State{LastMillis: 1000, LastSteps: 500, LastSeed: 42}
	base := NewSeed(prev, 2000, 900)
	if NewSeed(prev, 2000, 900) != base {
		t.Fatalf("NewSeed is not deterministic")
	}

	tcs := []struct {
		name   string
		prev   State
		millis int64
		steps  int64
	}{
		{"millis", prev, 2001, 900},
		{"steps", prev, 2000, 901},
		{"prev seed", State{1000, 500, 43}, 2000, 900},
		{"prev millis", State{1001, 500, 42}, 2000, 900},
	}
	for _, tc := range tcs {
		if NewSeed(tc.prev, tc.millis, tc.steps) == base {
			t.Fatalf("changing %s kept seed %d", tc.name, base)
		}
	}
}
