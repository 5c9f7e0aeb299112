package cache

import (
	"fmt"

	"github.com/chenzhangda16/seedmix/pkg/hash"
	"github.com/chenzhangda16/seedmix/pkg/rng"
)

// unset is the sentinel for cached observations before the first population.
const unset = -1

// State is the per-save seed state: cached observations from the last day
// boundary plus the last derived seed, fed forward as extra entropy.
type State struct {
	LastMillis int64 `json:"LastMilliseconds"`
	LastSteps  int64 `json:"LastSteps"`
	LastSeed   int32 `json:"LastSeed"`
}

// Unset is the state before anything was loaded or observed.
func Unset() State {
	return State{LastMillis: unset, LastSteps: unset}
}

// NewSession is the state of a freshly created save. The seed comes from the
// session id so re-creating the same save reproduces it.
func NewSession(sessionID uint64) State {
	return State{LastMillis: 0, LastSteps: 0, LastSeed: int32(sessionID)}
}

func (s State) IsSet() bool {
	return !(s.LastMillis == unset && s.LastSteps == unset)
}

func (s State) String() string {
	if !s.IsSet() {
		return "unset"
	}
	return fmt.Sprintf("millis=%d steps=%d seed=%d", s.LastMillis, s.LastSteps, s.LastSeed)
}

// seedInputLen: prev millis, prev steps, prev seed, new millis, new steps.
const seedInputLen = 8 + 8 + 4 + 8 + 8

// NewSeed derives the next LastSeed from the previous state and a fresh
// observation: condense both, seed a Mixer, condense its next output and fold
// it to 32 bits.
func NewSeed(prev State, millis, steps int64) int32 {
	b := hash.NewBuilder(seedInputLen).
		PutI64(prev.LastMillis).
		PutI64(prev.LastSteps).
		PutI32(prev.LastSeed).
		PutI64(millis).
		PutI64(steps)
	next := rng.NewMixer(b.Sum64()).Next()
	return hash.Fold32(hash.SumU64(next))
}
