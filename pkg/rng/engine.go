package rng

import (
	"fmt"
	"math/rand/v2"

	"github.com/chenzhangda16/seedmix/pkg/hash"
)

// Engine turns entropy buffers into generators whose whole output sequence is
// a function of the buffer: Condense, Expand, then Build.
//
// The construction strategy is chosen once in NewEngine and never changes.
// An Engine is safe for concurrent use; the generators it returns are not.
type Engine struct {
	alg      Algorithm
	strategy Strategy
}

// NewEngine inspects the generator for alg. An error here is a setup failure:
// callers must not activate deterministic generation and should fall back to
// their default generator everywhere.
func NewEngine(alg Algorithm) (*Engine, error) {
	if alg == "" {
		alg = Xoshiro256SS
	}
	s, err := NewStrategy(alg)
	if err != nil {
		return nil, fmt.Errorf("rng: engine %s: %w", alg, err)
	}
	if err := s.Layout().Validate(); err != nil {
		return nil, fmt.Errorf("rng: engine %s: %w", alg, err)
	}
	return &Engine{alg: alg, strategy: s}, nil
}

func (e *Engine) Algorithm() Algorithm { return e.alg }

func (e *Engine) Layout() Layout { return e.strategy.Layout() }

// State returns the generator state derived from seed.
func (e *Engine) State(seed []byte) State {
	return Expand(hash.Condense(seed), e.strategy.Layout())
}

func (e *Engine) Source(seed []byte) rand.Source {
	return e.strategy.Build(e.State(seed))
}

// Generate returns a generator seeded from the entropy buffer.
func (e *Engine) Generate(seed []byte) *rand.Rand {
	return rand.New(e.Source(seed))
}
