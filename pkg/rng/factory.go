package rng

import (
	"math/rand/v2"
	"sync"

	"github.com/chenzhangda16/seedmix/pkg/hash"
)

type Mode int

const (
	Deterministic Mode = iota
	Real
)

// Factory hands out named generator streams derived from one base seed.
type Factory struct {
	engine   *Engine
	baseSeed uint64
	mode     Mode

	mu      sync.Mutex
	streams map[string]*rand.Rand
}

func NewFactory(engine *Engine, mode Mode, seed uint64) *Factory {
	if mode == Real {
		// Real mode draws the base seed once; streams are still derived from it.
		seed = TrueRandom()
	}
	return &Factory{
		engine:   engine,
		baseSeed: seed,
		mode:     mode,
		streams:  make(map[string]*rand.Rand),
	}
}

func (f *Factory) Seed() uint64 { return f.baseSeed }

// R returns a named stream. The first call initializes and caches it; keep
// hot streams in a field instead of looking them up repeatedly.
func (f *Factory) R(name string) *rand.Rand {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r, ok := f.streams[name]; ok {
		return r
	}
	r := f.engine.Generate(streamSeed(f.baseSeed, name))
	f.streams[name] = r
	return r
}

func streamSeed(base uint64, name string) []byte {
	return hash.NewBuilder(8 + len(name)).PutU64(base).PutBytes([]byte(name)).Bytes()
}
