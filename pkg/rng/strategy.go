package rng

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Algorithm names the generator an Engine builds.
type Algorithm string

const (
	Xoshiro256SS  Algorithm = "xoshiro256"
	Xoroshiro64SS Algorithm = "xoroshiro64"
	PCG           Algorithm = "pcg"     // math/rand/v2.PCG, field injection
	ChaCha8       Algorithm = "chacha8" // math/rand/v2.ChaCha8, not injectable
)

var ErrUnknownAlgorithm = errors.New("unknown generator algorithm")

// Strategy materializes a generator whose internal state equals a State.
type Strategy interface {
	Layout() Layout
	Build(st State) rand.Source
}

type direct struct {
	layout Layout
	build  func(State) rand.Source
}

func (d direct) Layout() Layout { return d.layout }

func (d direct) Build(st State) rand.Source { return d.build(st) }

// NewStrategy binds the construction strategy for alg. Generators implemented
// in this package are built directly; foreign ones go through an Injector.
func NewStrategy(alg Algorithm) (Strategy, error) {
	switch alg {
	case "", Xoshiro256SS:
		return direct{Layout4x64, func(st State) rand.Source { return NewXoshiro256(st) }}, nil
	case Xoroshiro64SS:
		return direct{Layout2x32, func(st State) rand.Source { return NewXoroshiro64(st) }}, nil
	case PCG:
		return injected((*rand.PCG)(nil))
	case ChaCha8:
		return injected((*rand.ChaCha8)(nil))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
}

func injected(proto any) (Strategy, error) {
	j, err := NewInjector(proto)
	if err != nil {
		return nil, err
	}
	return j, nil
}
