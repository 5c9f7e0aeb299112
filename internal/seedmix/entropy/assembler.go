package entropy

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/metrics"
	"github.com/chenzhangda16/seedmix/pkg/hash"
	"github.com/chenzhangda16/seedmix/pkg/obs"
	"github.com/chenzhangda16/seedmix/pkg/rng"
)

var (
	ErrNoInterval = errors.New("entropy: interval cannot be empty")

	// ErrUnhandledInterval tells the host to use its own implementation.
	ErrUnhandledInterval = errors.New("entropy: interval not handled")
)

// Call site labels, also used for metrics.
const (
	SiteDaySave  = "day_save"
	SiteInterval = "interval"
	SiteGeneral  = "general"
	SiteSeed     = "general_seed"
)

// Assembler serializes call-site fields into entropy buffers and turns them
// into generators. It never mutates the cache.
//
// Every method reports whether the result is deterministic. A false means the
// caller got a fallback: the engine failed setup, or the cache is still unset.
type Assembler struct {
	engine *rng.Engine
	bufs   sync.Pool
}

// New binds an engine. A nil engine means setup failed; every call site
// then gets the fallback generator.
func New(engine *rng.Engine) *Assembler {
	a := &Assembler{engine: engine}
	a.bufs.New = func() any { return hash.NewBuilder(DaySaveLen) }
	if engine == nil {
		metrics.EngineActive.Set(0)
	} else {
		metrics.EngineActive.Set(1)
	}
	return a
}

func (a *Assembler) Active() bool { return a.engine != nil }

func (a *Assembler) Engine() *rng.Engine { return a.engine }

// DaySave is the generator for day-scoped rolls salted with three caller values.
func (a *Assembler) DaySave(g GameState, cell *cache.Cell, seedA, seedB, seedC float64) (*rand.Rand, bool) {
	st, ok := a.ready(SiteDaySave, cell)
	if !ok {
		return a.fallback(SiteDaySave), false
	}
	return a.generate(SiteDaySave, func(b *hash.Builder) {
		putDaySave(b, g, st, seedA, seedB, seedC)
	}), true
}

// Interval handles named interval generators. Only "day" (any case) is
// handled; other intervals return ErrUnhandledInterval and no generator.
// An empty interval is an error but still yields a fallback generator.
func (a *Assembler) Interval(interval, key string, g GameState, cell *cache.Cell) (*rand.Rand, bool, error) {
	if interval == "" {
		return rng.Fallback(), false, ErrNoInterval
	}
	if !strings.EqualFold(interval, "day") {
		return nil, false, ErrUnhandledInterval
	}
	st, ok := a.ready(SiteInterval, cell)
	if !ok {
		return a.fallback(SiteInterval), false, nil
	}
	return a.generate(SiteInterval, func(b *hash.Builder) {
		putInterval(b, key, g, st)
	}), true, nil
}

// General is the generator for five caller-supplied seed components.
func (a *Assembler) General(seedA, seedB, seedC, seedD, seedE float64) (*rand.Rand, bool) {
	if a.engine == nil {
		return a.fallback(SiteGeneral), false
	}
	return a.generate(SiteGeneral, func(b *hash.Builder) {
		putGeneral(b, seedA, seedB, seedC, seedD, seedE)
	}), true
}

// GeneralSeed condenses the five components and folds the hash to 32 bits
// for call sites that only take an int32 seed.
func (a *Assembler) GeneralSeed(seedA, seedB, seedC, seedD, seedE float64) (int32, bool) {
	if a.engine == nil {
		metrics.Generators.WithLabelValues(SiteSeed, metrics.ModeFallback).Inc()
		return rng.Fallback().Int32(), false
	}
	b := a.get()
	defer a.bufs.Put(b)
	putGeneral(b, seedA, seedB, seedC, seedD, seedE)

	metrics.Generators.WithLabelValues(SiteSeed, metrics.ModeDeterministic).Inc()
	return hash.Fold32(b.Sum64()), true
}

func (a *Assembler) ready(site string, cell *cache.Cell) (cache.State, bool) {
	if a.engine == nil {
		return cache.State{}, false
	}
	if cell == nil {
		obs.Once("entropy-nocell-"+site, "[entropy] no seed cell bound, using fallback: site=%s", site)
		return cache.State{}, false
	}
	st, ok := cell.Snapshot()
	if !ok {
		obs.Once(unsetLogKey(site, cell.Role()), "[entropy] seed state unset, using fallback: site=%s role=%s", site, cell.Role())
	}
	return st, ok
}

// unsetLogKey limits the unset warning to once per call site and role; the
// fallback metric carries the counts.
func unsetLogKey(site string, role cache.Role) string {
	return "entropy-unset-" + site + "-" + role.String()
}

func (a *Assembler) get() *hash.Builder {
	b := a.bufs.Get().(*hash.Builder)
	b.Reset()
	return b
}

func (a *Assembler) generate(site string, fill func(*hash.Builder)) *rand.Rand {
	b := a.get()
	defer a.bufs.Put(b)
	fill(b)

	metrics.Generators.WithLabelValues(site, metrics.ModeDeterministic).Inc()
	return a.engine.Generate(b.View())
}

func (a *Assembler) fallback(site string) *rand.Rand {
	if a.engine == nil {
		obs.Once("entropy-inactive", "[entropy] deterministic engine inactive, all call sites use fallback")
	}
	metrics.Generators.WithLabelValues(site, metrics.ModeFallback).Inc()
	return rng.Fallback()
}
