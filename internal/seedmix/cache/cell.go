package cache

import (
	"errors"
	"sync"

	"github.com/chenzhangda16/seedmix/internal/seedmix/metrics"
)

var (
	ErrNotOwner     = errors.New("cache: only the owner may update the seed state")
	ErrOwnerReplace = errors.New("cache: the owner's seed state cannot be replaced by a peer")
)

type Role int

const (
	Owner Role = iota
	Mirror
)

func (r Role) String() string {
	if r == Owner {
		return "owner"
	}
	return "mirror"
}

// Cell holds one State. The owner mutates it at day boundaries; a mirror only
// takes whole states received from the owner.
type Cell struct {
	role Role

	mu sync.RWMutex
	st State

	subMu sync.Mutex
	subs  map[uint64]chan State
	subID uint64
}

func newCell(role Role, st State) *Cell {
	return &Cell{role: role, st: st, subs: make(map[uint64]chan State)}
}

// NewOwner returns the authoritative cell, starting from st.
func NewOwner(st State) *Cell {
	return newCell(Owner, st)
}

// NewMirror returns an Unset read-only copy.
func NewMirror() *Cell {
	return newCell(Mirror, Unset())
}

func (c *Cell) Role() Role { return c.role }

// Snapshot returns the current state; ok is false while it is Unset.
func (c *Cell) Snapshot() (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st, c.st.IsSet()
}

// PopulateIfBlank fills sentinel observations from a first real one.
// It reports whether anything changed.
func (c *Cell) PopulateIfBlank(millis, steps int64) (bool, error) {
	if c.role != Owner {
		return false, ErrNotOwner
	}
	c.mu.Lock()
	changed := false
	if c.st.LastMillis == unset {
		c.st.LastMillis = millis
		changed = true
	}
	if c.st.LastSteps == unset {
		c.st.LastSteps = steps
		changed = true
	}
	st := c.st
	c.mu.Unlock()

	if changed {
		metrics.CacheUpdates.WithLabelValues("populate").Inc()
		c.broadcast(st)
	}
	return changed, nil
}

// Update records a day-boundary observation and derives a new LastSeed.
func (c *Cell) Update(millis, steps int64) (State, error) {
	if c.role != Owner {
		return State{}, ErrNotOwner
	}
	c.mu.Lock()
	c.st = State{
		LastMillis: millis,
		LastSteps:  steps,
		LastSeed:   NewSeed(c.st, millis, steps),
	}
	st := c.st
	c.mu.Unlock()

	metrics.CacheUpdates.WithLabelValues("update").Inc()
	c.broadcast(st)
	return st, nil
}

// Replace overwrites a mirror with a state received from the owner.
func (c *Cell) Replace(st State) error {
	if c.role == Owner {
		return ErrOwnerReplace
	}
	c.mu.Lock()
	c.st = st
	c.mu.Unlock()

	metrics.CacheUpdates.WithLabelValues("replace").Inc()
	c.broadcast(st)
	return nil
}

// Reset swaps in st wholesale on the owner, as on new game or load.
func (c *Cell) Reset(st State) error {
	if c.role != Owner {
		return ErrNotOwner
	}
	c.mu.Lock()
	c.st = st
	c.mu.Unlock()

	metrics.CacheUpdates.WithLabelValues("new").Inc()
	c.broadcast(st)
	return nil
}

// Drop returns the cell to Unset at session end. Any role may drop.
func (c *Cell) Drop() {
	c.mu.Lock()
	c.st = Unset()
	st := c.st
	c.mu.Unlock()

	metrics.CacheUpdates.WithLabelValues("drop").Inc()
	c.broadcast(st)
}

// Watch delivers the current state, then every later change. A slow watcher
// misses intermediate states; when its buffer is full the oldest queued state
// is dropped so the newest one is always delivered.
// cancel releases the subscription and closes the channel.
func (c *Cell) Watch(buffer int) (<-chan State, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	c.subMu.Lock()
	id := c.subID
	c.subID++
	ch := make(chan State, buffer)
	c.subs[id] = ch
	st, _ := c.Snapshot()
	ch <- st
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if ch, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

func (c *Cell) broadcast(st State) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- st:
		default:
			// full: drop the oldest and queue the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
