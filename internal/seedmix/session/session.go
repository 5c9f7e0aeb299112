// Package session binds the seed cell, its persistence and peer sync to the
// host game's lifecycle events.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync/atomic"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/entropy"
	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
	"github.com/chenzhangda16/seedmix/internal/seedmix/retry"
	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	"github.com/chenzhangda16/seedmix/pkg/rng"
)

var ErrNoSave = errors.New("session: no save loaded")

type Config struct {
	Self peersync.PeerID

	// Host makes this process the owner of the seed state. Everyone else
	// mirrors what the host sends.
	Host bool

	Store store.Store

	// Engine may be nil when setup failed; every call site then falls back.
	Engine *rng.Engine

	// Transport may be nil for a single-player session.
	Transport  peersync.Transport
	OutboxSize int
	Retry      retry.Policy
}

// Session is one running game as seen by this process.
type Session struct {
	self  peersync.PeerID
	store store.Store
	cell  *cache.Cell
	asm   *entropy.Assembler
	sync  *peersync.Syncer

	counter entropy.Counter
	saveID  atomic.Uint64
	loaded  atomic.Bool
}

func New(cfg Config) (*Session, error) {
	if cfg.Host && cfg.Store == nil {
		return nil, fmt.Errorf("session: host needs a store")
	}
	cell := cache.NewMirror()
	if cfg.Host {
		cell = cache.NewOwner(cache.Unset())
	}
	s := &Session{
		self:  cfg.Self,
		store: cfg.Store,
		cell:  cell,
		asm:   entropy.New(cfg.Engine),
	}
	if cfg.Transport != nil {
		s.sync = peersync.NewSyncer(peersync.Config{
			Self:       cfg.Self,
			OutboxSize: cfg.OutboxSize,
			Retry:      cfg.Retry,
		}, cell, cfg.Transport)
	}
	log.Printf("[session] created: self=%d role=%s engine=%v sync=%v", cfg.Self, cell.Role(), s.asm.Active(), s.sync != nil)
	return s, nil
}

func (s *Session) Cell() *cache.Cell { return s.cell }

func (s *Session) Assembler() *entropy.Assembler { return s.asm }

// Syncer is nil without a transport.
func (s *Session) Syncer() *peersync.Syncer { return s.sync }

func (s *Session) Host() bool { return s.cell.Role() == cache.Owner }

// SaveID is the unique id of the loaded save, or 0.
func (s *Session) SaveID() uint64 { return s.saveID.Load() }

// NewGame starts a fresh save on the host. The starting state depends only on
// sessionID so recreating the same game reproduces it.
func (s *Session) NewGame(ctx context.Context, sessionID uint64) error {
	if !s.Host() {
		return cache.ErrNotOwner
	}
	st := cache.NewSession(sessionID)
	if err := s.cell.Reset(st); err != nil {
		return err
	}
	s.saveID.Store(sessionID)
	s.loaded.Store(true)
	if err := cache.Save(ctx, s.store, sessionID, st); err != nil {
		return fmt.Errorf("session: persist new game: %w", err)
	}
	log.Printf("[session] new game: save=%d state=%s", sessionID, st)
	return nil
}

// Load restores the host's state for g's save, fills any blank observation
// from g and shares the result. Mirrors wait for the host instead.
func (s *Session) Load(ctx context.Context, g entropy.GameState) error {
	if !s.Host() {
		s.saveID.Store(g.UniqueID)
		s.loaded.Store(true)
		return nil
	}
	st := cache.Load(ctx, s.store, g.UniqueID)
	if err := s.cell.Reset(st); err != nil {
		return err
	}
	if _, err := s.cell.PopulateIfBlank(g.MillisecondsPlayed, g.StepsTaken); err != nil {
		return err
	}
	s.saveID.Store(g.UniqueID)
	s.loaded.Store(true)

	cur, _ := s.cell.Snapshot()
	log.Printf("[session] loaded: save=%d state=%s", g.UniqueID, cur)
	s.broadcast(ctx)
	return nil
}

// Saving is the day boundary: the host derives the next state from g,
// persists it and broadcasts it.
func (s *Session) Saving(ctx context.Context, g entropy.GameState) error {
	if !s.Host() {
		return nil
	}
	if !s.loaded.Load() {
		return ErrNoSave
	}
	st, err := s.cell.Update(g.MillisecondsPlayed, g.StepsTaken)
	if err != nil {
		return err
	}
	if err := cache.Save(ctx, s.store, s.saveID.Load(), st); err != nil {
		return fmt.Errorf("session: persist state: %w", err)
	}
	log.Printf("[session] saved: save=%d day=%d state=%s", s.saveID.Load(), g.DaysPlayed, st)
	s.broadcast(ctx)
	return nil
}

func (s *Session) broadcast(ctx context.Context) {
	if s.sync == nil {
		return
	}
	if err := s.sync.Broadcast(ctx); err != nil {
		log.Printf("[session] broadcast skipped: err=%v", err)
	}
}

// DayStarted resets per-day counters.
func (s *Session) DayStarted() {
	s.counter.Reset()
}

// Counter is the per-day value source for call sites that would otherwise
// pass a constant.
func (s *Session) Counter() *entropy.Counter { return &s.counter }

// PeerConnected registers p and, on the host, sends it the current state.
func (s *Session) PeerConnected(ctx context.Context, p peersync.Peer) error {
	if s.sync == nil {
		return nil
	}
	return s.sync.Join(ctx, p)
}

func (s *Session) PeerDisconnected(id peersync.PeerID) {
	if s.sync != nil {
		s.sync.Leave(id)
	}
}

// Receive is the transport handler for incoming state messages.
func (s *Session) Receive(ctx context.Context, msg peersync.Message) {
	if s.sync != nil {
		s.sync.Receive(ctx, msg)
	}
}

// Run drains the outgoing queue until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	if s.sync == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.sync.Run(ctx)
}

// End drops the state when the game is closed.
func (s *Session) End() {
	s.cell.Drop()
	s.loaded.Store(false)
	s.saveID.Store(0)
	log.Printf("[session] ended: self=%d", s.self)
}

func (s *Session) DaySave(g entropy.GameState, seedA, seedB, seedC float64) (*rand.Rand, bool) {
	return s.asm.DaySave(g, s.cell, seedA, seedB, seedC)
}

func (s *Session) Interval(interval, key string, g entropy.GameState) (*rand.Rand, bool, error) {
	return s.asm.Interval(interval, key, g, s.cell)
}

func (s *Session) General(seedA, seedB, seedC, seedD, seedE float64) (*rand.Rand, bool) {
	return s.asm.General(seedA, seedB, seedC, seedD, seedE)
}

func (s *Session) GeneralSeed(seedA, seedB, seedC, seedD, seedE float64) (int32, bool) {
	return s.asm.GeneralSeed(seedA, seedB, seedC, seedD, seedE)
}
