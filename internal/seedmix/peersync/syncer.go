package peersync

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/metrics"
	"github.com/chenzhangda16/seedmix/internal/seedmix/retry"
)

// ErrStateUnset is returned when the owner is asked to share a state it
// does not have yet.
var ErrStateUnset = errors.New("peersync: seed state not loaded yet")

type Config struct {
	Self       PeerID
	OutboxSize int
	Retry      retry.Policy
}

// Syncer keeps mirrors in step with the owner's cell. The owner unicasts to
// joiners and broadcasts after each update; a mirror replaces its cell
// wholesale with whatever arrives.
type Syncer struct {
	self      PeerID
	cell      *cache.Cell
	transport Transport
	policy    retry.Policy

	mu     sync.Mutex
	roster map[PeerID]Peer

	outbox chan Message
}

func NewSyncer(cfg Config, cell *cache.Cell, t Transport) *Syncer {
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = 64
	}
	p := cfg.Retry
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Classify == nil {
		p.Classify = classifySend
	}
	if p.OnRetry == nil {
		p.OnRetry = func(attempt int, wait time.Duration, err error) {
			log.Printf("[peersync] send retry: attempt=%d wait=%s err=%v", attempt, wait, err)
		}
	}
	return &Syncer{
		self:      cfg.Self,
		cell:      cell,
		transport: t,
		policy:    p,
		roster:    make(map[PeerID]Peer),
		outbox:    make(chan Message, cfg.OutboxSize),
	}
}

// a peer that is not connected will not appear by retrying
func classifySend(err error) retry.Class {
	if errors.Is(err, ErrUnknownPeer) || errors.Is(err, ErrClosed) {
		return retry.Fatal
	}
	return retry.DefaultClassify(err)
}

func (s *Syncer) Self() PeerID { return s.self }

func (s *Syncer) Cell() *cache.Cell { return s.cell }

// Roster returns the known peers ordered by id.
func (s *Syncer) Roster() []Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Peer, 0, len(s.roster))
	for _, p := range s.roster {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Peer) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Join records p. The owner sends its current state to p alone.
func (s *Syncer) Join(ctx context.Context, p Peer) error {
	if p.ID == s.self {
		return nil
	}
	s.mu.Lock()
	s.roster[p.ID] = p
	s.mu.Unlock()

	if s.cell.Role() != cache.Owner {
		return nil
	}
	st, ok := s.cell.Snapshot()
	if !ok {
		log.Printf("[peersync] peer joined before state was loaded, it will wait for the next broadcast: peer=%d", p.ID)
		return ErrStateUnset
	}
	s.enqueue(NewData(s.self, []PeerID{p.ID}, st))
	return nil
}

func (s *Syncer) Leave(id PeerID) {
	s.mu.Lock()
	delete(s.roster, id)
	s.mu.Unlock()
}

// recipients are all roster peers except self and split-screen peers.
func (s *Syncer) recipients() []PeerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PeerID, 0, len(s.roster))
	for id, p := range s.roster {
		if id == s.self || p.SplitScreen {
			continue
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Broadcast queues the owner's current state for every remote peer.
func (s *Syncer) Broadcast(ctx context.Context) error {
	if s.cell.Role() != cache.Owner {
		return cache.ErrNotOwner
	}
	st, ok := s.cell.Snapshot()
	if !ok {
		return ErrStateUnset
	}
	to := s.recipients()
	if len(to) == 0 {
		return nil
	}
	s.enqueue(NewData(s.self, to, st))
	return nil
}

// Announce tells the owner this peer exists, for transports that have no
// connection events of their own.
func (s *Syncer) Announce(ctx context.Context) {
	s.enqueue(NewJoin(s.self))
}

// Receive applies an incoming message. Foreign, self-sent and misaddressed
// messages are ignored. The owner only reacts to joins; a mirror replaces
// its state with every data message.
func (s *Syncer) Receive(ctx context.Context, msg Message) {
	result := s.receive(ctx, msg)
	metrics.PeerMessages.WithLabelValues("in", result).Inc()
}

func (s *Syncer) receive(ctx context.Context, msg Message) string {
	if msg.Source != Source {
		return "foreign"
	}
	if msg.From == s.self || !msg.Addressed(s.self) {
		return "not_for_us"
	}

	switch msg.Type {
	case TypeJoin:
		if s.cell.Role() != cache.Owner {
			return "ignored"
		}
		if err := s.Join(ctx, Peer{ID: msg.From}); err != nil {
			return "unset"
		}
		return "joined"
	case TypeData:
		if s.cell.Role() == cache.Owner {
			return "ignored"
		}
		if !msg.State.IsSet() {
			log.Printf("[peersync] drop data without state: from=%d", msg.From)
			return "malformed"
		}
		if err := s.cell.Replace(msg.State); err != nil {
			log.Printf("[peersync] replace failed: from=%d err=%v", msg.From, err)
			return "error"
		}
		return "applied"
	}
	return "foreign"
}

func (s *Syncer) enqueue(msg Message) {
	select {
	case s.outbox <- msg:
	default:
		metrics.OutboxDropped.Inc()
		log.Printf("[peersync] outbox full, dropping: type=%s to=%v", msg.Type, msg.To)
	}
}

// Pending is the number of queued outgoing messages.
func (s *Syncer) Pending() int { return len(s.outbox) }

// Run sends queued messages until ctx ends. Each send is retried under the
// configured policy; a message that still fails is logged and dropped.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.outbox:
			err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
				return s.transport.Send(ctx, msg)
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[peersync] send failed: type=%s to=%v err=%v", msg.Type, msg.To, err)
				metrics.PeerMessages.WithLabelValues("out", "error").Inc()
				continue
			}
			metrics.PeerMessages.WithLabelValues("out", "ok").Inc()
		}
	}
}
