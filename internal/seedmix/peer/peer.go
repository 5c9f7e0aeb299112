// Package peer runs the mirroring side of a session: it connects to the host,
// takes every state the host sends and assembles the same generators.
package peer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/entropy"
	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
	"github.com/chenzhangda16/seedmix/internal/seedmix/ready"
	"github.com/chenzhangda16/seedmix/internal/seedmix/retry"
	"github.com/chenzhangda16/seedmix/internal/seedmix/session"
	"github.com/chenzhangda16/seedmix/pkg/obs"
	"github.com/chenzhangda16/seedmix/pkg/rng"
)

var ErrUnknownTransport = errors.New("unknown transport")

const announceMaxDelay = 5 * time.Second

type Config struct {
	Self        peersync.PeerID
	UniqueID    uint64
	Algorithm   string
	SplitScreen bool

	// Transport is "ws" or "kafka".
	Transport    string
	HostURL      string
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroup   string

	OutboxSize    int
	RetryAttempts int
	RetryBase     time.Duration

	// ReadyFifo gets one line once the first state arrived.
	ReadyFifo string
}

// receiver is the inbound half of a transport.
type receiver func(ctx context.Context, h peersync.Handler) error

type Peer struct {
	cfg     Config
	sess    *session.Session
	t       peersync.Transport
	receive receiver

	// kafka has no connection events; the peer announces itself until the
	// host answers
	announce bool
}

func New(ctx context.Context, cfg Config) (*Peer, error) {
	p := &Peer{cfg: cfg}

	switch cfg.Transport {
	case "ws":
		c, err := peersync.DialWS(ctx, cfg.HostURL, cfg.Self, cfg.SplitScreen)
		if err != nil {
			return nil, err
		}
		p.t, p.receive = c, c.Run
	case "kafka":
		k, err := peersync.NewKafka(peersync.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Group:   cfg.KafkaGroup,
			Self:    cfg.Self,
		})
		if err != nil {
			return nil, err
		}
		k.OnClaim(func(ctx context.Context) { p.sess.Syncer().Announce(ctx) })
		p.t, p.receive, p.announce = k, k.Consume, true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// newWithTransport wires an already connected transport.
func newWithTransport(ctx context.Context, cfg Config, t peersync.Transport, recv receiver, announce bool) (*Peer, error) {
	p := &Peer{cfg: cfg, t: t, receive: recv, announce: announce}
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Peer) init(ctx context.Context) error {
	engine, err := rng.NewEngine(rng.Algorithm(p.cfg.Algorithm))
	if err != nil {
		obs.Once("peer-engine", "[peer] engine setup failed, every generator falls back: alg=%s err=%v", p.cfg.Algorithm, err)
		engine = nil
	}
	p.sess, err = session.New(session.Config{
		Self:       p.cfg.Self,
		Engine:     engine,
		Transport:  p.t,
		OutboxSize: p.cfg.OutboxSize,
		Retry:      retry.Policy{MaxAttempts: p.cfg.RetryAttempts, BaseDelay: p.cfg.RetryBase},
	})
	if err != nil {
		_ = p.t.Close()
		return err
	}
	return p.sess.Load(ctx, entropy.GameState{UniqueID: p.cfg.UniqueID})
}

func (p *Peer) Session() *session.Session { return p.sess }

// Run receives states until ctx ends. The first state signals readiness;
// each one is logged with a day-save sample.
func (p *Peer) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return p.sess.Run(ctx) })
	eg.Go(func() error {
		err := p.receive(ctx, p.sess.Receive)
		if err == nil && ctx.Err() == nil {
			return errors.New("peer: host closed the connection")
		}
		return err
	})
	if p.announce {
		eg.Go(func() error {
			p.announceUntilSet(ctx)
			return nil
		})
	}

	watch, stop := p.sess.Cell().Watch(4)
	eg.Go(func() error {
		defer stop()
		signaled := false
		n := uint32(0)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case st := <-watch:
				if !st.IsSet() {
					continue
				}
				n++
				p.sample(n, st)
				if !signaled {
					signaled = true
					ready.Go(ctx, p.cfg.ReadyFifo, fmt.Sprintf("READY peer=%d seed=%d\n", p.cfg.Self, st.LastSeed))
				}
			}
		}
	})
	return eg.Wait()
}

// announceUntilSet repeats the join on a backoff until a state arrives, in
// case the host missed it or answered before this peer could read.
func (p *Peer) announceUntilSet(ctx context.Context) {
	pol := retry.Policy{BaseDelay: p.cfg.RetryBase, MaxDelay: announceMaxDelay}
	if pol.BaseDelay <= 0 {
		pol.BaseDelay = 100 * time.Millisecond
	}
	for attempt := 1; ; attempt++ {
		if _, ok := p.sess.Cell().Snapshot(); ok {
			return
		}
		p.sess.Syncer().Announce(ctx)
		t := time.NewTimer(pol.Backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// sample draws from a day-save generator for the n-th received state.
func (p *Peer) sample(n uint32, st cache.State) {
	g := entropy.GameState{DaysPlayed: n, UniqueID: p.cfg.UniqueID, MillisecondsPlayed: st.LastMillis, StepsTaken: st.LastSteps}
	r, det := p.sess.DaySave(g, 0, 0, 0)
	log.Printf("[peer] state received: n=%d state=%s sample=%#016x deterministic=%v", n, st, r.Uint64(), det)
}

func (p *Peer) Close() error {
	if p.sess != nil {
		p.sess.End()
	}
	return p.t.Close()
}
