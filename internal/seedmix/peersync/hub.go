package peersync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/chenzhangda16/seedmix/internal/seedmix/metrics"
)

// Hub is an in-process message bus for peers living in one process, and for
// tests. Messages go through the wire codec like on any other transport.
type Hub struct {
	mu    sync.RWMutex
	peers map[PeerID]*Endpoint
}

func NewHub() *Hub {
	return &Hub{peers: make(map[PeerID]*Endpoint)}
}

// Endpoint is one peer's attachment to a Hub. It implements Transport.
type Endpoint struct {
	hub   *Hub
	id    PeerID
	inbox chan []byte
	done  chan struct{}
	once  sync.Once
}

// Connect attaches id and starts delivering its messages to h until Close.
func (h *Hub) Connect(id PeerID, handler Handler, buffer int) (*Endpoint, error) {
	if buffer <= 0 {
		buffer = 16
	}
	ep := &Endpoint{hub: h, id: id, inbox: make(chan []byte, buffer), done: make(chan struct{})}

	h.mu.Lock()
	if _, dup := h.peers[id]; dup {
		h.mu.Unlock()
		return nil, fmt.Errorf("peersync: peer %d already connected", id)
	}
	h.peers[id] = ep
	h.mu.Unlock()

	go ep.deliver(handler)
	return ep, nil
}

func (h *Hub) Peers() []PeerID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]PeerID, 0, len(h.peers))
	for id := range h.peers {
		out = append(out, id)
	}
	return out
}

func (ep *Endpoint) ID() PeerID { return ep.id }

func (ep *Endpoint) deliver(handler Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for {
		select {
		case <-ep.done:
			return
		case b := <-ep.inbox:
			msg, err := Unmarshal(b)
			if err != nil {
				log.Printf("[hub] drop malformed: peer=%d err=%v", ep.id, err)
				metrics.PeerMessages.WithLabelValues("in", "malformed").Inc()
				continue
			}
			handler(ctx, msg)
		}
	}
}

// Send delivers to every recipient in msg.To, or to every other endpoint
// when To is empty. A full inbox drops the message for that recipient.
func (ep *Endpoint) Send(ctx context.Context, msg Message) error {
	select {
	case <-ep.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b := msg.Marshal()
	ep.hub.mu.RLock()
	defer ep.hub.mu.RUnlock()

	targets := msg.To
	if len(targets) == 0 {
		for id := range ep.hub.peers {
			if id != ep.id {
				targets = append(targets, id)
			}
		}
	}

	var errs []error
	for _, id := range targets {
		dst, ok := ep.hub.peers[id]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownPeer, id))
			continue
		}
		select {
		case dst.inbox <- b:
		default:
			log.Printf("[hub] inbox full, dropping: from=%d to=%d", ep.id, id)
		}
	}
	return errors.Join(errs...)
}

// Close detaches the endpoint. Pending messages are discarded.
func (ep *Endpoint) Close() error {
	ep.once.Do(func() {
		ep.hub.mu.Lock()
		if ep.hub.peers[ep.id] == ep {
			delete(ep.hub.peers, ep.id)
		}
		ep.hub.mu.Unlock()
		close(ep.done)
	})
	return nil
}
