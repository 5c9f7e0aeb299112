package peersync

import (
	"context"
	"errors"
)

var (
	ErrUnknownPeer = errors.New("peersync: unknown peer")
	ErrClosed      = errors.New("peersync: transport closed")
)

// Transport delivers messages to the peers in Message.To. Delivery is
// asynchronous and unordered; a nil error only means the message left.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Handler receives every decoded message a transport picks up.
type Handler func(ctx context.Context, msg Message)
