package peersync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/chenzhangda16/seedmix/internal/seedmix/metrics"
	"github.com/coder/websocket"
	"github.com/puzpuzpuz/xsync"
)

// Hooks connect a WSServer to the session. Any of them may be nil.
type Hooks struct {
	OnMessage Handler
	OnJoin    func(ctx context.Context, p Peer)
	OnLeave   func(id PeerID)
}

// WSServer is the host side of the websocket transport. Peers dial it with
// ?peer=<id>[&split=1]; the host then unicasts or broadcasts binary messages.
type WSServer struct {
	self  PeerID
	conns *xsync.MapOf[string, *websocket.Conn]
	hooks atomic.Pointer[Hooks]
}

func NewWSServer(self PeerID) *WSServer {
	s := &WSServer{self: self, conns: xsync.NewMapOf[*websocket.Conn]()}
	s.hooks.Store(&Hooks{})
	return s
}

func (s *WSServer) SetHooks(h Hooks) { s.hooks.Store(&h) }

func peerKey(id PeerID) string { return strconv.FormatInt(int64(id), 10) }

// Connected lists the peers with an open socket.
func (s *WSServer) Connected() []PeerID {
	out := make([]PeerID, 0, s.conns.Size())
	s.conns.Range(func(k string, _ *websocket.Conn) bool {
		if id, err := strconv.ParseInt(k, 10, 64); err == nil {
			out = append(out, PeerID(id))
		}
		return true
	})
	return out
}

// Handler upgrades peer connections. origins lists allowed Origin patterns.
func (s *WSServer) Handler(origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("peer"), 10, 64)
		if err != nil {
			http.Error(w, "missing or invalid peer id", http.StatusBadRequest)
			return
		}
		peer := Peer{ID: PeerID(id), SplitScreen: r.URL.Query().Get("split") == "1"}
		if peer.ID == s.self {
			http.Error(w, "peer id is taken by the host", http.StatusConflict)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
		if err != nil {
			log.Printf("[ws] upgrade failed: addr=%s err=%v", r.RemoteAddr, err)
			return
		}
		key := peerKey(peer.ID)
		if prev, loaded := s.conns.LoadAndStore(key, conn); loaded {
			_ = prev.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
		}
		log.Printf("[ws] peer connected: peer=%d split=%v addr=%s", peer.ID, peer.SplitScreen, r.RemoteAddr)

		ctx := r.Context()
		hooks := s.hooks.Load()
		if hooks.OnJoin != nil {
			hooks.OnJoin(ctx, peer)
		}

		s.readLoop(ctx, peer.ID, conn)

		// only forget the peer if no newer socket took its place
		if cur, ok := s.conns.Load(key); ok && cur == conn {
			s.conns.Delete(key)
		}
		if hooks := s.hooks.Load(); hooks.OnLeave != nil {
			hooks.OnLeave(peer.ID)
		}
		log.Printf("[ws] peer disconnected: peer=%d", peer.ID)
	}
}

func (s *WSServer) readLoop(ctx context.Context, id PeerID, conn *websocket.Conn) {
	defer conn.CloseNow()
	for {
		typ, b, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Printf("[ws] read failed: peer=%d err=%v", id, err)
			}
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		msg, err := Unmarshal(b)
		if err != nil {
			log.Printf("[ws] drop malformed: peer=%d err=%v", id, err)
			metrics.PeerMessages.WithLabelValues("in", "malformed").Inc()
			continue
		}
		if h := s.hooks.Load().OnMessage; h != nil {
			h(ctx, msg)
		}
	}
}

// Send writes msg to each recipient's socket, or to all sockets when To is
// empty. Recipients without a socket yield ErrUnknownPeer.
func (s *WSServer) Send(ctx context.Context, msg Message) error {
	b := msg.Marshal()
	targets := msg.To
	if len(targets) == 0 {
		targets = s.Connected()
	}

	var errs []error
	for _, id := range targets {
		conn, ok := s.conns.Load(peerKey(id))
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownPeer, id))
			continue
		}
		if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
			errs = append(errs, fmt.Errorf("peer %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *WSServer) Close() error {
	s.conns.Range(func(k string, c *websocket.Conn) bool {
		_ = c.Close(websocket.StatusGoingAway, "host shutting down")
		s.conns.Delete(k)
		return true
	})
	return nil
}

// WSClient is the peer side of the websocket transport.
type WSClient struct {
	self PeerID
	conn *websocket.Conn
}

// DialWS connects to the host's peer socket as self.
func DialWS(ctx context.Context, hostURL string, self PeerID, splitScreen bool) (*WSClient, error) {
	u, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("ws: parse host url: %w", err)
	}
	q := u.Query()
	q.Set("peer", peerKey(self))
	if splitScreen {
		q.Set("split", "1")
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", u.Redacted(), err)
	}
	return &WSClient{self: self, conn: conn}, nil
}

// Run reads messages until the socket closes or ctx ends.
func (c *WSClient) Run(ctx context.Context, h Handler) error {
	for {
		typ, b, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				return nil
			}
			return err
		}
		if typ != websocket.MessageBinary {
			continue
		}
		msg, err := Unmarshal(b)
		if err != nil {
			log.Printf("[ws] drop malformed from host: err=%v", err)
			metrics.PeerMessages.WithLabelValues("in", "malformed").Inc()
			continue
		}
		if msg.From == c.self || !msg.Addressed(c.self) {
			continue
		}
		h(ctx, msg)
	}
}

func (c *WSClient) Send(ctx context.Context, msg Message) error {
	return c.conn.Write(ctx, websocket.MessageBinary, msg.Marshal())
}

func (c *WSClient) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
