package peersync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/peer/ws"
}

func TestWebSocketUnicastOnJoin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := cache.State{LastMillis: 42_000, LastSteps: 420, LastSeed: -42}
	server := NewWSServer(1)
	owner := NewSyncer(Config{Self: 1, Retry: fastRetry}, cache.NewOwner(st), server)
	left := make(chan PeerID, 1)
	server.SetHooks(Hooks{
		OnMessage: owner.Receive,
		OnJoin:    func(ctx context.Context, p Peer) { _ = owner.Join(ctx, p) },
		OnLeave:   func(id PeerID) { owner.Leave(id); left <- id },
	})
	go owner.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/peer/ws", server.Handler(nil))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := DialWS(ctx, wsURL(srv), 2, false)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	mirror := NewSyncer(Config{Self: 2}, cache.NewMirror(), client)
	go client.Run(ctx, mirror.Receive)

	watch, stop := mirror.Cell().Watch(4)
	defer stop()
	deadline := time.After(3 * time.Second)
	for got := false; !got; {
		select {
		case s := <-watch:
			got = s == st
		case <-deadline:
			t.Fatalf("mirror did not receive the join unicast")
		}
	}

	if roster := owner.Roster(); len(roster) != 1 || roster[0].ID != 2 {
		t.Fatalf("owner roster = %+v", roster)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("client Close: %v", err)
	}
	select {
	case id := <-left:
		if id != 2 {
			t.Fatalf("left = %d", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("host never saw the peer leave")
	}
	if err := server.Send(ctx, NewData(1, []PeerID{2}, st)); !errors.Is(err, ErrUnknownPeer) {
		t.Fatalf("Send to departed peer = %v, want %v", err, ErrUnknownPeer)
	}
}

func TestWebSocketRejectsBadPeerID(t *testing.T) {
	server := NewWSServer(1)
	srv := httptest.NewServer(server.Handler(nil))
	defer srv.Close()

	for _, q := range []string{"", "?peer=abc", "?peer=1"} {
		resp, err := http.Get(srv.URL + q)
		if err != nil {
			t.Fatalf("GET %q: %v", q, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusConflict {
			t.Fatalf("GET %q status = %d", q, resp.StatusCode)
		}
	}
}
