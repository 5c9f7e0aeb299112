package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
)

func testConfig(storage string) Config {
	return Config{
		Self:          1,
		UniqueID:      0x1122334455667788,
		Algorithm:     "xoshiro256",
		Storage:       storage,
		Transport:     TransportNone,
		Metrics:       true,
		DayLength:     time.Second,
		PlayerSeed:    7,
		Deterministic: true,
	}
}

func TestNewGameThenAdvance(t *testing.T) {
	ctx := context.Background()
	h, err := New(ctx, testConfig("memory://"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	st, ok := h.Session().Cell().Snapshot()
	if !ok || st != cache.NewSession(0x1122334455667788) {
		t.Fatalf("fresh state = %v (set=%v)", st, ok)
	}

	g, err := h.AdvanceDay(ctx)
	if err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}
	if g.DaysPlayed != 2 || g.MillisecondsPlayed < 1_000 || g.StepsTaken < 500 {
		t.Fatalf("game after one day = %+v", g)
	}
	next, _ := h.Session().Cell().Snapshot()
	want := cache.State{LastMillis: g.MillisecondsPlayed, LastSteps: g.StepsTaken, LastSeed: cache.NewSeed(st, g.MillisecondsPlayed, g.StepsTaken)}
	if next != want {
		t.Fatalf("state = %v, want %v", next, want)
	}
	if h.Game() != g {
		t.Fatalf("Game() = %+v, want %+v", h.Game(), g)
	}
}

func TestReopenContinuesSave(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("file://" + filepath.Join(t.TempDir(), "saves"))

	h, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := h.AdvanceDay(ctx); err != nil {
			t.Fatalf("AdvanceDay: %v", err)
		}
	}
	wantState, _ := h.Session().Cell().Snapshot()
	wantGame := h.Game()
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h, err = New(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h.Close()
	if got, _ := h.Session().Cell().Snapshot(); got != wantState {
		t.Fatalf("reopened state = %v, want %v", got, wantState)
	}
	if got := h.Game(); got != wantGame {
		t.Fatalf("reopened game = %+v, want %+v", got, wantGame)
	}
}

func TestDeterministicPlayerRepeats(t *testing.T) {
	ctx := context.Background()
	var states []cache.State
	for i := 0; i < 2; i++ {
		h, err := New(ctx, testConfig("memory://"))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for d := 0; d < 3; d++ {
			if _, err := h.AdvanceDay(ctx); err != nil {
				t.Fatalf("AdvanceDay: %v", err)
			}
		}
		st, _ := h.Session().Cell().Snapshot()
		states = append(states, st)
		h.Close()
	}
	if states[0] != states[1] {
		t.Fatalf("runs diverged: %v vs %v", states[0], states[1])
	}
}

func TestUnknownTransport(t *testing.T) {
	cfg := testConfig("memory://")
	cfg.Transport = "carrier-pigeon"
	if _, err := New(context.Background(), cfg); !errors.Is(err, ErrUnknownTransport) {
		t.Fatalf("New = %v, want %v", err, ErrUnknownTransport)
	}
}

func TestEngineFailureFallsBack(t *testing.T) {
	cfg := testConfig("memory://")
	cfg.Algorithm = "chacha8"
	h, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()
	if h.Session().Assembler().Active() {
		t.Fatalf("assembler active with a failed engine")
	}
	if _, det := h.Session().DaySave(h.Game(), 0, 0, 0); det {
		t.Fatalf("DaySave deterministic without an engine")
	}
}

func TestHandler(t *testing.T) {
	h, err := New(context.Background(), testConfig("memory://"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, body := get("/healthz"); code != http.StatusOK || body != "OK\n" {
		t.Fatalf("/healthz = %d %q", code, body)
	}
	if code, body := get("/api/version"); code != http.StatusOK || !strings.Contains(body, "{") {
		t.Fatalf("/api/version = %d %q", code, body)
	}
	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "seedmix_engine_active") {
		t.Fatalf("/metrics = %d", code)
	}
	if code, _ := get("/api/peer/ws"); code != http.StatusNotFound {
		t.Fatalf("/api/peer/ws without ws transport = %d", code)
	}

	code, body := get("/api/state")
	if code != http.StatusOK {
		t.Fatalf("/api/state = %d", code)
	}
	var v stateView
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !v.Set || v.Save != 0x1122334455667788 || v.Day != 1 {
		t.Fatalf("state view = %+v", v)
	}
}

// A websocket peer that connects to a running host receives its state.
func TestRunServesPeers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig("memory://")
	cfg.Transport = TransportWS
	cfg.DayLength = 0
	h, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/peer/ws"
	client, err := peersync.DialWS(ctx, url, 2, false)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer client.Close()
	mirror := cache.NewMirror()
	go client.Run(ctx, func(ctx context.Context, m peersync.Message) {
		if m.Type == peersync.TypeData {
			_ = mirror.Replace(m.State)
		}
	})

	want, _ := h.Session().Cell().Snapshot()
	watch, stop := mirror.Watch(4)
	defer stop()
	timeout := time.After(3 * time.Second)
	for got := false; !got; {
		select {
		case st := <-watch:
			got = st == want
		case <-timeout:
			t.Fatalf("peer never received the host state")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not stop")
	}
}
