// Package host runs the owning side of a session: it holds the seed state,
// persists it per save and shares it with peers.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/config"
	"github.com/chenzhangda16/seedmix/internal/seedmix/entropy"
	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
	"github.com/chenzhangda16/seedmix/internal/seedmix/retry"
	"github.com/chenzhangda16/seedmix/internal/seedmix/session"
	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	"github.com/chenzhangda16/seedmix/pkg/obs"
	"github.com/chenzhangda16/seedmix/pkg/rng"
)

const (
	TransportNone  = "none"
	TransportKafka = "kafka"
	TransportWS    = "ws"
)

var ErrUnknownTransport = errors.New("unknown transport")

type Config struct {
	Self      peersync.PeerID
	UniqueID  uint64
	Algorithm string
	Storage   string

	Transport    string
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroup   string

	// HttpListen empty disables the HTTP server.
	HttpListen     string
	AllowedOrigins []string
	Metrics        bool

	OutboxSize    int
	RetryAttempts int
	RetryBase     time.Duration

	// DayLength zero disables the simulated day loop.
	DayLength time.Duration

	// PlayerSeed seeds the simulated player; Deterministic false draws it.
	PlayerSeed    uint64
	Deterministic bool
}

type Host struct {
	cfg Config

	store  store.Store
	engine *rng.Engine
	sess   *session.Session
	player *Player

	ws    *peersync.WSServer
	kafka *peersync.Kafka

	mu   sync.Mutex
	game entropy.GameState
}

func New(ctx context.Context, cfg Config) (*Host, error) {
	if cfg.Transport == "" {
		cfg.Transport = TransportNone
	}

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	st = store.Instrument(st)

	engine, err := rng.NewEngine(rng.Algorithm(cfg.Algorithm))
	if err != nil {
		obs.Once("host-engine", "[host] engine setup failed, every generator falls back: alg=%s err=%v", cfg.Algorithm, err)
		engine = nil
	}

	h := &Host{cfg: cfg, store: st, engine: engine}

	var transport peersync.Transport
	switch cfg.Transport {
	case TransportNone:
	case TransportWS:
		h.ws = peersync.NewWSServer(cfg.Self)
		transport = h.ws
	case TransportKafka:
		h.kafka, err = peersync.NewKafka(peersync.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Group:   cfg.KafkaGroup,
			Self:    cfg.Self,
		})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		transport = h.kafka
	default:
		_ = st.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}

	h.sess, err = session.New(session.Config{
		Self:       cfg.Self,
		Host:       true,
		Store:      st,
		Engine:     engine,
		Transport:  transport,
		OutboxSize: cfg.OutboxSize,
		Retry:      retry.Policy{MaxAttempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBase},
	})
	if err != nil {
		h.closeTransport()
		_ = st.Close()
		return nil, err
	}
	if h.ws != nil {
		h.ws.SetHooks(peersync.Hooks{
			OnMessage: h.sess.Receive,
			OnJoin: func(ctx context.Context, p peersync.Peer) {
				if err := h.sess.PeerConnected(ctx, p); err != nil {
					log.Printf("[host] peer join: peer=%d err=%v", p.ID, err)
				}
			},
			OnLeave: h.sess.PeerDisconnected,
		})
	}

	engineFactory := engine
	if engineFactory == nil {
		// the simulated player only needs some generator
		engineFactory, _ = rng.NewEngine(rng.Xoshiro256SS)
	}
	mode := rng.Real
	if cfg.Deterministic {
		mode = rng.Deterministic
	}
	h.player = NewPlayer(rng.NewFactory(engineFactory, mode, cfg.PlayerSeed), cfg.DayLength)

	if err := h.open(ctx); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

// open loads the save, or creates it when nothing is stored yet.
func (h *Host) open(ctx context.Context) error {
	id := h.cfg.UniqueID
	_, found, err := h.store.Get(ctx, id, cache.Key)
	if err != nil {
		return fmt.Errorf("host: look up save %d: %w", id, err)
	}
	g, _ := loadProgress(ctx, h.store, id)
	if !found {
		if err := h.sess.NewGame(ctx, id); err != nil {
			return err
		}
		if err := saveProgress(ctx, h.store, g); err != nil {
			return fmt.Errorf("host: persist progress: %w", err)
		}
	} else if err := h.sess.Load(ctx, g); err != nil {
		return err
	}
	h.sess.DayStarted()

	h.mu.Lock()
	h.game = g
	h.mu.Unlock()
	return nil
}

func (h *Host) Session() *session.Session { return h.sess }

// Game is the simulated game's current progress.
func (h *Host) Game() entropy.GameState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.game
}

// Handler serves health, version, metrics and the peer socket.
func (h *Host) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK\n"))
	})
	mux.HandleFunc("GET /api/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("content-type", "application/json")
		json.NewEncoder(w).Encode(config.Version)
	})
	mux.HandleFunc("GET /api/state", h.handleState)
	if h.cfg.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	if h.ws != nil {
		mux.HandleFunc("GET /api/peer/ws", h.ws.Handler(h.cfg.AllowedOrigins))
	}
	return mux
}

type stateView struct {
	Save  uint64            `json:"save"`
	Day   uint32            `json:"day"`
	Set   bool              `json:"set"`
	State cache.State       `json:"state"`
	Peers []peersync.Peer   `json:"peers,omitempty"`
	Boot  string            `json:"boot"`
	Game  entropy.GameState `json:"game"`
}

func (h *Host) handleState(w http.ResponseWriter, r *http.Request) {
	st, ok := h.sess.Cell().Snapshot()
	g := h.Game()
	v := stateView{Save: h.sess.SaveID(), Day: g.DaysPlayed, Set: ok, State: st, Boot: obs.BootID(), Game: g}
	if s := h.sess.Syncer(); s != nil {
		v.Peers = s.Roster()
	}
	w.Header().Add("content-type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// AdvanceDay plays one day and runs the day boundary: new state, persisted,
// broadcast, then the daily events of the next morning.
func (h *Host) AdvanceDay(ctx context.Context) (entropy.GameState, error) {
	h.mu.Lock()
	g := h.player.PlayDay(h.game)
	h.mu.Unlock()

	if err := h.sess.Saving(ctx, g); err != nil {
		return g, err
	}
	if err := saveProgress(ctx, h.store, g); err != nil {
		return g, fmt.Errorf("host: persist progress: %w", err)
	}
	h.mu.Lock()
	h.game = g
	h.mu.Unlock()

	h.sess.DayStarted()
	occ, err := h.sess.Daily(ctx, session.Train, g)
	if err != nil {
		log.Printf("[host] daily event failed: day=%d err=%v", g.DaysPlayed, err)
	}
	r, det := h.sess.DaySave(g, h.sess.Counter().Next(), 0, 0)
	log.Printf("[host] day started: day=%d millis=%d steps=%d train=%v at=%04d sample=%#016x deterministic=%v",
		g.DaysPlayed, g.MillisecondsPlayed, g.StepsTaken, occ.Happens, occ.Time, r.Uint64(), det)
	return g, nil
}

// Run serves until ctx ends or a component fails.
func (h *Host) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return h.sess.Run(ctx) })

	if h.kafka != nil {
		eg.Go(func() error { return h.kafka.Consume(ctx, h.sess.Receive) })
	}

	if h.cfg.HttpListen != "" {
		srv := &http.Server{Addr: h.cfg.HttpListen, Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
		eg.Go(func() error {
			<-ctx.Done()
			shut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shut)
		})
		eg.Go(func() error {
			log.Printf("[host] http listening: addr=%s transport=%s", h.cfg.HttpListen, h.cfg.Transport)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	if h.cfg.DayLength > 0 {
		eg.Go(func() error {
			t := time.NewTicker(h.cfg.DayLength)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-t.C:
					if _, err := h.AdvanceDay(ctx); err != nil {
						if ctx.Err() != nil {
							return ctx.Err()
						}
						log.Printf("[host] day boundary failed: err=%v", err)
					}
				}
			}
		})
	}

	return eg.Wait()
}

func (h *Host) closeTransport() {
	if h.ws != nil {
		_ = h.ws.Close()
	}
	if h.kafka != nil {
		if err := h.kafka.Close(); err != nil {
			log.Printf("[host] kafka close: err=%v", err)
		}
	}
}

func (h *Host) Close() error {
	if h.sess != nil {
		h.sess.End()
	}
	h.closeTransport()
	return h.store.Close()
}
