package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mode labels for Generators.
const (
	ModeDeterministic = "deterministic"
	ModeFallback      = "fallback"
)

var (
	// Generators counts generators handed out, partitioned by call site and mode.
	Generators = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seedmix_generators_total",
		Help: "generators created; partitioned by call site and deterministic/fallback mode",
	}, []string{"site", "mode"})

	// EngineActive is 1 once the generator strategy was set up successfully.
	EngineActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seedmix_engine_active",
		Help: "1 when deterministic generation is active, 0 after a setup failure",
	})

	CacheUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seedmix_cache_updates_total",
		Help: "session seed state changes; partitioned by kind (new, populate, update, replace, drop)",
	}, []string{"kind"})

	PeerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seedmix_peer_messages_total",
		Help: "state messages; partitioned by direction (in/out) and result",
	}, []string{"direction", "result"})

	OutboxDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seedmix_outbox_dropped_total",
		Help: "outgoing state messages dropped because the outbox was full",
	})

	StoreOps = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seedmix_store_seconds",
		Help:    "store operation latency; partitioned by op and status",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.025, 0.1, 0.5, 2},
	}, []string{"op", "status"})
)

// Mode maps a determinism flag to its label.
func Mode(deterministic bool) string {
	if deterministic {
		return ModeDeterministic
	}
	return ModeFallback
}
