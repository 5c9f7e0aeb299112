package config

import "time"

// Prefix for environment variable names, so HTTP_LISTEN becomes SEEDMIX_HTTP_LISTEN.
const envprefix = "SEEDMIX"

// Configuration via environment variables with github.com/kelseyhightower/envconfig.
// Command line flags in cmd/ take their defaults from here.
type Configuration struct {

	// ALGORITHM picks the generator built from condensed entropy.
	Algorithm string `default:"xoshiro256" desc:"Generator algorithm: xoshiro256, xoroshiro64 or pcg"`

	// STORAGE selects the per-save key/value backend by URL scheme.
	Storage string `default:"memory://" desc:"Store URL: memory://, file://, rocksdb://, boltdb://, sqlite://, postgres://"`

	// UNIQUE_ID is the save identifier mixed into every layout.
	UniqueID uint64 `split_words:"true" default:"1" desc:"Unique save identifier"`

	// PEER_ID identifies this process in the session roster.
	PeerID int64 `split_words:"true" default:"1" desc:"Peer identifier of this process"`

	// TRANSPORT carries state messages between host and peers.
	Transport string `default:"none" desc:"Peer transport: none, kafka or ws"`

	KafkaBrokers string `split_words:"true" default:"127.0.0.1:9092" desc:"Kafka brokers csv"`
	KafkaTopic   string `split_words:"true" default:"seedmix.state" desc:"Kafka topic for state messages"`
	KafkaGroup   string `split_words:"true" default:"seedmix-peer" desc:"Kafka consumer group prefix"`

	// HTTP_LISTEN is where the host serves health, version, metrics and the peer socket.
	HttpListen string `split_words:"true" default:"localhost:4090" desc:"Listening Addr for HTTP server"`

	// HOST_URL is the websocket endpoint peers dial.
	HostURL string `split_words:"true" default:"ws://localhost:4090/api/peer/ws" desc:"Host peer socket URL"`

	// ALLOWED_ORIGINS is a list of allowed Origin headers for the peer socket.
	AllowedOrigins []string `split_words:"true" desc:"List of allowed Origins for WebSocket"`

	OutboxSize    int           `split_words:"true" default:"64" desc:"Pending outgoing state messages"`
	RetryAttempts int           `split_words:"true" default:"5" desc:"Send attempts per message"`
	RetryBase     time.Duration `split_words:"true" default:"100ms" desc:"Initial send retry delay"`

	// DAY_LENGTH is the wall time of one in-game day in the host demo loop.
	DayLength time.Duration `split_words:"true" default:"10s" desc:"Wall time per simulated day"`

	// METRICS will expose metrics for Prometheus via /metrics
	Metrics bool `default:"true" desc:"Enable Prometheus exporter on /metrics"`

	// READY_FIFO receives one line once a peer holds a state.
	ReadyFifo string `split_words:"true" desc:"Write one line to this FIFO when ready"`
}
