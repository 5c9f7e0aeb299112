package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chenzhangda16/seedmix/internal/seedmix/config"
	"github.com/chenzhangda16/seedmix/internal/seedmix/peer"
	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
	"github.com/chenzhangda16/seedmix/pkg/obs"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	env := config.GetConfiguration()

	transport := env.Transport
	if transport == "none" {
		transport = "ws"
	}
	var (
		alg      = flag.String("alg", env.Algorithm, "generator algorithm: xoshiro256, xoroshiro64 or pcg")
		uniqueID = flag.Uint64("save", env.UniqueID, "unique save id")
		self     = flag.Int64("peer", env.PeerID+1, "peer id of this process")
		split    = flag.Bool("split", false, "split-screen peer sharing the host's process")
		kind     = flag.String("transport", transport, "peer transport: kafka or ws")

		hostURL = flag.String("host", env.HostURL, "host peer socket url")
		brokers = flag.String("brokers", env.KafkaBrokers, "kafka brokers csv")
		topic   = flag.String("topic", env.KafkaTopic, "kafka topic for state messages")
		group   = flag.String("group", env.KafkaGroup, "kafka consumer group prefix")

		readyFifo = flag.String("ready-fifo", env.ReadyFifo, "write one line to FIFO when the first state arrived")
	)
	flag.Parse()

	obs.Init("seedpeer")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := peer.Config{
		Self:        peersync.PeerID(*self),
		UniqueID:    *uniqueID,
		Algorithm:   *alg,
		SplitScreen: *split,

		Transport:    *kind,
		HostURL:      *hostURL,
		KafkaBrokers: *brokers,
		KafkaTopic:   *topic,
		KafkaGroup:   *group,

		OutboxSize:    env.OutboxSize,
		RetryAttempts: env.RetryAttempts,
		RetryBase:     env.RetryBase,

		ReadyFifo: *readyFifo,
	}

	p, err := peer.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
