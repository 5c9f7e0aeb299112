package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chenzhangda16/seedmix/internal/seedmix/config"
	"github.com/chenzhangda16/seedmix/internal/seedmix/host"
	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
	"github.com/chenzhangda16/seedmix/pkg/obs"
	"github.com/chenzhangda16/seedmix/pkg/rng"

	_ "github.com/chenzhangda16/seedmix/internal/seedmix/store/boltstore"
	_ "github.com/chenzhangda16/seedmix/internal/seedmix/store/rocksstore"
	_ "github.com/chenzhangda16/seedmix/internal/seedmix/store/sqlstore"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	env := config.GetConfiguration()

	var (
		alg       = flag.String("alg", env.Algorithm, "generator algorithm: xoshiro256, xoroshiro64 or pcg")
		storage   = flag.String("store", env.Storage, "store url")
		uniqueID  = flag.Uint64("save", env.UniqueID, "unique save id")
		self      = flag.Int64("peer", env.PeerID, "peer id of the host")
		transport = flag.String("transport", env.Transport, "peer transport: none, kafka or ws")

		brokers = flag.String("brokers", env.KafkaBrokers, "kafka brokers csv")
		topic   = flag.String("topic", env.KafkaTopic, "kafka topic for state messages")
		group   = flag.String("group", env.KafkaGroup, "kafka consumer group prefix")

		listen   = flag.String("http", env.HttpListen, "http listen addr, empty to disable")
		day      = flag.Duration("day", env.DayLength, "wall time per simulated day, 0 to disable")
		seed     = flag.Uint64("player-seed", 1, "seed for the simulated player")
		det      = flag.Bool("det", true, "simulate the same player on every run")
		selfTest = flag.Bool("selftest", false, "log 10 outputs for the 0xdeadbeef buffer and exit")
	)
	flag.Parse()

	obs.Init("seedhost")
	log.Printf("[seedhost] version: %s", config.Version)

	if *selfTest {
		runSelfTest(rng.Algorithm(*alg))
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := host.Config{
		Self:      peersync.PeerID(*self),
		UniqueID:  *uniqueID,
		Algorithm: *alg,
		Storage:   *storage,

		Transport:    *transport,
		KafkaBrokers: *brokers,
		KafkaTopic:   *topic,
		KafkaGroup:   *group,

		HttpListen:     *listen,
		AllowedOrigins: env.AllowedOrigins,
		Metrics:        env.Metrics,

		OutboxSize:    env.OutboxSize,
		RetryAttempts: env.RetryAttempts,
		RetryBase:     env.RetryBase,

		DayLength:     *day,
		PlayerSeed:    *seed,
		Deterministic: *det,
	}

	h, err := host.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	if err := h.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func runSelfTest(alg rng.Algorithm) {
	e, err := rng.NewEngine(alg)
	if err != nil {
		log.Printf("[seedhost] engine setup failed: alg=%s err=%v", alg, err)
		os.Exit(1)
	}
	r := e.Generate(binary.LittleEndian.AppendUint32(nil, 0xdeadbeef))
	for i := 0; i < 10; i++ {
		log.Printf("[seedhost] selftest: i=%d out=%08X", i, r.Int32())
	}
}
