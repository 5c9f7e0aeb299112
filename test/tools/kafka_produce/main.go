package main

import (
	"flag"
	"log"
	"strconv"
	"strings"

	"github.com/IBM/sarama"

	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
)

// Publishes a join for -peer so a running host answers with its state.
func main() {
	brokers := flag.String("brokers", "localhost:9092", "kafka brokers csv")
	topic := flag.String("topic", "seedmix.state", "state topic")
	peer := flag.Int64("peer", 2, "peer id to announce")
	flag.Parse()

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(
		strings.Split(*brokers, ","),
		cfg,
	)
	if err != nil {
		log.Fatal(err)
	}
	defer producer.Close()

	msg := &sarama.ProducerMessage{
		Topic: *topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(*peer, 10)),
		Value: sarama.ByteEncoder(peersync.NewJoin(peersync.PeerID(*peer)).Marshal()),
	}

	partition, offset, err := producer.SendMessage(msg)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("join sent: peer=%d partition=%d offset=%d", *peer, partition, offset)
}
