package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"

	"github.com/chenzhangda16/seedmix/internal/seedmix/peersync"
)

// Handler prints every state message on the topic, whoever it is addressed to.
type Handler struct{}

func (Handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (Handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }
func (Handler) ConsumeClaim(
	s sarama.ConsumerGroupSession,
	c sarama.ConsumerGroupClaim,
) error {
	for msg := range c.Messages() {
		m, err := peersync.Unmarshal(msg.Value)
		if err != nil {
			log.Printf("undecodable key=%s len=%d partition=%d offset=%d err=%v",
				string(msg.Key), len(msg.Value), msg.Partition, msg.Offset, err)
		} else {
			log.Printf(
				"type=%s source=%s from=%d to=%v state=%s partition=%d offset=%d",
				m.Type, m.Source, m.From, m.To, m.State, msg.Partition, msg.Offset,
			)
		}
		s.MarkMessage(msg, "")
	}
	return nil
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "kafka brokers csv")
	topic := flag.String("topic", "seedmix.state", "state topic")
	flag.Parse()

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(
		strings.Split(*brokers, ","),
		"seedmix-test_tools",
		cfg,
	)
	if err != nil {
		log.Fatal(err)
	}
	defer group.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	for ctx.Err() == nil {
		if err := group.Consume(ctx, []string{*topic}, Handler{}); err != nil {
			log.Fatal(err)
		}
	}
}
