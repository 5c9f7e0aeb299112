package peersync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chenzhangda16/seedmix/internal/seedmix/metrics"
)

type KafkaConfig struct {
	Brokers string // csv
	Topic   string
	Group   string // consumer group prefix; the peer id is appended
	Self    PeerID
}

// Kafka publishes every message to one topic. Each peer consumes the topic in
// its own consumer group and keeps only messages addressed to it.
type Kafka struct {
	self  PeerID
	topic string
	sp    sarama.SyncProducer
	group sarama.ConsumerGroup

	claimed func(context.Context)
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic empty")
	}
	brokers := splitCSV(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_1_0_0
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 10
	sc.Producer.Retry.Backoff = 200 * time.Millisecond
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	// a peer only needs states sent after it joined
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true

	sp, err := sarama.NewSyncProducer(brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	group := cfg.Group
	if group == "" {
		group = "seedmix-peer"
	}
	cg, err := sarama.NewConsumerGroup(brokers, group+"-"+strconv.FormatInt(int64(cfg.Self), 10), sc)
	if err != nil {
		_ = sp.Close()
		return nil, fmt.Errorf("kafka consumer group: %w", err)
	}
	return newKafka(cfg.Self, cfg.Topic, sp, cg), nil
}

func newKafka(self PeerID, topic string, sp sarama.SyncProducer, cg sarama.ConsumerGroup) *Kafka {
	return &Kafka{self: self, topic: topic, sp: sp, group: cg}
}

// OnClaim registers fn to run each time a partition claim starts consuming.
// The claim's offset is resolved by then, so anything fn asks for is read
// back even with OffsetNewest. Set it before Consume.
func (k *Kafka) OnClaim(fn func(ctx context.Context)) { k.claimed = fn }

// Send produces msg and waits for the broker ack. The key is the sender so a
// sender's messages stay ordered within a partition.
func (k *Kafka) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := k.sp.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(int64(msg.From), 10)),
		Value: sarama.ByteEncoder(msg.Marshal()),
	})
	return err
}

// Consume runs the consumer group until ctx ends, handing addressed messages
// to h. Rebalances end one Consume round; the loop starts the next.
func (k *Kafka) Consume(ctx context.Context, h Handler) error {
	if k.group == nil {
		return errors.New("kafka: no consumer group")
	}
	go func() {
		for err := range k.group.Errors() {
			log.Printf("[kafka] consumer error: err=%v", err)
		}
	}()

	cgh := &claimHandler{self: k.self, handle: h, claimed: k.claimed}
	for {
		if err := k.group.Consume(ctx, []string{k.topic}, cgh); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("kafka consume: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (k *Kafka) Close() error {
	var errs []error
	if k.sp != nil {
		errs = append(errs, k.sp.Close())
	}
	if k.group != nil {
		errs = append(errs, k.group.Close())
	}
	return errors.Join(errs...)
}

type claimHandler struct {
	self    PeerID
	handle  Handler
	claimed func(context.Context)
}

func (c *claimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	if c.claimed != nil {
		c.claimed(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			c.dispatch(ctx, m)
			sess.MarkMessage(m, "")
		}
	}
}

func (c *claimHandler) dispatch(ctx context.Context, m *sarama.ConsumerMessage) {
	msg, err := Unmarshal(m.Value)
	if err != nil {
		log.Printf("[kafka] drop malformed: partition=%d offset=%d err=%v", m.Partition, m.Offset, err)
		metrics.PeerMessages.WithLabelValues("in", "malformed").Inc()
		return
	}
	if msg.From == c.self || !msg.Addressed(c.self) {
		return
	}
	c.handle(ctx, msg)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, x := range parts {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
