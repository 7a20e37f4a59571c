// Package feed publishes spot-price updates to Kafka. Two drivers produce
// updates: a websocket ticker stream and a rate-limited HTTP poller. The
// refresher consumes the topic and writes the price table.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// PriceUpdate is the wire format of one observed spot price:
// 1 Coin = Price BaseCoin.
type PriceUpdate struct {
	Coin     string  `json:"coin"`
	BaseCoin string  `json:"base_coin"`
	Price    float64 `json:"price"`
	Source   string  `json:"source,omitempty"`
	Time     string  `json:"time,omitempty"`
}

// SplitPair parses a "COIN/BASE" pair string.
func SplitPair(pair string) (coin, base string, err error) {
	coin, base, ok := strings.Cut(pair, "/")
	if !ok || coin == "" || base == "" {
		return "", "", fmt.Errorf("feed: invalid pair %q", pair)
	}
	return coin, base, nil
}

// Publisher writes price updates to a Kafka topic, keyed by pair so
// partitioning keeps per-pair ordering.
type Publisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

// NewPublisher builds a Publisher over the given broker and topic.
func NewPublisher(broker, topic string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 100 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

// Publish sends the updates to Kafka.
func (p *Publisher) Publish(ctx context.Context, updates ...PriceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(updates))
	for _, u := range updates {
		value, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("feed: marshal update %s/%s: %w", u.Coin, u.BaseCoin, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(u.Coin + "/" + u.BaseCoin),
			Value: value,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("feed: write %d updates: %w", len(msgs), err)
	}
	p.logger.Debugf("feed: published %d price updates", len(msgs))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
