// Package refresher consumes price updates from Kafka and persists them to
// the price table. It handles batching, retry logic, and graceful shutdown.
// Searches are unaffected mid-flight: their FX caches are request-scoped,
// so a refresh only becomes visible to the next search.
package refresher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/internal/feed"
	"github.com/KintasS/crypto-exchange-path/internal/models"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

// Config holds refresher configuration parameters.
type Config struct {
	// BatchSize is the maximum number of updates to accumulate before
	// flushing to the store.
	BatchSize int

	// BatchTimeout is the maximum time to wait before flushing, even if
	// the batch isn't full.
	BatchTimeout time.Duration
}

// Refresher consumes price updates from Kafka and upserts them in batches.
// It implements at-least-once delivery: offsets are only committed after a
// successful store write. Upserts are idempotent, so replays are harmless.
type Refresher struct {
	reader *kafka.Reader
	writer store.Writer
	logger *logrus.Logger
	cfg    Config
}

// NewReader builds the Kafka reader for the price topic.
func NewReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// New creates a Refresher with the provided dependencies.
func New(reader *kafka.Reader, writer store.Writer, logger *logrus.Logger, cfg Config) *Refresher {
	return &Refresher{
		reader: reader,
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}
}

// Start runs the refresh loop. It blocks until the context is cancelled,
// flushing any buffered updates on shutdown.
func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Infof("Starting price refresher, batch_size=%d", r.cfg.BatchSize)

	batch := make([]models.Price, 0, r.cfg.BatchSize)
	msgs := make([]kafka.Message, 0, r.cfg.BatchSize)

	ticker := time.NewTicker(r.cfg.BatchTimeout)
	defer ticker.Stop()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		// Never drop data: retry until the store accepts the batch.
		for {
			if err := r.writer.UpsertPrices(batch); err != nil {
				r.logger.Errorf("Price upsert failed (retrying in 2s): %v", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(2 * time.Second):
					continue
				}
			}
			break
		}

		// Commit offsets only after the store write succeeded.
		if err := r.reader.CommitMessages(ctx, msgs...); err != nil {
			r.logger.Warnf("Failed to commit offsets: %v", err)
		}

		r.logger.Infof("Refreshed %d prices", len(batch))
		batch = batch[:0]
		msgs = msgs[:0]
		ticker.Reset(r.cfg.BatchTimeout)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return flush()

		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}

		default:
			fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.BatchTimeout)
			m, err := r.reader.FetchMessage(fetchCtx)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if errors.Is(err, context.Canceled) {
					return flush()
				}
				r.logger.Errorf("Kafka fetch error: %v", err)
				select {
				case <-ctx.Done():
					return flush()
				case <-time.After(time.Second):
				}
				continue
			}

			price, err := parseMessage(m)
			if err != nil {
				r.logger.Debugf("Dropping bad price update: %v", err)
				continue
			}

			batch = append(batch, *price)
			msgs = append(msgs, m)

			if len(batch) >= r.cfg.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
}

// parseMessage deserializes and validates one price update.
func parseMessage(msg kafka.Message) (*models.Price, error) {
	var u feed.PriceUpdate
	if err := json.Unmarshal(msg.Value, &u); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if u.Coin == "" || u.BaseCoin == "" {
		return nil, fmt.Errorf("missing coin fields: coin=%q base=%q", u.Coin, u.BaseCoin)
	}
	if math.IsNaN(u.Price) || math.IsInf(u.Price, 0) {
		return nil, fmt.Errorf("corrupted numeric data for %s/%s", u.Coin, u.BaseCoin)
	}
	if u.Price <= 0 {
		return nil, fmt.Errorf("invalid price %v for %s/%s", u.Price, u.Coin, u.BaseCoin)
	}
	return &models.Price{
		Coin:     u.Coin,
		BaseCoin: u.BaseCoin,
		Price:    u.Price,
	}, nil
}
