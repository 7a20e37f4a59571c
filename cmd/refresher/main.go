package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"

	"github.com/KintasS/crypto-exchange-path/configs"
	"github.com/KintasS/crypto-exchange-path/internal/refresher"
	"github.com/KintasS/crypto-exchange-path/internal/store"
)

func main() {
	cfg := configs.Load()
	logger := logrus.New()

	db, err := gorm.Open(clickhouse.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	reader := refresher.NewReader(cfg.KafkaPrice.Broker, cfg.KafkaPrice.Topic, cfg.KafkaPrice.GroupID)
	defer reader.Close()

	r := refresher.New(reader, store.NewGormStore(db), logger, refresher.Config{
		BatchSize:    cfg.Refresher.BatchSize,
		BatchTimeout: time.Duration(cfg.Refresher.BatchTimeoutSeconds) * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Start(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("Refresher failed: %v", err)
	}
	logger.Info("Refresher stopped")
}
