package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/KintasS/crypto-exchange-path/configs"
	"github.com/KintasS/crypto-exchange-path/internal/feed"
)

func main() {
	cfg := configs.Load()
	logger := logrus.New()

	if len(cfg.Feed.Pairs) == 0 {
		logger.Fatal("FEED_PAIRS is required (e.g. \"BTC/USD,ETH/BTC\")")
	}
	if cfg.Feed.WSURL == "" && cfg.Feed.HTTPBaseURL == "" {
		logger.Fatal("at least one of FEED_WS_URL or FEED_HTTP_URL is required")
	}

	publisher := feed.NewPublisher(cfg.KafkaPrice.Broker, cfg.KafkaPrice.Topic, logger)
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	if cfg.Feed.WSURL != "" {
		worker := feed.NewWSWorker(feed.DefaultWSConfig(cfg.Feed.WSURL), logger, publisher.Publish)
		wg.Add(1)
		go worker.Run(ctx, cfg.Feed.Pairs, &wg)
	}

	if cfg.Feed.HTTPBaseURL != "" {
		pollerCfg := feed.DefaultPollerConfig(cfg.Feed.HTTPBaseURL, cfg.Feed.RequestsPerSecond)
		poller := feed.NewPoller(pollerCfg, logger, publisher.Publish)
		for _, pair := range cfg.Feed.Pairs {
			wg.Add(1)
			go poller.Run(ctx, pair, &wg)
		}
	}

	logger.Infof("Price feed running for %d pairs", len(cfg.Feed.Pairs))
	wg.Wait()
	logger.Info("Price feed stopped")
}
