package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// PollerConfig holds HTTP poller configuration.
type PollerConfig struct {
	BaseURL        string
	RateLimiter    *rate.Limiter
	RequestTimeout time.Duration
}

// DefaultPollerConfig returns a poller configuration with the given rate.
func DefaultPollerConfig(baseURL string, requestsPerSecond float64) *PollerConfig {
	return &PollerConfig{
		BaseURL:        baseURL,
		RateLimiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 10),
		RequestTimeout: 10 * time.Second,
	}
}

// Poller fetches ticker prices over HTTP for pairs the stream does not
// cover. Fetch retrieves the updates for one pair; the default asks
// BaseURL/ticker for {"price": ...}.
type Poller struct {
	Config  *PollerConfig
	Logger  *logrus.Logger
	Publish func(context.Context, ...PriceUpdate) error
	Fetch   func(ctx context.Context, pair string) ([]PriceUpdate, error)

	client *http.Client
}

// NewPoller creates a poller with the default ticker fetcher.
func NewPoller(config *PollerConfig, logger *logrus.Logger,
	publish func(context.Context, ...PriceUpdate) error) *Poller {
	p := &Poller{
		Config:  config,
		Logger:  logger,
		Publish: publish,
		client:  &http.Client{Timeout: config.RequestTimeout},
	}
	p.Fetch = p.fetchTicker
	return p
}

// Run polls one pair until the context is cancelled, pacing requests with
// the shared rate limiter.
func (p *Poller) Run(ctx context.Context, pair string, wg *sync.WaitGroup) {
	defer wg.Done()

	p.Logger.Infof("Starting HTTP poller for pair %s", pair)
	for {
		select {
		case <-ctx.Done():
			p.Logger.Infof("Stopping HTTP poller for pair %s", pair)
			return
		default:
			if err := p.Config.RateLimiter.Wait(ctx); err != nil {
				p.Logger.Errorf("Rate limiter error for %s: %v", pair, err)
				return
			}
			updates, err := p.Fetch(ctx, pair)
			if err != nil {
				p.Logger.Errorf("Error fetching %s: %v", pair, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
				}
				continue
			}
			if len(updates) == 0 {
				continue
			}
			if err := p.Publish(ctx, updates...); err != nil {
				p.Logger.Errorf("Failed to publish %s: %v", pair, err)
			}
		}
	}
}

// fetchTicker queries the REST ticker endpoint for one pair.
func (p *Poller) fetchTicker(ctx context.Context, pair string) ([]PriceUpdate, error) {
	coin, base, err := SplitPair(pair)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/ticker?symbol=%s%s", p.Config.BaseURL, coin, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build ticker request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: ticker request %s: %w", pair, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: ticker %s: unexpected status %d", pair, resp.StatusCode)
	}

	var body struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("feed: decode ticker %s: %w", pair, err)
	}

	return []PriceUpdate{{
		Coin:     coin,
		BaseCoin: base,
		Price:    body.Price,
		Source:   "http",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}}, nil
}
