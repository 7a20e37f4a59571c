package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Reconnection and health-check tuning for stream workers.
const (
	InitialReconnectDelay = 1 * time.Second
	MaxReconnectDelay     = 60 * time.Second
	MaxConsecutiveErrors  = 5
	HealthCheckInterval   = 30 * time.Second
)

// WSConfig holds WebSocket-specific configuration.
type WSConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
}

// DefaultWSConfig returns a default WebSocket configuration.
func DefaultWSConfig(wsURL string) *WSConfig {
	return &WSConfig{
		URL:              wsURL,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     20 * time.Second,
		PongTimeout:      10 * time.Second,
	}
}

// WSWorker consumes a ticker stream and publishes the parsed price updates.
// Parse turns one raw frame into updates; a nil, nil return skips the frame.
// OnSubscribe, when set, sends the subscription request for the pairs after
// connecting.
type WSWorker struct {
	Config      *WSConfig
	Logger      *logrus.Logger
	Publish     func(context.Context, ...PriceUpdate) error
	Parse       func([]byte) ([]PriceUpdate, error)
	OnSubscribe func(*websocket.Conn, []string) error
}

// NewWSWorker creates a stream worker with the default ticker parser.
func NewWSWorker(config *WSConfig, logger *logrus.Logger,
	publish func(context.Context, ...PriceUpdate) error) *WSWorker {
	return &WSWorker{
		Config:  config,
		Logger:  logger,
		Publish: publish,
		Parse:   ParseTickerFrame,
	}
}

// ParseTickerFrame decodes the default stream frame format:
// {"symbol":"BTC/USD","price":64231.5}.
func ParseTickerFrame(raw []byte) ([]PriceUpdate, error) {
	var frame struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("feed: decode ticker frame: %w", err)
	}
	if frame.Symbol == "" {
		// Heartbeats and subscription acks carry no symbol.
		return nil, nil
	}
	coin, base, err := SplitPair(frame.Symbol)
	if err != nil {
		return nil, err
	}
	return []PriceUpdate{{
		Coin:     coin,
		BaseCoin: base,
		Price:    frame.Price,
		Source:   "ws",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}}, nil
}

// Run keeps a stream connection alive for the pairs until the context is
// cancelled, reconnecting with exponential backoff.
func (w *WSWorker) Run(ctx context.Context, pairs []string, wg *sync.WaitGroup) {
	defer wg.Done()

	workerID := fmt.Sprintf("ws-%s", pairs[0])
	w.Logger.Infof("[%s] Starting for %d pairs", workerID, len(pairs))

	reconnectDelay := InitialReconnectDelay
	consecutiveErrors := 0

	for {
		select {
		case <-ctx.Done():
			w.Logger.Infof("[%s] Shutting down due to context cancellation", workerID)
			return
		default:
			if err := w.handleConnection(ctx, workerID, pairs); err != nil {
				consecutiveErrors++
				w.Logger.Errorf("[%s] WebSocket error (%d/%d): %v. Reconnecting in %v...",
					workerID, consecutiveErrors, MaxConsecutiveErrors, err, reconnectDelay)

				if reconnectDelay < MaxReconnectDelay {
					reconnectDelay *= 2
					if reconnectDelay > MaxReconnectDelay {
						reconnectDelay = MaxReconnectDelay
					}
				}
				if consecutiveErrors >= MaxConsecutiveErrors {
					w.Logger.Warnf("[%s] Too many consecutive errors, extending delay", workerID)
					reconnectDelay = MaxReconnectDelay
				}

				select {
				case <-ctx.Done():
					return
				case <-time.After(reconnectDelay):
					continue
				}
			} else {
				consecutiveErrors = 0
				reconnectDelay = InitialReconnectDelay
			}
		}
	}
}

// handleConnection manages a single connection lifecycle.
func (w *WSWorker) handleConnection(ctx context.Context, workerID string, pairs []string) error {
	u, err := url.Parse(w.Config.URL)
	if err != nil {
		return fmt.Errorf("invalid WebSocket URL: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: w.Config.HandshakeTimeout,
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}
	defer conn.Close()

	w.Logger.Infof("[%s] Connected to WebSocket", workerID)

	connCtx, connCancel := context.WithCancel(ctx)
	defer connCancel()

	pongReceived := make(chan bool, 1)

	// The pong handler runs on the read goroutine while the health check
	// reads from the event loop.
	var pongMu sync.Mutex
	lastPongTime := time.Now()

	conn.SetPongHandler(func(string) error {
		select {
		case pongReceived <- true:
		default:
		}
		pongMu.Lock()
		lastPongTime = time.Now()
		pongMu.Unlock()
		return nil
	})
	conn.SetPingHandler(func(message string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(message),
			time.Now().Add(w.Config.WriteTimeout))
		if err != nil {
			w.Logger.Errorf("[%s] Failed to send pong: %v", workerID, err)
		}
		return err
	})

	if w.OnSubscribe != nil {
		if err := w.OnSubscribe(conn, pairs); err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
	}

	pingTicker := time.NewTicker(w.Config.PingInterval)
	defer pingTicker.Stop()
	healthTicker := time.NewTicker(HealthCheckInterval)
	defer healthTicker.Stop()

	readErrors := make(chan error, 1)
	frames := make(chan []byte, 100)

	go func() {
		defer close(frames)
		defer close(readErrors)
		for {
			select {
			case <-connCtx.Done():
				return
			default:
				conn.SetReadDeadline(time.Now().Add(w.Config.ReadTimeout))
				_, frame, err := conn.ReadMessage()
				if err != nil {
					select {
					case readErrors <- err:
					case <-connCtx.Done():
					}
					return
				}
				select {
				case frames <- frame:
				case <-connCtx.Done():
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Infof("[%s] Context cancelled, closing connection", workerID)
			return nil

		case err := <-readErrors:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				return fmt.Errorf("WebSocket read error: %w", err)
			}
			if err != nil {
				return fmt.Errorf("connection error: %w", err)
			}

		case frame := <-frames:
			updates, err := w.Parse(frame)
			if err != nil {
				w.Logger.Errorf("[%s] Failed to parse frame: %v", workerID, err)
				continue
			}
			if len(updates) == 0 {
				continue
			}
			if err := w.Publish(ctx, updates...); err != nil {
				w.Logger.Errorf("[%s] Failed to publish: %v", workerID, err)
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(w.Config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return fmt.Errorf("failed to send ping: %w", err)
			}
			go func() {
				select {
				case <-pongReceived:
				case <-time.After(w.Config.PongTimeout):
					w.Logger.Warnf("[%s] Pong timeout, connection may be unhealthy", workerID)
				case <-connCtx.Done():
				}
			}()

		case <-healthTicker.C:
			pongMu.Lock()
			timeSinceLastPong := time.Since(lastPongTime)
			pongMu.Unlock()
			if timeSinceLastPong > (w.Config.PingInterval + w.Config.PongTimeout) {
				return fmt.Errorf("connection appears unhealthy, last pong was %v ago", timeSinceLastPong)
			}
		}
	}
}
