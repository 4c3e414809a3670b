package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aether/internal/domain/models"
	drepo "aether/internal/domain/repository"
	applogger "aether/pkg/logger"
)

// Client implements a MarketStream backed by the Polygon crypto WebSocket
// feed. Subscription keys take the form "<event-type>.<market-prefix>:<pair>"
// (trades are "XT.X:<pair>").
type Client struct {
	apiKey         string
	websocketURL   string
	pair           string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *applogger.Logger

	// mu guards conn and connected and serializes all writes: the
	// websocket permits one concurrent writer only, and auth, subscribe
	// and ping frames come from different goroutines.
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a new Polygon MarketStream.
func New(apiKey, websocketURL, pair string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) drepo.MarketStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		pair:           pair,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         l,
	}
}

type controlMessage struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// Connect establishes the WebSocket connection and authenticates.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("polygon connect: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := conn.WriteJSON(controlMessage{Action: "auth", Params: c.apiKey}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("polygon auth: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.logger.Info("polygon stream connected")
	return nil
}

// Subscribe subscribes to the configured pair's trade channel.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("polygon not connected")
	}
	key := "XT.X:" + c.pair
	if err := c.conn.WriteJSON(controlMessage{Action: "subscribe", Params: key}); err != nil {
		return fmt.Errorf("subscribe %s: %w", key, err)
	}
	c.logger.Info("polygon stream subscribed", applogger.String("channel", key))
	return nil
}

type pgEvent struct {
	Ev   string  `json:"ev"`
	Pair string  `json:"pair"`
	P    float64 `json:"p"`
	S    float64 `json:"s"`
	T    int64   `json:"t"` // ms
}

// Read streams Trade events and errors. Both channels close when the read
// loop exits; inbound events are dropped rather than buffered without bound.
// The ping loop lives exactly as long as this read's connection, so stale
// pingers never outlive a reconnect.
func (c *Client) Read(ctx context.Context) (<-chan *models.Trade, <-chan error) {
	trades := make(chan *models.Trade, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				c.mu.Lock()
				if conn != nil && c.conn == conn {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
				c.mu.Unlock()
			}
		}
	}()

	// read loop
	go func() {
		defer close(trades)
		defer close(errs)
		defer close(done)
		if conn == nil {
			errs <- fmt.Errorf("polygon conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("polygon read: %w", err)
					return
				}
				// Polygon frames carry an array of events; status/control
				// events share the array with trades.
				var events []pgEvent
				if err := json.Unmarshal(b, &events); err != nil {
					continue
				}
				for _, ev := range events {
					if ev.Ev != "XT" {
						continue
					}
					trade := &models.Trade{Pair: ev.Pair, Price: ev.P, Size: ev.S, Timestamp: ev.T}
					select {
					case trades <- trade:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return trades, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
