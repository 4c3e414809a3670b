package repository

import (
	"context"
	"time"

	"aether/internal/domain/models"
)

// BarProvider fetches recent bars for an instrument from a market-data vendor.
// Implementations own exactly one vendor's payload shape.
type BarProvider interface {
	Fetch(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error)
	Name() string
}

// Strategist turns an enriched anomaly report into narrative text. A failed
// call yields a recoverable placeholder narrative, never an error.
type Strategist interface {
	Analyze(ctx context.Context, details *models.AnomalyDetails) string
}

// MarketStream is a long-lived push subscription for trade events.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TradeSink receives relayed trade events. Sinks must not block the relay;
// slow sinks cause drops upstream.
type TradeSink interface {
	Write(ctx context.Context, t *models.Trade) error
	Name() string
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordAnalysis(outcome string)
	RecordTradeRelayed(sink, pair string)
	RecordError(kind string)
	RecordLastPrice(pair string, price float64)
	RecordLatency(op string, seconds float64)
}
