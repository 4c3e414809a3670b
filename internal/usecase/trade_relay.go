package usecase

import (
	"context"

	"aether/internal/domain/models"
	drepo "aether/internal/domain/repository"
	mid "aether/internal/middleware"
)

// TradeRelay subscribes to the live trade stream and relays each event to
// the configured sinks. It runs independently of the request/response path
// and shares no data with the analyzer.
type TradeRelay struct {
	stream  drepo.MarketStream
	fanout  *SinkFanout
	metrics drepo.Metrics
	pipe    *mid.RelayPipeline
}

// NewTradeRelay creates a new TradeRelay instance.
func NewTradeRelay(stream drepo.MarketStream, fanout *SinkFanout, metrics drepo.Metrics, pipe *mid.RelayPipeline) *TradeRelay {
	return &TradeRelay{stream: stream, fanout: fanout, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (r *TradeRelay) IsConnected() bool {
	return r.stream.IsConnected()
}

// Start connects, subscribes, and begins relaying until the context ends.
func (r *TradeRelay) Start(ctx context.Context) error {
	if err := r.stream.Connect(ctx); err != nil {
		return err
	}
	if err := r.stream.Subscribe(ctx); err != nil {
		return err
	}
	if r.pipe != nil {
		r.pipe.Start(ctx)
	}
	trCh, errCh := r.stream.Read(ctx)
	go r.consume(ctx, trCh, errCh)
	return nil
}

func (r *TradeRelay) consume(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				// Both channels close together when the read loop exits.
				if trCh, errCh, ok = r.reconnect(ctx); !ok {
					return
				}
				continue
			}
			if err != nil {
				r.metrics.RecordError("stream")
				if trCh, errCh, ok = r.reconnect(ctx); !ok {
					return
				}
			}
		case t, ok := <-trCh:
			if !ok {
				trCh = nil
				continue
			}
			if t == nil {
				continue
			}
			if r.pipe != nil {
				_ = r.pipe.Process(ctx, t)
			} else {
				_ = r.fanout.Process(ctx, t)
			}
		}
	}
}

// reconnect retries until the stream is back or the context ends, then
// starts a fresh read. The stream's own delay paces the retries.
func (r *TradeRelay) reconnect(ctx context.Context) (<-chan *models.Trade, <-chan error, bool) {
	for {
		if ctx.Err() != nil {
			return nil, nil, false
		}
		if err := r.stream.Reconnect(ctx); err != nil {
			r.metrics.RecordError("stream_reconnect")
			continue
		}
		trCh, errCh := r.stream.Read(ctx)
		return trCh, errCh, true
	}
}

// Fanout returns the underlying SinkFanout for lifecycle management.
func (r *TradeRelay) Fanout() *SinkFanout { return r.fanout }

// Shutdown stops the pipeline and closes the stream connection.
func (r *TradeRelay) Shutdown(ctx context.Context) error {
	if r.pipe != nil {
		r.pipe.Stop()
	}
	return r.stream.Close()
}
