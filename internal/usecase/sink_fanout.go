package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aether/internal/domain/models"
	drepo "aether/internal/domain/repository"
)

// SinkFanout delivers each trade event to every configured sink. A failing
// sink is recorded and skipped; it never blocks delivery to the others.
type SinkFanout struct {
	sinks   []drepo.TradeSink
	metrics drepo.Metrics
}

// NewSinkFanout creates a new SinkFanout instance.
func NewSinkFanout(metrics drepo.Metrics, sinks ...drepo.TradeSink) *SinkFanout {
	return &SinkFanout{sinks: sinks, metrics: metrics}
}

// Process delivers a single trade to all sinks.
func (f *SinkFanout) Process(ctx context.Context, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}

	start := time.Now()
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Write(ctx, t); err != nil {
			f.metrics.RecordError("sink_" + sink.Name())
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
			continue
		}
		f.metrics.RecordTradeRelayed(sink.Name(), t.Pair)
	}
	f.metrics.RecordLatency("relay_fanout", time.Since(start).Seconds())
	return errors.Join(errs...)
}

// Close closes all sinks.
func (f *SinkFanout) Close() {
	for _, sink := range f.sinks {
		_ = sink.Close()
	}
}
