package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"aether/internal/domain/models"
)

type recordingProc struct {
	mu     sync.Mutex
	trades []*models.Trade
}

func (p *recordingProc) Process(ctx context.Context, t *models.Trade) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trades = append(p.trades, t)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.trades)
}

type countingMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errs: map[string]int{}}
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}

func (m *countingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[kind]
}

func (m *countingMetrics) RecordAnalysis(string)           {}
func (m *countingMetrics) RecordTradeRelayed(_, _ string)  {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)   {}

func validTrade(ts int64) *models.Trade {
	return &models.Trade{Pair: "BTC-USD", Price: 100, Size: 1, Timestamp: ts}
}

func TestPipelineDeliversBufferedTrades(t *testing.T) {
	proc := &recordingProc{}
	p := NewRelayPipeline(proc, newCountingMetrics())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	for i := int64(1); i <= 3; i++ {
		if err := p.Process(ctx, validTrade(i)); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && proc.count() < 3 {
		time.Sleep(10 * time.Millisecond)
	}
	if got := proc.count(); got != 3 {
		t.Fatalf("delivered %d trades, want 3", got)
	}
}

func TestPipelineRejectsInvalidTrades(t *testing.T) {
	metrics := newCountingMetrics()
	p := NewRelayPipeline(&recordingProc{}, metrics)

	cases := []*models.Trade{
		nil,
		{Pair: "", Price: 1, Size: 1},
		{Pair: "BTC-USD", Price: -1, Size: 1},
		{Pair: "BTC-USD", Price: 1, Size: -1},
	}
	for _, tr := range cases {
		if err := p.Process(context.Background(), tr); err == nil {
			t.Errorf("expected validation error for %+v", tr)
		}
	}
	if got := metrics.count("pipeline_validate"); got != len(cases) {
		t.Errorf("pipeline_validate counter = %d, want %d", got, len(cases))
	}
}

func TestPipelineDropsOnFullBuffer(t *testing.T) {
	metrics := newCountingMetrics()
	// Never started, so nothing drains the buffer.
	p := NewRelayPipeline(&recordingProc{}, metrics, WithBufferSize(2))

	for i := int64(1); i <= 5; i++ {
		if err := p.Process(context.Background(), validTrade(i)); err != nil {
			t.Fatalf("Process must not fail on a full buffer: %v", err)
		}
	}
	if got := metrics.count("pipeline_buffer_full"); got != 3 {
		t.Errorf("pipeline_buffer_full counter = %d, want 3", got)
	}
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	p := NewRelayPipeline(&recordingProc{}, newCountingMetrics())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	p.Stop()
	p.Stop()
}
