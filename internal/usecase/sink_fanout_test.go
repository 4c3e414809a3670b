package usecase

import (
	"context"
	"errors"
	"testing"

	"aether/internal/domain/models"
)

type fakeSink struct {
	name   string
	err    error
	writes []*models.Trade
	closed bool
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Write(ctx context.Context, t *models.Trade) error {
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, t)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func sampleTrade() *models.Trade {
	return &models.Trade{Pair: "BTC-USD", Price: 41280.10, Size: 0.0125, Timestamp: 1700000000000}
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	f := NewSinkFanout(newFakeMetrics(), a, b)

	if err := f.Process(context.Background(), sampleTrade()); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(a.writes) != 1 || len(b.writes) != 1 {
		t.Errorf("writes a=%d b=%d, want 1 each", len(a.writes), len(b.writes))
	}
}

func TestFanoutFailingSinkDoesNotBlockOthers(t *testing.T) {
	broken := &fakeSink{name: "broken", err: errors.New("down")}
	healthy := &fakeSink{name: "healthy"}
	metrics := newFakeMetrics()
	f := NewSinkFanout(metrics, broken, healthy)

	err := f.Process(context.Background(), sampleTrade())
	if err == nil {
		t.Fatal("expected joined error from the failing sink")
	}
	if len(healthy.writes) != 1 {
		t.Errorf("healthy sink writes %d, want 1", len(healthy.writes))
	}
	if metrics.errs["sink_broken"] != 1 {
		t.Errorf("sink_broken error counter = %d, want 1", metrics.errs["sink_broken"])
	}
}

func TestFanoutNilTrade(t *testing.T) {
	f := NewSinkFanout(newFakeMetrics(), &fakeSink{name: "a"})
	if err := f.Process(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil trade")
	}
}

func TestFanoutClose(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	f := NewSinkFanout(newFakeMetrics(), a, b)
	f.Close()
	if !a.closed || !b.closed {
		t.Error("Close must close every sink")
	}
}
