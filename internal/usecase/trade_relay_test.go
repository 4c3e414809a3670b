package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"aether/internal/domain/models"
)

type fakeStream struct {
	mu         sync.Mutex
	trades     chan *models.Trade
	errs       chan error
	connected  bool
	connects   int
	subscribes int
	reconnects int
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		trades: make(chan *models.Trade, 16),
		errs:   make(chan error, 1),
	}
}

func (s *fakeStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.connects++
	return nil
}

func (s *fakeStream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	return nil
}

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.Trade, <-chan error) {
	return s.trades, s.errs
}

func (s *fakeStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	s.connected = true
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

type syncSink struct {
	mu     sync.Mutex
	writes []*models.Trade
}

func (s *syncSink) Name() string { return "sync" }

func (s *syncSink) Write(ctx context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, t)
	return nil
}

func (s *syncSink) Close() error { return nil }

func (s *syncSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestTradeRelayDeliversToSinks(t *testing.T) {
	stream := newFakeStream()
	sink := &syncSink{}
	relay := NewTradeRelay(stream, NewSinkFanout(newFakeMetrics(), sink), newFakeMetrics(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := relay.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !relay.IsConnected() {
		t.Error("relay not connected after Start")
	}
	if stream.subscribes != 1 {
		t.Errorf("subscribes = %d, want 1", stream.subscribes)
	}

	stream.trades <- &models.Trade{Pair: "BTC-USD", Price: 1, Size: 1, Timestamp: 1}
	stream.trades <- &models.Trade{Pair: "BTC-USD", Price: 2, Size: 1, Timestamp: 2}

	waitFor(t, func() bool { return sink.count() == 2 })
}

func TestTradeRelayReconnectsOnStreamError(t *testing.T) {
	stream := newFakeStream()
	sink := &syncSink{}
	metrics := newFakeMetrics()
	relay := NewTradeRelay(stream, NewSinkFanout(newFakeMetrics(), sink), metrics, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := relay.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stream.errs <- context.DeadlineExceeded

	waitFor(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return stream.reconnects >= 1
	})

	// The relay keeps consuming after the reconnect.
	stream.trades <- &models.Trade{Pair: "BTC-USD", Price: 3, Size: 1, Timestamp: 3}
	waitFor(t, func() bool { return sink.count() == 1 })
}

func TestTradeRelayShutdown(t *testing.T) {
	stream := newFakeStream()
	relay := NewTradeRelay(stream, NewSinkFanout(newFakeMetrics()), newFakeMetrics(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := relay.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := relay.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if stream.IsConnected() {
		t.Error("stream still connected after Shutdown")
	}
}
