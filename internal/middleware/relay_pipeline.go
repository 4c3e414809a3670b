package middleware

import (
	"context"
	"fmt"
	"sync"

	"aether/internal/domain/models"
	domrepo "aether/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.Trade) error
}

// RelayPipeline sits between the WebSocket stream and the trade sinks. It
// validates events and decouples the read loop from sink latency through a
// bounded buffer. The contract is process-or-drop: when the buffer is full
// the event is dropped, never blocking the stream reader.
type RelayPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	bufSize int
	bufCh   chan *models.Trade
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*RelayPipeline)

// WithBufferSize sets the bounded buffer size between stream and sinks.
func WithBufferSize(n int) PipelineOption {
	return func(p *RelayPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewRelayPipeline creates a new pipeline.
func NewRelayPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RelayPipeline {
	p := &RelayPipeline{
		proc:    proc,
		metrics: metrics,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Trade, p.bufSize)
	return p
}

// Start launches background delivery of buffered trades to the sinks.
func (p *RelayPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				if err := p.proc.Process(ctx, t); err != nil {
					p.metrics.RecordError("pipeline_deliver")
				}
			}
		}
	}()
}

// Stop stops background delivery. Buffered events are abandoned.
func (p *RelayPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates the trade and enqueues it without blocking.
func (p *RelayPipeline) Process(ctx context.Context, t *models.Trade) error {
	if err := validateTrade(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	select {
	case p.bufCh <- t:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
	return nil
}

func validateTrade(t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade nil")
	}
	if t.Pair == "" {
		return fmt.Errorf("pair empty")
	}
	if t.Price < 0 || t.Size < 0 {
		return fmt.Errorf("negative price/size")
	}
	return nil
}
