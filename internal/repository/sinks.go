package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgch "aether/pkg/clickhouse"

	"aether/internal/domain/models"
	"aether/internal/domain/repository"
	pkgkafka "aether/pkg/kafka"
	applogger "aether/pkg/logger"
)

// LogSink relays each trade event to the structured log for display and
// records its price. This is the default sink; the original consumer of the
// stream was a terminal.
type LogSink struct {
	logger  *applogger.Logger
	metrics repository.Metrics
}

// NewLogSink creates the display log sink.
func NewLogSink(l *applogger.Logger, m repository.Metrics) repository.TradeSink {
	return &LogSink{logger: l, metrics: m}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, t *models.Trade) error {
	s.logger.Info("live trade",
		applogger.String("pair", t.Pair),
		applogger.Float64("price", t.Price),
		applogger.Float64("size", t.Size),
	)
	s.metrics.RecordLastPrice(t.Pair, t.Price)
	return nil
}

func (s *LogSink) Close() error { return nil }

// KafkaSink forwards trade events to a topic for downstream display
// consumers, keyed by pair for per-pair ordering.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSink creates a Kafka trade sink.
func NewKafkaSink(producer *pkgkafka.Producer, topic string) repository.TradeSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, t *models.Trade) error {
	return s.producer.Publish(ctx, s.topic, []byte(t.Pair), map[string]interface{}{
		"pair":  t.Pair,
		"t":     t.Timestamp,
		"price": t.Price,
		"size":  t.Size,
	})
}

func (s *KafkaSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

// ClickHouseSink records raw trade ticks.
type ClickHouseSink struct {
	client *pkgch.Client
	table  string
}

// NewClickHouseSink creates a ClickHouse trade sink. The sink owns the
// client and closes it with the relay.
func NewClickHouseSink(client *pkgch.Client, table string) repository.TradeSink {
	return &ClickHouseSink{client: client, table: table}
}

func (s *ClickHouseSink) Name() string { return "clickhouse" }

func (s *ClickHouseSink) Write(ctx context.Context, t *models.Trade) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, pair, price, size, source) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.client.DB().ExecContext(ctx, q,
		time.UnixMilli(t.Timestamp),
		t.Pair,
		t.Price,
		t.Size,
		"polygon",
	)
	return err
}

func (s *ClickHouseSink) Close() error {
	return s.client.Close()
}

// RedisSink publishes trade JSON on a pub/sub channel so a frontend gateway
// can fan events out to browsers.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

// NewRedisSink creates a Redis pub/sub trade sink.
func NewRedisSink(rdb *redis.Client, channel string) repository.TradeSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, t *models.Trade) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	return s.rdb.Publish(ctx, s.channel, b).Err()
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
