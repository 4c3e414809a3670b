package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aether/internal/domain/repository"
	"aether/internal/handler/api"
	mid "aether/internal/middleware"
	"aether/internal/provider"
	internalrepo "aether/internal/repository"
	"aether/internal/strategist"
	"aether/internal/stream"
	"aether/internal/usecase"
	pkgch "aether/pkg/clickhouse"
	"aether/pkg/config"
	pkgkafka "aether/pkg/kafka"
	applogger "aether/pkg/logger"
	"aether/pkg/metrics"
	"aether/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{
		Level:  "info",
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBarProvider selects the market-data vendor adapter.
func ProvideBarProvider(cfg *config.Config) (repository.BarProvider, error) {
	return provider.ForVendor(cfg)
}

// ProvideStrategist creates the reasoning-service client.
func ProvideStrategist(cfg *config.Config, l *applogger.Logger) repository.Strategist {
	return strategist.New(cfg, l)
}

// ProvideAnalyzer creates the analysis orchestrator.
func ProvideAnalyzer(
	barProvider repository.BarProvider,
	strat repository.Strategist,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(barProvider, strat, m, l, cfg.Provider.Lookback)
}

// ProvideMarketStream creates the Polygon WebSocket stream.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Pair,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
}

// ProvideTradeSinks builds the sinks named by stream.sinks. Backing clients
// are only created for sinks that are actually configured; with no sinks
// configured the relay falls back to the log sink.
func ProvideTradeSinks(cfg *config.Config, l *applogger.Logger, m repository.Metrics) ([]repository.TradeSink, error) {
	names := cfg.Stream.Sinks
	if len(names) == 0 {
		names = []string{"log"}
	}

	sinks := make([]repository.TradeSink, 0, len(names))
	for _, name := range names {
		switch name {
		case "log":
			sinks = append(sinks, internalrepo.NewLogSink(l, m))
		case "kafka":
			producer, err := provideKafkaProducer(cfg)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic))
		case "clickhouse":
			client, err := provideClickHouseClient(cfg)
			if err != nil {
				return nil, err
			}
			table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
			sinks = append(sinks, internalrepo.NewClickHouseSink(client, table))
		case "redis":
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			sinks = append(sinks, internalrepo.NewRedisSink(rdb, cfg.Redis.Channel))
		default:
			return nil, fmt.Errorf("unknown stream sink '%s'", name)
		}
	}
	return sinks, nil
}

func provideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func provideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		"CREATE TABLE IF NOT EXISTS " + table +
			" (ts DateTime64(3), pair String, price Float64, size Float64, source String)" +
			" ENGINE=MergeTree ORDER BY (pair, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSinkFanout creates the fan-out processor over the configured sinks.
func ProvideSinkFanout(m repository.Metrics, sinks []repository.TradeSink) *usecase.SinkFanout {
	return usecase.NewSinkFanout(m, sinks...)
}

// ProvideTradeRelay creates the relay with its buffering pipeline.
func ProvideTradeRelay(
	marketStream repository.MarketStream,
	fanout *usecase.SinkFanout,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TradeRelay {
	pipe := mid.NewRelayPipeline(fanout, m,
		mid.WithBufferSize(cfg.Stream.BufferSize),
	)
	return usecase.NewTradeRelay(marketStream, fanout, m, pipe)
}

// ProvideAnalysisHandler creates the HTTP handler.
func ProvideAnalysisHandler(l *applogger.Logger, analyzer *usecase.Analyzer, cfg *config.Config) *api.AnalysisHandler {
	return api.NewAnalysisHandler(l, analyzer, cfg.Provider.Symbol)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AnalysisHandler,
	relay *usecase.TradeRelay,
) *server.App {
	return server.New(cfg, l, handler, relay)
}
