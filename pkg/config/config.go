package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"aether/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Provider struct {
		Vendor              string        `yaml:"vendor"` // polygon | alphavantage
		Symbol              string        `yaml:"symbol"`
		Lookback            time.Duration `yaml:"lookback"`
		Timeout             time.Duration `yaml:"timeout"`
		PolygonBaseURL      string        `yaml:"polygon_base_url"`
		PolygonAPIKey       string        `yaml:"polygon_api_key"`
		AlphaVantageBaseURL string        `yaml:"alphavantage_base_url"`
		AlphaVantageAPIKey  string        `yaml:"alphavantage_api_key"`
	} `yaml:"provider"`
	Strategist struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"strategist"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		Pair           string        `yaml:"pair"`
		Sinks          []string      `yaml:"sinks"` // log | kafka | clickhouse | redis
		BufferSize     int           `yaml:"buffer_size"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		Linger       time.Duration `yaml:"linger"`
		BatchSize    int           `yaml:"batch_size"`
		BatchBytes   int           `yaml:"batch_bytes"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Keys and credentials never live in the YAML file in production.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Provider.PolygonAPIKey = v
		c.Stream.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.Provider.AlphaVantageAPIKey = v
	}
	if v := os.Getenv("CEREBRAS_API_KEY"); v != "" {
		c.Strategist.APIKey = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Provider.Symbol = v
	}
	if v := os.Getenv("STREAM_PAIR"); v != "" {
		c.Stream.Pair = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Provider.Vendor != "polygon" && c.Provider.Vendor != "alphavantage" {
		return fmt.Errorf("provider.vendor must be 'polygon' or 'alphavantage', got '%s'", c.Provider.Vendor)
	}
	if c.Provider.Symbol == "" {
		return fmt.Errorf("provider.symbol is required")
	}
	for _, s := range c.Stream.Sinks {
		switch s {
		case "log", "kafka", "clickhouse", "redis":
		default:
			return fmt.Errorf("unknown stream sink '%s'", s)
		}
	}
	if c.Stream.Enabled && c.Stream.Pair == "" {
		return fmt.Errorf("stream.pair is required when the stream is enabled")
	}
	return nil
}
