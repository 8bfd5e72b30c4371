package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig
	Mongo     MongoConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
	Log       LogConfig
}

type HTTPConfig struct {
	Port               string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	CORSAllowedOrigins []string
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MinPoolSize    uint64
	MaxPoolSize    uint64
}

// KafkaConfig configures cart event publishing. No brokers means events are dropped.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig configures the per-client limiter. An empty RedisURL disables it.
type RateLimitConfig struct {
	RedisURL string
	Requests int
	Window   time.Duration
}

type MetricsConfig struct {
	Namespace string
}

// TracingConfig selects the span exporter: none, otlp or stdout.
type TracingConfig struct {
	ServiceName   string
	Exporter      string
	Endpoint      string
	SamplingRatio float64
	Environment   string
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8080")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("max_request_body_size", 1<<20)
	v.SetDefault("cors_allowed_origins", "*")

	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db_name", "cartdb")
	v.SetDefault("mongo_connect_timeout", "10s")
	v.SetDefault("mongo_min_pool_size", 10)
	v.SetDefault("mongo_max_pool_size", 100)

	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "cart-events")

	v.SetDefault("redis_url", "")
	v.SetDefault("rate_limit_requests", 100)
	v.SetDefault("rate_limit_window", "1m")

	v.SetDefault("metrics_namespace", "cart_service")

	v.SetDefault("otel_service_name", "cart-service")
	v.SetDefault("tracing_exporter", "none")
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("tracing_sampling_ratio", 1.0)
	v.SetDefault("app_env", "development")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Load reads configuration from defaults, an optional config file, a .env
// file and the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:               v.GetString("http_port"),
			RequestTimeout:     v.GetDuration("request_timeout"),
			ShutdownTimeout:    v.GetDuration("shutdown_timeout"),
			MaxRequestBodySize: v.GetInt64("max_request_body_size"),
			CORSAllowedOrigins: splitAndTrim(v.GetString("cors_allowed_origins")),
		},
		Mongo: MongoConfig{
			URI:            v.GetString("mongo_uri"),
			Database:       v.GetString("mongo_db_name"),
			ConnectTimeout: v.GetDuration("mongo_connect_timeout"),
			MinPoolSize:    v.GetUint64("mongo_min_pool_size"),
			MaxPoolSize:    v.GetUint64("mongo_max_pool_size"),
		},
		Kafka: KafkaConfig{
			Brokers: splitAndTrim(v.GetString("kafka_brokers")),
			Topic:   v.GetString("kafka_topic"),
		},
		RateLimit: RateLimitConfig{
			RedisURL: strings.TrimSpace(v.GetString("redis_url")),
			Requests: v.GetInt("rate_limit_requests"),
			Window:   v.GetDuration("rate_limit_window"),
		},
		Metrics: MetricsConfig{
			Namespace: v.GetString("metrics_namespace"),
		},
		Tracing: TracingConfig{
			ServiceName:   v.GetString("otel_service_name"),
			Exporter:      strings.ToLower(strings.TrimSpace(v.GetString("tracing_exporter"))),
			Endpoint:      v.GetString("otel_exporter_otlp_endpoint"),
			SamplingRatio: v.GetFloat64("tracing_sampling_ratio"),
			Environment:   v.GetString("app_env"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log_level")),
			Format: strings.ToLower(v.GetString("log_format")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Mongo.URI) == "" {
		return errors.New("MONGO_URI is required")
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		return errors.New("MONGO_DB_NAME is required")
	}
	if c.HTTP.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.Kafka.Enabled() && strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch c.Tracing.Exporter {
	case "none", "otlp", "stdout":
	default:
		return fmt.Errorf("TRACING_EXPORTER must be none, otlp or stdout, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SamplingRatio < 0 || c.Tracing.SamplingRatio > 1 {
		return errors.New("TRACING_SAMPLING_RATIO must be between 0 and 1")
	}
	return nil
}

// Addr returns the address the HTTP server should bind to.
func (c HTTPConfig) Addr() string {
	port := strings.TrimSpace(c.Port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func (r RateLimitConfig) Enabled() bool {
	return r.RedisURL != "" && r.Requests > 0 && r.Window > 0
}

func splitAndTrim(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
