package app

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "QUAD"

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

const (
	EventsBrokerNone     = "none"
	EventsBrokerKafka    = "kafka"
	EventsBrokerRabbitMQ = "rabbitmq"
)

// Config описывает настройки запуска. Переменные окружения имеют префикс QUAD_.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr    string `envconfig:"GRPC_ADDR" default:":50051"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	StorageDriver       string `envconfig:"STORAGE_DRIVER" default:"memory"`
	PostgresDSN         string `envconfig:"POSTGRES_DSN"`
	PostgresAutoMigrate bool   `envconfig:"POSTGRES_AUTO_MIGRATE" default:"true"`

	PoolWorkers int           `envconfig:"POOL_WORKERS" default:"4"`
	PoolTimeout time.Duration `envconfig:"POOL_TIMEOUT" default:"15s"`

	EventsBroker string   `envconfig:"EVENTS_BROKER" default:"none"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	RabbitMQURL  string   `envconfig:"RABBITMQ_URL"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"3"`
	OutboxRetryDelay   time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"200ms"`
	OutboxMaxAge       time.Duration `envconfig:"OUTBOX_MAX_AGE" default:"5m"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	RateLimitRPS     float64  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst   int      `envconfig:"RATE_LIMIT_BURST" default:"100"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DefaultConfig возвращает значения по умолчанию без чтения окружения.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		PoolWorkers:         4,
		PoolTimeout:         15 * time.Second,
		EventsBroker:        EventsBrokerNone,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    200 * time.Millisecond,
		OutboxMaxAge:        5 * time.Minute,
		CORSAllowOrigins:    []string{"*"},
		RateLimitRPS:        50,
		RateLimitBurst:      100,
		LogLevel:            "info",
		LogFormat:           "text",
		ShutdownTimeout:     10 * time.Second,
	}
}

// LoadConfig читает конфигурацию из окружения и проверяет её.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env config")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.EventsBroker = strings.ToLower(strings.TrimSpace(c.EventsBroker))
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)

	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers
}

// Validate отклоняет несовместимые сочетания настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres storage requires QUAD_POSTGRES_DSN")
		}
	default:
		return errors.Newf("unsupported storage driver %q", c.StorageDriver)
	}

	switch c.EventsBroker {
	case "", EventsBrokerNone:
	case EventsBrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("kafka events broker requires QUAD_KAFKA_BROKERS")
		}
	case EventsBrokerRabbitMQ:
		if strings.TrimSpace(c.RabbitMQURL) == "" {
			return errors.New("rabbitmq events broker requires QUAD_RABBITMQ_URL")
		}
	default:
		return errors.Newf("unsupported events broker %q", c.EventsBroker)
	}

	if c.PoolWorkers <= 0 {
		return errors.Newf("pool workers must be positive, got %d", c.PoolWorkers)
	}
	if c.OutboxBatchSize <= 0 {
		return errors.Newf("outbox batch size must be positive, got %d", c.OutboxBatchSize)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// ConfigureLogger настраивает глобальный logrus по LOG_LEVEL и LOG_FORMAT.
func ConfigureLogger(cfg Config) {
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
}
