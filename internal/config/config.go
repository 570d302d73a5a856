package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Job transports.
const (
	TransportSQS = "sqs"
	TransportSNS = "sns"
)

type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Env      string `envconfig:"ENV" default:"development"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`

	// Database
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"courier"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"courier"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`

	// MongoDB
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"courier"`

	// Redis config. Empty RedisHost disables idempotency and rate limiting.
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// AWS Services
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpoint  string `envconfig:"AWS_ENDPOINT"`
	SESFromEmail string `envconfig:"SES_FROM_EMAIL" default:"noreply@courier.local"`
	SESEnabled   bool   `envconfig:"SES_ENABLED" default:"false"`

	JobTransport     string `envconfig:"JOB_TRANSPORT" default:"sqs"`
	SQSRegion        string `envconfig:"SQS_REGION"`
	SQSEmailQueueURL string `envconfig:"SQS_EMAIL_QUEUE_URL"`
	SQSUIQueueURL    string `envconfig:"SQS_UI_QUEUE_URL"`
	SNSTopicARN      string `envconfig:"SNS_TOPIC_ARN"`

	// Circuit breaker around each job sink
	BreakerMaxFailures     int           `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerRecoveryTimeout time.Duration `envconfig:"BREAKER_RECOVERY_TIMEOUT" default:"30s"`

	// Rate limiting per client
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	// Worker
	WorkerBatchSize   int32 `envconfig:"WORKER_BATCH_SIZE" default:"5"`
	WorkerConcurrency int   `envconfig:"WORKER_CONCURRENCY" default:"5"`
	// WorkerPort serves /health and /metrics for the worker process.
	WorkerPort int `envconfig:"WORKER_PORT" default:"9091"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.SQSRegion == "" {
		cfg.SQSRegion = cfg.AWSRegion
	}

	switch cfg.StoreDriver {
	case StorePostgres, StoreMongo:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", cfg.StoreDriver, StorePostgres, StoreMongo)
	}

	switch cfg.JobTransport {
	case TransportSQS, TransportSNS:
	default:
		return nil, fmt.Errorf("invalid JOB_TRANSPORT %q: want %s or %s", cfg.JobTransport, TransportSQS, TransportSNS)
	}

	return &cfg, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
