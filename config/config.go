package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP             HTTP
		Log              Log
		PG               PG
		Redis            Redis
		S3               S3
		Kafka            Kafka
		Commands         Commands
		OutboxRelay      OutboxRelay
		ActivityConsumer ActivityConsumer
		Tracing          Tracing
		Swagger          Swagger
	}

	HTTP struct {
		Port            string        `env:"HTTP_PORT,required"`
		UsePreforkMode  bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"3s"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax     int    `env:"PG_POOL_MAX,required"`
		URL         string `env:"PG_URL,required"`
		AutoMigrate bool   `env:"PG_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR,required"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	}

	// S3 receives the outbox archive. With S3_ENABLED=false cleanup only deletes.
	S3 struct {
		Enabled        bool          `env:"S3_ENABLED" envDefault:"false"`
		Endpoint       string        `env:"S3_ENDPOINT"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		AccessKey      string        `env:"S3_ACCESS_KEY"`
		SecretKey      string        `env:"S3_SECRET_KEY"`
		Bucket         string        `env:"S3_BUCKET" envDefault:"domain-outbox-archive"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers         []string      `env:"KAFKA_BROKERS,required"`
		Topic           string        `env:"KAFKA_TOPIC" envDefault:"domain-events"`
		PublishTimeout  time.Duration `env:"KAFKA_PUBLISH_TIMEOUT" envDefault:"5s"`
		AutoCreateTopic bool          `env:"KAFKA_AUTO_CREATE_TOPIC" envDefault:"false"`
	}

	Commands struct {
		Timeout       time.Duration `env:"COMMANDS_TIMEOUT" envDefault:"10s"`
		MaxAttempts   uint          `env:"COMMANDS_MAX_ATTEMPTS" envDefault:"3"`
		RetryInitial  time.Duration `env:"COMMANDS_RETRY_INITIAL" envDefault:"50ms"`
		RetryInterval time.Duration `env:"COMMANDS_RETRY_MAX_INTERVAL" envDefault:"1s"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"1s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"10m"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxAttempts         int           `env:"OUTBOX_RELAY_MAX_ATTEMPTS" envDefault:"10"`
		ClaimTTL            time.Duration `env:"OUTBOX_RELAY_CLAIM_TTL" envDefault:"30s"`
		BackoffInitial      time.Duration `env:"OUTBOX_RELAY_BACKOFF_INITIAL" envDefault:"1s"`
		BackoffMax          time.Duration `env:"OUTBOX_RELAY_BACKOFF_MAX" envDefault:"5m"`
		Retention           time.Duration `env:"OUTBOX_RELAY_RETENTION" envDefault:"1h"`
		CleanupBatchSize    int           `env:"OUTBOX_RELAY_CLEANUP_BATCH_SIZE" envDefault:"500"`
	}

	ActivityConsumer struct {
		Enabled         bool          `env:"ACTIVITY_CONSUMER_ENABLED" envDefault:"true"`
		GroupID         string        `env:"ACTIVITY_CONSUMER_GROUP_ID" envDefault:"domain-activity"`
		Workers         int           `env:"ACTIVITY_CONSUMER_WORKERS" envDefault:"4"`
		CommitTimeout   time.Duration `env:"ACTIVITY_CONSUMER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"ACTIVITY_CONSUMER_PROCESS_TIMEOUT" envDefault:"5s"`
		RetryInitial    time.Duration `env:"ACTIVITY_CONSUMER_RETRY_INITIAL" envDefault:"100ms"`
		RetryMax        time.Duration `env:"ACTIVITY_CONSUMER_RETRY_MAX" envDefault:"10s"`
		ShutdownTimeout time.Duration `env:"ACTIVITY_CONSUMER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		DedupTTL        time.Duration `env:"ACTIVITY_CONSUMER_DEDUP_TTL" envDefault:"168h"`
		FeedCapacity    int           `env:"ACTIVITY_CONSUMER_FEED_CAPACITY" envDefault:"100"`
	}

	Tracing struct {
		Enabled     bool    `env:"TRACING_ENABLED" envDefault:"false"`
		Exporter    string  `env:"TRACING_EXPORTER" envDefault:"stdout"` // stdout, otlp, none
		Endpoint    string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4317"`
		ServiceName string  `env:"TRACING_SERVICE_NAME" envDefault:"domain-service"`
		SampleRate  float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.S3.Enabled && (cfg.S3.Endpoint == "" || cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "") {
		return nil, fmt.Errorf("config error: S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENABLED")
	}

	return cfg, nil
}
