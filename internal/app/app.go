package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/Domain-Service/config"
	kafkactrl "github.com/andreyxaxa/Domain-Service/internal/controller/kafka"
	"github.com/andreyxaxa/Domain-Service/internal/controller/restapi"
	"github.com/andreyxaxa/Domain-Service/internal/controller/worker/outbox"
	"github.com/andreyxaxa/Domain-Service/internal/infrastructure/clock"
	infrakafka "github.com/andreyxaxa/Domain-Service/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Domain-Service/internal/infrastructure/token"
	"github.com/andreyxaxa/Domain-Service/internal/repo/persistent"
	"github.com/andreyxaxa/Domain-Service/internal/usecase/activity"
	"github.com/andreyxaxa/Domain-Service/internal/usecase/domainrecord"
	outboxuc "github.com/andreyxaxa/Domain-Service/internal/usecase/outbox"
	"github.com/andreyxaxa/Domain-Service/pkg/httpserver"
	"github.com/andreyxaxa/Domain-Service/pkg/kafka/consumer"
	"github.com/andreyxaxa/Domain-Service/pkg/kafka/producer"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/andreyxaxa/Domain-Service/pkg/postgres"
	"github.com/andreyxaxa/Domain-Service/pkg/redisclient"
	"github.com/andreyxaxa/Domain-Service/pkg/s3client"
	"github.com/andreyxaxa/Domain-Service/pkg/tracing"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)
	defer func() { _ = l.Sync() }()

	// Tracing
	tp, err := tracing.New(cfg.Tracing.Enabled, cfg.Tracing.Exporter, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName, cfg.Tracing.SampleRate)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - tracing.New: %w", err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			l.Error(fmt.Errorf("app - Run - tp.Shutdown: %w", err))
		}
	}()

	// Repository

	// postgres
	if cfg.PG.AutoMigrate {
		err = migrateUp(cfg.PG.URL, l)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - migrateUp: %w", err))
		}
	}

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// redis
	rdb, err := redisclient.New(ctx, cfg.Redis.Addr,
		redisclient.Password(cfg.Redis.Password),
		redisclient.DB(cfg.Redis.DB),
		redisclient.PoolSize(cfg.Redis.PoolSize),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - redisclient.New: %w", err))
	}
	defer func() { _ = rdb.Close() }()

	// s3
	outboxOpts := []outboxuc.Option{
		outboxuc.Topic(cfg.Kafka.Topic),
		outboxuc.BatchSize(cfg.OutboxRelay.BatchSize),
		outboxuc.MaxAttempts(cfg.OutboxRelay.MaxAttempts),
		outboxuc.ClaimTTL(cfg.OutboxRelay.ClaimTTL),
		outboxuc.PublishTimeout(cfg.Kafka.PublishTimeout),
		outboxuc.Backoff(cfg.OutboxRelay.BackoffInitial, cfg.OutboxRelay.BackoffMax),
		outboxuc.Retention(cfg.OutboxRelay.Retention),
		outboxuc.CleanupBatchSize(cfg.OutboxRelay.CleanupBatchSize),
		outboxuc.Tracer(tp.Tracer()),
	}

	if cfg.S3.Enabled {
		s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
		defer s3Cancel()
		s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, s3client.Region(cfg.S3.Region))
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
		}

		outboxOpts = append(outboxOpts, outboxuc.Archive(persistent.NewOutboxArchiveRepo(s3c, cfg.S3.Bucket)))
	}

	outboxRepo := persistent.NewOutboxRepo(pg)
	systemClock := clock.New()

	// Use-Case

	// domain record use-case
	domainUseCase := domainrecord.New(
		persistent.NewDomainRecordRepo(pg),
		outboxRepo,
		pg,
		systemClock,
		token.New(),
		l,
		domainrecord.CommandTimeout(cfg.Commands.Timeout),
		domainrecord.MaxAttempts(cfg.Commands.MaxAttempts),
		domainrecord.RetryInterval(cfg.Commands.RetryInitial, cfg.Commands.RetryInterval),
		domainrecord.Tracer(tp.Tracer()),
	)

	// activity use-case
	activityUseCase := activity.New(
		persistent.NewProcessedEventsRepo(rdb.Client, cfg.ActivityConsumer.DedupTTL),
		persistent.NewActivityRepo(rdb.Client, cfg.ActivityConsumer.FeedCapacity),
		systemClock,
		l,
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers, producer.AutoCreateTopic(cfg.Kafka.AutoCreateTopic))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}
	publisher := infrakafka.NewEventPublisher(kafkaProducer)

	// outbox use-case
	outboxUseCase := outboxuc.New(outboxRepo, publisher, systemClock, l, outboxOpts...)

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		outboxUseCase,
		publisher,
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
	)

	// Kafka as Controller
	var kafkaController *kafkactrl.KafkaController
	if cfg.ActivityConsumer.Enabled {
		kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.ActivityConsumer.GroupID, cfg.Kafka.Topic)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
		}

		kafkaController = kafkactrl.New(
			activityUseCase,
			infrakafka.NewEventConsumer(kafkaConsumer),
			l,
			cfg.ActivityConsumer.CommitTimeout,
			cfg.ActivityConsumer.ProcessTimeout,
			cfg.ActivityConsumer.RetryInitial,
			cfg.ActivityConsumer.RetryMax,
			cfg.ActivityConsumer.Workers,
		)
	}

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
	restapi.NewRouter(httpServer.App, cfg, domainUseCase, activityUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}
	if kafkaController != nil {
		err = kafkaController.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
		}
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}

	if kafkaController != nil {
		kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.ActivityConsumer.ShutdownTimeout)
		defer kcShutdownCancel()
		err = kafkaController.Shutdown(kcShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
		}
	}
}
