package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/screenquiz/screenquiz-analysis-service/internal/analysis"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/config"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/email"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/ffmpeg"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/idgen"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/metrics"
	miniostorage "github.com/screenquiz/screenquiz-analysis-service/internal/infra/minio"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/postgres"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/rabbitmq"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/tracing"
	"github.com/screenquiz/screenquiz-analysis-service/internal/usecase"
	"github.com/screenquiz/screenquiz-analysis-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting screenquiz-analysis-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     cfg.MinIOEndpoint,
		AccessKey:    cfg.MinIOAccessKey,
		SecretKey:    cfg.MinIOSecretKey,
		UseSSL:       cfg.MinIOUseSSL,
		UploadBucket: cfg.MinIOUploadBucket,
		FrameBucket:  cfg.MinIOFrameBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	verdictPub := rabbitmq.NewVerdictPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	uploads := postgres.NewUploadRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	attempts := postgres.NewAttemptRepository(pool)

	ffmpegTimeout := time.Duration(cfg.FFmpegTimeoutSec) * time.Second
	analyzer := ffmpeg.NewAnalyzer(ffmpeg.AnalyzerConfig{
		NoiseDB:        cfg.SilenceNoiseDB,
		MinSilence:     cfg.SilenceMinDuration,
		SceneThreshold: cfg.SceneProbeThreshold,
		CallTimeout:    ffmpegTimeout,
	}, log)
	extractor := ffmpeg.NewExtractor(ffmpegTimeout, log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)
	ids := idgen.UUIDAllocator{}

	// Core pipeline
	synthesizer := analysis.NewSynthesizer(analysis.NewCenterRightEstimator(cfg.EstimatorSeed), log)
	sampler := analysis.NewSampler(extractor, analysis.GridWalkEstimator{}, log)

	// Use cases
	analyzeUC := usecase.NewAnalyzeVideoUseCase(
		uploads, sessions, storage,
		analyzer, synthesizer, sampler, ids,
		statusPub, dlqPub, notifier,
		log,
		usecase.AnalyzeVideoConfig{
			TempDir:    cfg.TempDir,
			MaxRetries: cfg.MaxRetries,
		},
	)
	attemptUC := usecase.NewRecordAttemptUseCase(
		sessions, attempts, ids,
		verdictPub, dlqPub,
		log, cfg.ScoreTolerance,
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumers (worker pools)
	analysisConsumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:      cfg.RabbitMQURL,
		Exchange: cfg.RabbitMQExchange,
		Consume:  rabbitmq.QueueBinding{Queue: cfg.RabbitMQAnalysisQueue, RoutingKey: "quiz.analysis"},
		Declare: []rabbitmq.QueueBinding{
			{Queue: cfg.RabbitMQStatusQueue, RoutingKey: "quiz.status"},
		},
		DLQ:         cfg.RabbitMQDLQ,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.AnalysisWorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, analyzeUC.Execute, log)
	fatalOnErr(err, "create analysis consumer")

	attemptConsumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:      cfg.RabbitMQURL,
		Exchange: cfg.RabbitMQExchange,
		Consume:  rabbitmq.QueueBinding{Queue: cfg.RabbitMQAttemptQueue, RoutingKey: "quiz.attempts"},
		Declare: []rabbitmq.QueueBinding{
			{Queue: cfg.RabbitMQVerdictQueue, RoutingKey: "quiz.verdicts"},
		},
		DLQ:         cfg.RabbitMQDLQ,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.AttemptWorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, attemptUC.Execute, log)
	fatalOnErr(err, "create attempt consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("screenquiz-analysis-service started, consuming messages")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return analysisConsumer.Start(gctx) })
	g.Go(func() error { return attemptConsumer.Start(gctx) })
	if err := g.Wait(); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	analysisConsumer.Close()
	attemptConsumer.Close()
	log.Info("screenquiz-analysis-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
