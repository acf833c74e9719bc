package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/db"
	workerHandler "github.com/fhuszti/media-pipeline/internal/handler/worker"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/metrics"
	"github.com/fhuszti/media-pipeline/internal/notifier"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/repository/mariadb"
	"github.com/fhuszti/media-pipeline/internal/storage"
	"github.com/fhuszti/media-pipeline/internal/task"
	"github.com/fhuszti/media-pipeline/internal/transcoder"
	mediaSvc "github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}

	logger.Init()

	database := initDb(ctx, cfg)

	strg := initStorage(ctx, cfg)

	redisClient := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	defer func() { _ = redisClient.Close() }()

	notif, closeNotif := notifier.FromBackend(ctx, cfg.NotifierBackend, redisClient, cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() { _ = closeNotif() }()

	m := metrics.MustNew(prometheus.DefaultRegisterer)
	repo := mariadb.NewMediaRepository(database.DB)
	transcodeSvc := mediaSvc.NewMediaTranscoder(
		repo,
		repo,
		strg,
		transcoder.NewFFmpeg(cfg.FFmpegPath),
		cache.NewCache(redisClient),
		notif,
		&http.Client{},
		m,
		mediaSvc.TranscodeConfig{
			Bucket:      cfg.RenditionsBucket,
			Widths:      cfg.TranscodeWidths,
			FPS:         cfg.TranscodeFPS,
			PixelFormat: cfg.TranscodePixelFormat,
			Format:      cfg.TranscodeFormat,
			TmpDir:      cfg.TranscodeTmpDir,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeTranscodeMedia, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseTranscodeMediaPayload(t)
		if err != nil {
			logger.Errorf(ctx, "❌  Dropping undecodable %s task: %v", t.Type(), err)
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		if err := workerHandler.TranscodeMediaHandler(ctx, p, transcodeSvc); err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return nil
	})

	go serveMetrics(ctx, cfg.MetricsPort)

	runWorker(ctx, mux, cfg, database)
}

func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	logger.Info(ctx, "initialising database...")

	database, err := db.New(ctx, cfg.MariaDB())
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	return database
}

func initStorage(ctx context.Context, cfg *config.Settings) port.Storage {
	strg, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize %s storage: %v", cfg.StorageProvider, err)
		os.Exit(1)
	}
	if err := storage.InitBuckets(ctx, strg, cfg); err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize buckets: %v", err)
		os.Exit(1)
	}
	return strg
}

func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))
	srv := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger.Infof(ctx, "🚀 Worker metrics on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf(ctx, "❌  Metrics server failed: %v", err)
	}
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings, database *db.Database) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			task.QueueMedia: 6,
			"default":       1,
		},
	})

	if err := srv.Start(mux); err != nil {
		logger.Errorf(ctx, "❌  Worker failed: %v", err)
		os.Exit(1)
	}
	logger.Infof(ctx, "🚀 Worker started with %d slots", cfg.WorkerConcurrency)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// stop accepting new tasks and wait for in-flight ones
	srv.Shutdown()

	if err := database.Close(); err != nil {
		logger.Warnf(ctx, "DB close error: %v", err)
	}
	logger.Info(ctx, "✅  Worker gracefully stopped")
}
