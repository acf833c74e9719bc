package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/db"
	"github.com/fhuszti/media-pipeline/internal/handler/api"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/metrics"
	cMiddleware "github.com/fhuszti/media-pipeline/internal/middleware"
	"github.com/fhuszti/media-pipeline/internal/notifier"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/renderer"
	"github.com/fhuszti/media-pipeline/internal/repository/mariadb"
	"github.com/fhuszti/media-pipeline/internal/storage"
	"github.com/fhuszti/media-pipeline/internal/task"
	mediaSvc "github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/fhuszti/media-pipeline/internal/uuid"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	database := initDb(ctx, cfg)

	strg := initStorage(ctx, cfg)

	m := metrics.MustNew(prometheus.DefaultRegisterer)
	mediaRepo := mariadb.NewMediaRepository(database.DB)

	var (
		redisClient *redis.Client
		ca          port.Cache
		dispatcher  port.TaskDispatcher
	)
	if cfg.RedisAddr != "" {
		redisClient = cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		ca = cache.NewCache(redisClient)
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = asynqClient.Close() }()
		dispatcher = task.NewDispatcher(asynqClient)
		logger.Info(ctx, "✅  Redis cache and job queue enabled")
	} else {
		ca = initLocalCache(ctx, cfg.LocalCacheSize)
		dispatcher = task.NewNoopDispatcher()
		logger.Warn(ctx, "⚠️  Redis not configured, using an in-process cache and transcoding is disabled")
	}

	notif, closeNotif := notifier.FromBackend(ctx, cfg.NotifierBackend, redisClient, cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() { _ = closeNotif() }()

	r := initRouter(ctx)

	r.Get("/buckets", api.GetBucketsHandler(cfg.Buckets))
	r.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	mountHub(ctx, r, cfg.NotifierBackend, redisClient)

	r.Route("/medias", func(r chi.Router) {
		r.Use(cMiddleware.WithDSTAuth(cMiddleware.AuthConfig{
			PublicKeyPEM: cfg.JWTPublicKey,
			Issuer:       cfg.JWTIssuer,
			Audience:     cfg.JWTAudience,
		}))

		uploadLinkSvc := mediaSvc.NewUploadLinkIssuer(mediaRepo, strg, cfg.Buckets, uuid.NewUUID, m)
		r.Post("/upload_link", api.IssueUploadLinkHandler(uploadLinkSvc))

		publicURLSvc := mediaSvc.NewPublicURLResolver(mediaRepo, strg, ca, cfg.RenditionsBucket)
		r.Post("/public_urls", api.ResolvePublicURLsHandler(publicURLSvc))

		r.Route("/{id}", func(r chi.Router) {
			r.Use(cMiddleware.WithMediaID())

			getMediaSvc := mediaSvc.NewMediaGetter(mediaRepo, strg, cfg.RenditionsBucket)
			r.Get("/", api.GetMediaHandler(renderer.NewMediaRenderer(ca, getMediaSvc)))

			deleteMediaSvc := mediaSvc.NewMediaDeleter(mediaRepo, ca, strg, cfg.RenditionsBucket)
			r.With(cMiddleware.RequireRole("admin")).Delete("/", api.DeleteMediaHandler(deleteMediaSvc))

			variantLinkSvc := mediaSvc.NewVariantLinkIssuer(mediaRepo, strg, cfg.RenditionsBucket)
			r.Post("/variant_link", api.IssueVariantLinkHandler(variantLinkSvc))

			uploadMarkerSvc := mediaSvc.NewUploadMarker(mediaRepo, mediaRepo, ca, notif)
			r.Post("/uploaded", api.MarkUploadedHandler(uploadMarkerSvc))

			enqueueSvc := mediaSvc.NewTranscodeEnqueuer(mediaRepo, dispatcher)
			r.Post("/transcode", api.EnqueueTranscodeHandler(enqueueSvc))
		})
	})

	listenRouter(ctx, r, cfg, database)
}

// mountHub serves /ws only when media events go through Redis pub/sub, the
// one channel the hub can follow.
func mountHub(ctx context.Context, r chi.Router, backend string, redisClient *redis.Client) bool {
	if backend != config.NotifierBackendRedis || redisClient == nil {
		logger.Warnf(ctx, "⚠️  WebSocket fan-out disabled, notifier backend is %q", backend)
		return false
	}

	hub := notifier.NewHub()
	go func() {
		if err := hub.Run(ctx, redisClient); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf(ctx, "❌  WebSocket hub stopped: %v", err)
		}
	}()
	r.Handle("/ws", hub)
	logger.Info(ctx, "✅  WebSocket fan-out enabled on /ws")
	return true
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

func initRouter(ctx context.Context) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
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

func initLocalCache(ctx context.Context, size int) port.Cache {
	lc, err := cache.NewLocal(size)
	if err != nil {
		logger.Warnf(ctx, "⚠️  In-process cache unavailable, caching is disabled: %v", err)
		return cache.NewNoop()
	}
	return lc
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, database *db.Database) {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	<-ctx.Done()
	logger.Info(context.Background(), "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(shutdownCtx, "✅  Server gracefully stopped")

	if err := database.Close(); err != nil {
		logger.Errorf(shutdownCtx, "DB close error: %v", err)
		os.Exit(1)
	}
}
