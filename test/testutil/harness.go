package testutil

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/handler/api"
	cMiddleware "github.com/fhuszti/media-pipeline/internal/middleware"
	"github.com/fhuszti/media-pipeline/internal/notifier"
	"github.com/fhuszti/media-pipeline/internal/renderer"
	"github.com/fhuszti/media-pipeline/internal/repository/mariadb"
	"github.com/fhuszti/media-pipeline/internal/task"
	mediaSvc "github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// Harness is a running API wired to real MariaDB, MinIO and Redis.
type Harness struct {
	Server    *httptest.Server
	Repo      *mariadb.MediaRepository
	Minio     *MinIOContainerInfo
	Redis     *redis.Client
	Inspector *asynq.Inspector
}

// NewHarness builds the API router the way cmd/api does, with auth disabled.
// Everything it starts is released through t.Cleanup.
func NewHarness(t *testing.T, mi *MinIOContainerInfo, redisAddr string) *Harness {
	t.Helper()
	ctx := context.Background()

	testDB, err := SetupTestDB(ctx)
	if err != nil {
		t.Fatalf("setup DB: %v", err)
	}
	t.Cleanup(func() { _ = testDB.Cleanup() })

	emptyBuckets, err := SetupTestBuckets(ctx, mi)
	if err != nil {
		t.Fatalf("setup buckets: %v", err)
	}
	t.Cleanup(func() { _ = emptyBuckets() })

	redisClient := cache.NewRedisClient(redisAddr, "")
	if err := redisClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	t.Cleanup(func() { _ = asynqClient.Close() })
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	t.Cleanup(func() { _ = inspector.Close() })

	repo := mariadb.NewMediaRepository(testDB.DB)
	ca := cache.NewCache(redisClient)
	dispatcher := task.NewDispatcher(asynqClient)
	notif, closeNotif := notifier.FromBackend(ctx, config.NotifierBackendRedis, redisClient, nil, "")
	t.Cleanup(func() { _ = closeNotif() })

	r := chi.NewRouter()
	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())
	r.Get("/buckets", api.GetBucketsHandler(TestBucketPolicies()))
	r.Route("/medias", func(r chi.Router) {
		r.Use(cMiddleware.WithDSTAuth(cMiddleware.AuthConfig{}))

		r.Post("/upload_link", api.IssueUploadLinkHandler(
			mediaSvc.NewUploadLinkIssuer(repo, mi.Strg, TestBucketPolicies(), uuid.NewUUID, nil)))
		r.Post("/public_urls", api.ResolvePublicURLsHandler(
			mediaSvc.NewPublicURLResolver(repo, mi.Strg, ca, RenditionsBucket)))

		r.Route("/{id}", func(r chi.Router) {
			r.Use(cMiddleware.WithMediaID())
			r.Get("/", api.GetMediaHandler(renderer.NewMediaRenderer(ca,
				mediaSvc.NewMediaGetter(repo, mi.Strg, RenditionsBucket))))
			r.With(cMiddleware.RequireRole("admin")).Delete("/", api.DeleteMediaHandler(
				mediaSvc.NewMediaDeleter(repo, ca, mi.Strg, RenditionsBucket)))
			r.Post("/variant_link", api.IssueVariantLinkHandler(
				mediaSvc.NewVariantLinkIssuer(repo, mi.Strg, RenditionsBucket)))
			r.Post("/uploaded", api.MarkUploadedHandler(
				mediaSvc.NewUploadMarker(repo, repo, ca, notif)))
			r.Post("/transcode", api.EnqueueTranscodeHandler(
				mediaSvc.NewTranscodeEnqueuer(repo, dispatcher)))
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &Harness{
		Server:    srv,
		Repo:      repo,
		Minio:     mi,
		Redis:     redisClient,
		Inspector: inspector,
	}
}
