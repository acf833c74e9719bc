package main

import (
	"context"
	"os"

	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/db"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/repository/mariadb"
	"github.com/fhuszti/media-pipeline/internal/task"
	mediaSvc "github.com/fhuszti/media-pipeline/internal/usecase/media"
	"github.com/hibiken/asynq"
)

// transcode-backlog re-enqueues videos that stayed uploaded without any
// rendition for longer than mediaSvc.BacklogAge.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "❌  Redis not configured: this command requires a running Redis instance")
		os.Exit(1)
	}

	logger.Init()

	database, err := db.New(ctx, cfg.MariaDB())
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() { _ = client.Close() }()

	repo := mariadb.NewMediaRepository(database.DB)
	svc := mediaSvc.NewBacklogTranscoder(repo, task.NewDispatcher(client))
	if err := svc.TranscodeBacklog(ctx); err != nil {
		logger.Errorf(ctx, "❌  Backlog transcoding failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Backlog transcoding completed")
}
