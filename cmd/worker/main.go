// Package main runs the background job worker (schedule export to S3).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/media-rota/backend/config"
	"github.com/media-rota/backend/internal/assignments"
	"github.com/media-rota/backend/internal/availability"
	"github.com/media-rota/backend/internal/events"
	"github.com/media-rota/backend/internal/exports"
	"github.com/media-rota/backend/internal/schedules"
	"github.com/media-rota/backend/internal/userroles"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/queue"
	"github.com/media-rota/backend/pkg/redis"
	"github.com/media-rota/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if !cfg.AWS.ExportsEnabled() {
		logger.Fatal("AWS_REGION and AWS_S3_EXPORTS_BUCKET must be set for the export worker")
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), "rota-worker", logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ExportsBucket:        cfg.AWS.ExportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	// The worker always builds from the store; cached grids are for the API.
	assignmentLoader := assignments.NewLoader(assignments.NewRepository(pool), userroles.NewRepository(pool))
	eventLoader := events.NewLoader(events.NewRepository(pool), assignmentLoader)
	gridService := schedules.NewGridService(schedules.NewRepository(pool), eventLoader, availability.NewRepository(pool), nil)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := exports.NewProcessor(gridService, s3Client, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	logger.Info("worker started", zap.String("queue", queue.QueueExports))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
