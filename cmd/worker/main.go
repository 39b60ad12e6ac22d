// Package main runs the background job worker (orphaned preview cleanup).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/webinar-service/config"
	"github.com/aura-webinar/webinar-service/internal/webinars"
	"github.com/aura-webinar/webinar-service/internal/worker"
	"github.com/aura-webinar/webinar-service/pkg/database"
	"github.com/aura-webinar/webinar-service/pkg/queue"
	"github.com/aura-webinar/webinar-service/pkg/redis"
	"github.com/aura-webinar/webinar-service/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	previews, err := storage.Open(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		PreviewsBucket:  cfg.AWS.PreviewsBucket,
	}, cfg.Preview.LocalDir, cfg.Preview.BaseURL, logger)
	if err != nil {
		logger.Fatal("preview storage", zap.Error(err))
	}

	webinarRepo := webinars.NewRepository(database.NewDB(pool))
	jobQueue := queue.NewQueue(rdb.Client, logger)
	cleaner := worker.NewPreviewCleaner(previews, webinarRepo, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cleaner.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}
