// Package main runs the webinar service HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/webinar-service/config"
	"github.com/aura-webinar/webinar-service/internal/auth"
	"github.com/aura-webinar/webinar-service/internal/clients/course"
	"github.com/aura-webinar/webinar-service/internal/clients/userdir"
	"github.com/aura-webinar/webinar-service/internal/middleware"
	"github.com/aura-webinar/webinar-service/internal/participants"
	"github.com/aura-webinar/webinar-service/internal/webinars"
	"github.com/aura-webinar/webinar-service/pkg/database"
	"github.com/aura-webinar/webinar-service/pkg/queue"
	"github.com/aura-webinar/webinar-service/pkg/redis"
	"github.com/aura-webinar/webinar-service/pkg/response"
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

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	db := database.NewDB(pool)

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

	// Upstream services
	users := userdir.NewCachedClient(
		userdir.NewClient(cfg.Services.UserServiceURL, cfg.Services.Timeout, logger),
		rdb.Client, cfg.Services.ShortInfoCacheTTL, logger,
	)
	courses := course.NewClient(cfg.Services.CourseServiceURL, cfg.Services.Timeout, logger)

	// Webinars
	resolver := participants.NewResolver(users, participants.NewRepository(db), logger)
	svc := webinars.NewService(webinars.Deps{
		Tx:           db,
		Store:        webinars.NewRepository(db),
		Participants: resolver,
		Courses:      courses,
		Presenters:   users,
		Previews:     previews,
		Cleanup:      queue.NewQueue(rdb.Client, logger),
	}, cfg.Preview.MaxBytes, logger)
	webinarHandler := webinars.NewHandler(svc)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.MaxMultipartMemory = cfg.Preview.MaxBytes + 1<<20

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	if !cfg.AWS.UseS3() {
		router.Static("/"+storage.FolderPreviews, cfg.Preview.LocalDir+"/"+storage.FolderPreviews)
	}

	// Protected API (JWT required)
	webinarHandler.RegisterRoutes(router.Group("/api/v1"), middleware.JWT(jwtService))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
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
