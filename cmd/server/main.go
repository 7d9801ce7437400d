// Package main runs the club portal HTTP server with graceful shutdown.
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

	"github.com/hockey-club/backend/config"
	"github.com/hockey-club/backend/internal/auth"
	"github.com/hockey-club/backend/internal/events"
	"github.com/hockey-club/backend/internal/maintenance"
	"github.com/hockey-club/backend/internal/middleware"
	"github.com/hockey-club/backend/internal/resources"
	"github.com/hockey-club/backend/internal/topics"
	"github.com/hockey-club/backend/pkg/database"
	"github.com/hockey-club/backend/pkg/redis"
	"github.com/hockey-club/backend/pkg/response"
	"github.com/hockey-club/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	clubTZ, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		logger.Fatal("load club timezone", zap.String("timezone", cfg.Calendar.Timezone), zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, feed caching disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			DocumentsBucket:      cfg.AWS.DocumentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Calendar
	eventRepo := events.NewRepository(pool)
	feedCacheTTL := time.Duration(cfg.Calendar.FeedCacheTTLSeconds) * time.Second
	eventHandler := events.NewHandler(eventRepo, authRepo, rdb, logger, clubTZ, feedCacheTTL)

	// Topics
	topicRepo := topics.NewRepository(pool)
	topicHandler := topics.NewHandler(topicRepo, logger)

	// Resources (S3-backed club documents)
	var resourceHandler *resources.Handler
	if s3Client != nil {
		resourceRepo := resources.NewRepository(pool)
		resourceHandler = resources.NewHandler(resourceRepo, s3Client, logger)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (staff; for group and roster assignment screens)
		api.GET("/users", middleware.RequireRole("admin", "staff"), authHandler.List)

		// Calendar feed and event management
		api.GET("/events", eventHandler.Feed)
		api.GET("/events/export.ics", eventHandler.ExportICS)
		api.POST("/events", middleware.RequireRole("admin", "staff"), eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", middleware.RequireRole("admin", "staff"), eventHandler.Update)
		api.DELETE("/events/:id", middleware.RequireRole("admin", "staff"), eventHandler.Delete)
		api.POST("/events/:id/cancel-occurrence", middleware.RequireRole("admin", "staff"), eventHandler.CancelOccurrence)
		api.PUT("/events/:id/occurrence", middleware.RequireRole("admin", "staff"), eventHandler.EditOccurrence)

		// Topics
		api.GET("/topics", topicHandler.List)
		api.POST("/topics", middleware.RequireRole("admin", "staff"), topicHandler.Create)
		api.PUT("/topics/:id", middleware.RequireRole("admin", "staff"), topicHandler.Update)
		api.DELETE("/topics/:id", middleware.RequireRole("admin"), topicHandler.Delete)

		// Resources (only when S3 is configured)
		if resourceHandler != nil {
			api.GET("/resources", resourceHandler.List)
			api.POST("/resources/upload-url", middleware.RequireRole("admin", "staff"), resourceHandler.RequestUpload)
			api.GET("/resources/:id/download-url", resourceHandler.Download)
			api.DELETE("/resources/:id", middleware.RequireRole("admin", "staff"), resourceHandler.Delete)
		}
	}

	// Nightly purge of aged cancellation and override rows
	cleaner := maintenance.NewCleaner(eventRepo, logger, cfg.Calendar.RetentionDays)
	if err := cleaner.Start(); err != nil {
		logger.Fatal("retention scheduler", zap.Error(err))
	}
	defer cleaner.Stop()

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

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
