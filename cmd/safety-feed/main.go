package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-safety-feed/internal/api"
	"github.com/mr1hm/go-safety-feed/internal/auth"
	"github.com/mr1hm/go-safety-feed/internal/cache"
	"github.com/mr1hm/go-safety-feed/internal/config"
	"github.com/mr1hm/go-safety-feed/internal/feed"
	"github.com/mr1hm/go-safety-feed/internal/ingestion"
	"github.com/mr1hm/go-safety-feed/internal/logging"
	"github.com/mr1hm/go-safety-feed/internal/repository"
	"github.com/mr1hm/go-safety-feed/internal/storage"
	"github.com/mr1hm/go-safety-feed/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var kv cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "safety-feed:")
		if err != nil {
			slog.Warn("redis unavailable, using in-process cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rc.Close()
			kv = rc
		}
	}

	var uploads storage.Presigner
	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
			Expiry:          cfg.Storage.UploadExpiry,
		})
		if err != nil {
			logging.Fatalf("Failed to initialize object storage: %v", err)
		}
		uploads = s3
	} else {
		slog.Warn("S3_BUCKET not set, photo uploads disabled")
	}

	// Changed incidents fan out to SSE subscribers
	broadcaster := stream.NewBroadcaster()

	mgr := ingestion.NewManager(cfg, db, broadcaster)
	mgr.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(slog.Default()))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // session cookie
		MaxAge:           12 * time.Hour,
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	handler := api.NewHandler(api.Deps{
		Store:       db,
		Feed:        feed.NewService(db, cfg.Feed.AdStride),
		Broadcaster: broadcaster,
		Sessions: auth.NewSessions(auth.Options{
			Secret: cfg.Session.Secret,
			Secure: cfg.Session.Secure,
			MaxAge: cfg.Session.MaxAge,
		}, db),
		Cache:    kv,
		CacheTTL: cfg.Redis.TTL,
		Uploads:  uploads,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	broadcaster.Close() // ends open SSE streams

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
