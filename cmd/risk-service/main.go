// Package main is the entry point for the BantAI risk service.
// The risk service scores login attempts, persists verdict records, and
// serves the admin review and metrics API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/common/config"
	"github.com/bantai/bantai/internal/common/database"
	"github.com/bantai/bantai/internal/common/logger"
	"github.com/bantai/bantai/internal/common/tracing"
	"github.com/bantai/bantai/internal/health"
	"github.com/bantai/bantai/internal/metrics"
	"github.com/bantai/bantai/internal/middleware"
	"github.com/bantai/bantai/internal/risk"
)

var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
)

func main() {
	log := logger.New()
	defer log.Sync()

	log.Info("Starting risk service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", CommitHash),
	)

	cfg, err := config.Load("risk-service")
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	shutdownTracing, err := tracing.Init(context.Background(),
		tracing.ConfigFromEnv(cfg.ServiceName, cfg.Environment), log)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	ctx := context.Background()

	store, err := risk.NewStore(ctx, db, redis, cfg.Engine.DefaultAccuracy,
		cfg.Engine.HighThreshold*100, log)
	if err != nil {
		log.Fatal("Failed to initialize verdict store", zap.Error(err))
	}

	if cfg.SeedSampleData {
		if err := store.SeedSampleUsers(ctx); err != nil {
			log.Warn("Failed to seed sample users", zap.Error(err))
		}
	}

	// No trained scorer artifact ships with the service; the engine runs
	// on the fallback path until one is wired in here.
	engine, err := risk.NewEngine(cfg.Engine, nil, log)
	if err != nil {
		log.Fatal("Failed to build risk engine", zap.Error(err))
	}

	var indexer *risk.Indexer
	var es *database.ElasticsearchClient
	if cfg.EnableIndexing && cfg.ElasticsearchURL != "" {
		es, err = database.NewElasticsearch(cfg.ElasticsearchURL)
		if err != nil {
			log.Warn("Elasticsearch unavailable, verdict indexing disabled", zap.Error(err))
		} else {
			indexer, err = risk.NewIndexer(es, log)
			if err != nil {
				log.Warn("Failed to initialize verdict indexer", zap.Error(err))
				indexer = nil
			}
		}
	}

	threats := risk.NewThreatList(redis, log)
	audit := logger.NewAuditLogger(log)
	service := risk.NewService(engine, store, threats, indexer, audit, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.GetCORSOrigins()))
	router.Use(logger.GinMiddleware(log))
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(metrics.PrometheusMetrics(cfg.ServiceName))
	if cfg.EnableRateLimit {
		router.Use(middleware.DistributedRateLimit(redis.Client, middleware.RateLimitConfig{
			Requests: cfg.RateLimitRequests,
			Window:   time.Duration(cfg.RateLimitWindow) * time.Second,
		}, log))
	}

	router.GET("/metrics", metrics.Handler())

	healthService := health.NewHealthService(log)
	healthService.SetVersion(Version)
	healthService.RegisterCheck(health.NewPostgresChecker(db))
	healthService.RegisterCheck(health.NewRedisCheckerOptional(redis))
	if es != nil {
		healthService.RegisterCheck(health.NewElasticsearchChecker(es))
	}
	router.GET("/health", healthService.Handler())
	router.GET("/ready", healthService.ReadyHandler())

	v1 := router.Group("/api/v1")
	risk.NewHandler(service, log).RegisterRoutes(v1)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}

	log.Info("Server exited")
}
