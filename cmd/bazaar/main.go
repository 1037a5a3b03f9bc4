package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kazdex/bazaar/internal/config"
	dbRedis "github.com/kazdex/bazaar/internal/db/redis"
	"github.com/kazdex/bazaar/internal/domain"
	logpkg "github.com/kazdex/bazaar/internal/logger"
	"github.com/kazdex/bazaar/internal/metrics"
	"github.com/kazdex/bazaar/internal/repository/embcache"
	listingrepo "github.com/kazdex/bazaar/internal/repository/listing"
	searchrepo "github.com/kazdex/bazaar/internal/repository/search"
	chiTransport "github.com/kazdex/bazaar/internal/transport/chi"
	openaiEmb "github.com/kazdex/bazaar/internal/transport/openai"
	embeddinguc "github.com/kazdex/bazaar/internal/usecase/embedding"
	healthuc "github.com/kazdex/bazaar/internal/usecase/health"
	listinguc "github.com/kazdex/bazaar/internal/usecase/listing"
	searchuc "github.com/kazdex/bazaar/internal/usecase/search"
	"github.com/kazdex/bazaar/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bazaar API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("semantic_enabled", cfg.Embedding.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Create repositories
	listingRepo := listingrepo.New(store, cfg.Storage.KeyPrefix)
	if err := listingRepo.EnsureIndex(ctx, cfg.Storage.KeyPrefix); err != nil {
		logger.Fatal("Failed to create listings index", zap.Error(err))
	}
	searchRepo := searchrepo.New(store, cfg.Storage.KeyPrefix)

	// Semantic subsystem. With embedding disabled the service still serves
	// lexical and geo search.
	var (
		embedder     domain.Embedder
		healthEmb    healthuc.EmbeddingChecker
		refresher    listinguc.Refresher = noopRefresher{}
		embRefresher *embeddinguc.Refresher
		backfillCron *cron.Cron
	)
	if cfg.Embedding.Enabled {
		embedder, healthEmb = buildEmbedder(cfg, store, logger)
		logger.Info("Embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
			zap.Bool("cache", cfg.Embedding.Cache),
		)

		embRefresher = embeddinguc.NewRefresher(
			listingRepo, embedder, cfg.Refresh.QueueSize, cfg.Refresh.Workers, logger,
		)
		embRefresher.Start(ctx)
		refresher = embRefresher

		if cfg.Refresh.BackfillCron != "" {
			backfiller := embeddinguc.NewBackfiller(listingRepo, embedder, logger)
			backfillCron = cron.New()
			_, err := backfillCron.AddFunc(cfg.Refresh.BackfillCron, func() {
				if _, err := backfiller.Run(context.Background()); err != nil {
					logger.Error("Backfill sweep failed", zap.Error(err))
				}
			})
			if err != nil {
				logger.Fatal("Invalid backfill cron expression",
					zap.String("cron", cfg.Refresh.BackfillCron), zap.Error(err))
			}
			backfillCron.Start()
			logger.Info("Backfill scheduled", zap.String("cron", cfg.Refresh.BackfillCron))
		}
	}

	// Create use case services
	listingSvc := listinguc.New(listingRepo, refresher)
	searchSvc := searchuc.New(searchRepo, embedder, cfg.Embedding.Enabled)
	healthSvc := healthuc.New(store, healthEmb)

	server := chiTransport.NewServer(listingSvc, searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	if backfillCron != nil {
		<-backfillCron.Stop().Done()
	}
	if embRefresher != nil {
		embRefresher.Stop()
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI (lazy) -> Cached -> Instrumented.
// The lazy base defers client construction to first use, so the server boots
// even when the provider key arrives late; the inner lazy handle doubles as
// the health probe because decorators do not forward HealthCheck.
func buildEmbedder(
	cfg config.Config,
	store *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker) {
	lazy := openaiEmb.NewLazyEmbedder(func() (domain.Embedder, error) {
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("embedding.api_key is not set")
		}
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		}), nil
	})

	var embedder domain.Embedder = lazy
	if cfg.Embedding.Cache {
		embedder = embcache.New(embedder, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Model, logger), lazy
}

// noopRefresher is wired when the semantic subsystem is disabled: writes
// succeed, nothing gets vectorized.
type noopRefresher struct{}

func (noopRefresher) Schedule(string) bool { return true }

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
