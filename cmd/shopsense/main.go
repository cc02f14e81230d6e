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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shopsense/shopsense/internal/config"
	"github.com/shopsense/shopsense/internal/domain"
	"github.com/shopsense/shopsense/internal/index"
	"github.com/shopsense/shopsense/internal/index/linear"
	"github.com/shopsense/shopsense/internal/index/redisearch"
	logpkg "github.com/shopsense/shopsense/internal/logger"
	"github.com/shopsense/shopsense/internal/metrics"
	catalogrepo "github.com/shopsense/shopsense/internal/repository/catalog"
	"github.com/shopsense/shopsense/internal/repository/embcache"
	chiTransport "github.com/shopsense/shopsense/internal/transport/chi"
	openaiEmb "github.com/shopsense/shopsense/internal/transport/openai"
	cataloguc "github.com/shopsense/shopsense/internal/usecase/catalog"
	embeddinguc "github.com/shopsense/shopsense/internal/usecase/embedding"
	healthuc "github.com/shopsense/shopsense/internal/usecase/health"
	"github.com/shopsense/shopsense/internal/usecase/indexer"
	"github.com/shopsense/shopsense/internal/usecase/parser"
	searchuc "github.com/shopsense/shopsense/internal/usecase/search"
	"github.com/shopsense/shopsense/internal/version"
)

func main() {
	// Load .env if present, then configuration based on ENV
	_ = godotenv.Load()
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

	logger.Info("Starting shopsense API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_path", cfg.Catalog.Path),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("index_driver", cfg.Index.Driver),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	// Redis client is shared by the redisearch index driver and the
	// embedding cache. Only created when the driver needs it.
	var redisClient *redisearch.Client
	var builder index.Builder
	switch cfg.Index.Driver {
	case "linear":
		builder = linear.Builder{}
	case "redisearch":
		redisClient, err = redisearch.NewClient(redisearch.Config{
			Addrs:     cfg.Index.Redis.Addrs,
			Password:  cfg.Index.Redis.Password,
			KeyPrefix: cfg.Index.Redis.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()

		timeout := time.Duration(cfg.Index.Redis.ReadinessTimeout) * time.Second
		if err := redisClient.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Index.Redis.Addrs))
		builder = redisearch.NewBuilder(redisClient)
	default:
		logger.Fatal("Unknown index driver", zap.String("driver", cfg.Index.Driver))
	}

	factory, embChecker := buildEmbedderFactory(cfg, redisClient, logger)

	idx := indexer.NewService(
		indexer.NewFileSource(cfg.Catalog.Path),
		catalogrepo.NewLoader(logger),
		factory,
		builder,
		logger,
	)

	// Initial build. A failure here is not fatal: the server starts and
	// reports the index unavailable until a reload succeeds.
	if err := idx.Rebuild(ctx); err != nil {
		logger.Error("Initial catalog build failed, serving degraded until reload",
			zap.Error(err))
	}

	// Create use case services
	catalogSvc := cataloguc.NewService(idx).
		WithPagination(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)
	searchSvc := searchuc.NewService(idx, parser.NewService(logger), logger)

	var storePinger healthuc.StorePinger
	if redisClient != nil {
		storePinger = redisClient
	}
	healthSvc := healthuc.New(idx, storePinger, embChecker)

	// Create chi server
	server := chiTransport.NewServer(catalogSvc, searchSvc, healthSvc, idx, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedderFactory assembles the embedder for the configured provider.
// The tfidf provider fits a fresh model from the catalog corpus on every
// rebuild; the openai provider wraps a fixed remote model in the decorator
// chain OpenAI -> Cached -> Instrumented.
func buildEmbedderFactory(
	cfg config.Config,
	redisClient *redisearch.Client,
	logger *zap.Logger,
) (indexer.EmbedderFactory, healthuc.EmbeddingChecker) {
	if cfg.Embedding.Provider == "tfidf" {
		return indexer.NewTFIDFFactory(cfg.Embedding.Dimensions), nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.OpenAI.APIKey,
		BaseURL:    cfg.Embedding.OpenAI.BaseURL,
		Model:      cfg.Embedding.OpenAI.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if redisClient != nil {
		embedder = embcache.New(
			base, redisClient, cfg.Index.Redis.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.OpenAI.Model, logger)

	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.OpenAI.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	return indexer.NewStaticFactory(embedder, cfg.Embedding.Dimensions),
		newEmbeddingHealthChecker(embedder)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
