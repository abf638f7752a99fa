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

	"github.com/profscope/profscope/internal/config"
	dbRedis "github.com/profscope/profscope/internal/db/redis"
	"github.com/profscope/profscope/internal/domain"
	logpkg "github.com/profscope/profscope/internal/logger"
	"github.com/profscope/profscope/internal/metrics"
	chunksrepo "github.com/profscope/profscope/internal/repository/chunks"
	"github.com/profscope/profscope/internal/repository/embcache"
	reviewsrepo "github.com/profscope/profscope/internal/repository/reviews"
	searchrepo "github.com/profscope/profscope/internal/repository/search"
	"github.com/profscope/profscope/internal/transport/browser"
	chiTransport "github.com/profscope/profscope/internal/transport/chi"
	openaiTransport "github.com/profscope/profscope/internal/transport/openai"
	answeruc "github.com/profscope/profscope/internal/usecase/answer"
	classifyuc "github.com/profscope/profscope/internal/usecase/classify"
	healthuc "github.com/profscope/profscope/internal/usecase/health"
	ingestuc "github.com/profscope/profscope/internal/usecase/ingest"
	retrieveuc "github.com/profscope/profscope/internal/usecase/retrieve"
	"github.com/profscope/profscope/internal/usecase/session"
	"github.com/profscope/profscope/internal/version"
)

func main() {
	// .env is optional; real deployments set env vars directly
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

	logger.Info("Starting profscope API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.RegisterLLMMetrics()
	metrics.RegisterIngestMetrics()

	// LLM transports
	llmTimeout := time.Duration(cfg.OpenAI.TimeoutSec) * time.Second
	embedderBase := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.Dimensions,
		Timeout:    llmTimeout,
		Logger:     logger,
	})
	var embedder domain.Embedder = embcache.New(
		embedderBase, store, cfg.Storage.KeyPrefix, cfg.OpenAI.EmbeddingModel, 0, logger,
	)
	chat := openaiTransport.NewChat(&openaiTransport.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.ChatModel,
		Timeout: llmTimeout,
		Logger:  logger,
	})
	logger.Info("LLM clients created",
		zap.String("chat_model", cfg.OpenAI.ChatModel),
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
		zap.Int("dimensions", cfg.OpenAI.Dimensions),
	)

	// Repositories
	chunkRepo := chunksrepo.New(store, cfg.Storage.KeyPrefix, cfg.OpenAI.Dimensions).
		WithHNSW(chunksrepo.HNSWConfig{
			M:           cfg.Storage.HNSWM,
			EFConstruct: cfg.Storage.HNSWEFConstruct,
		})
	reviewRepo := reviewsrepo.New(store, cfg.Storage.KeyPrefix)
	searchRepo := searchrepo.New(store, cfg.Storage.KeyPrefix)

	if err := chunkRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure chunk index", zap.Error(err))
	}

	// Page extractor
	extractor := browser.New(browser.Config{
		ExecPath:         cfg.Browser.ExecPath,
		PageTimeout:      time.Duration(cfg.Browser.PageTimeoutSec) * time.Second,
		EntitySelector:   cfg.Browser.EntitySelector,
		CommentsSelector: cfg.Browser.CommentsSelector,
		Logger:           logger,
	})

	// Usecase services
	classifier := classifyuc.New(
		chat,
		cfg.Ingest.ClassifyWorkers,
		time.Duration(cfg.Ingest.ClassifyTimeoutSec)*time.Second,
		logger,
	)
	ingester := ingestuc.New(extractor, classifier, embedder, chunkRepo, reviewRepo, cfg.Ingest.ChunkSize, logger)
	retriever := retrieveuc.New(embedder, chat, searchRepo, cfg.Retrieval.TopK, logger)
	answers := answeruc.New(session.NewStore(), retriever, chat, logger)
	health := healthuc.New(store, chat)

	server := chiTransport.NewServer(answers, ingester, reviewRepo, health, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
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

	logger.Info("Server stopped gracefully")
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
						"error": "internal error",
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
			r = r.WithContext(logpkg.ContextWithLogger(r.Context(), reqLogger))

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http_request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
