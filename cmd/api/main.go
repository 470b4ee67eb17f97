package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/docsage/docsage/internal/api"
	"github.com/docsage/docsage/internal/cache"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/database"
	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/embedding"
	"github.com/docsage/docsage/internal/index"
	"github.com/docsage/docsage/internal/ingest"
	"github.com/docsage/docsage/internal/llm"
	"github.com/docsage/docsage/internal/metrics"
	"github.com/docsage/docsage/internal/queue"
	"github.com/docsage/docsage/internal/rag"
	"github.com/docsage/docsage/internal/storage"
	"github.com/docsage/docsage/pkg/chunker"
)

func main() {
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var answerCache *cache.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without answer cache", "error", err)
	} else {
		answerCache = cache.NewCache(rdb)
	}

	store, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		slog.Error("failed to init storage", "error", err)
		os.Exit(1)
	}

	var chunkStore index.Store
	if cfg.Index.Backend == "postgres" {
		chunkStore = index.NewPgStore(db)
	} else {
		chunkStore, err = index.NewFileStore(cfg.Index.DataDir)
		if err != nil {
			slog.Error("failed to init index store", "error", err)
			os.Exit(1)
		}
	}

	gw := llm.NewGateway(cfg.LLM)
	var embedder embedding.Embedder
	if gw.Configured() {
		embedder = embedding.NewService(gw, cfg.LLM.EmbeddingModel)
	} else {
		slog.Warn("no LLM provider configured, running in degraded mode")
	}

	m := metrics.New()
	docSvc := document.NewService(db)
	indexer := index.NewIndexer(chunker.New(chunker.Options{
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	}), embedder, chunkStore, m)
	retriever := index.NewRetriever(chunkStore, embedder)

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	coordinator := ingest.NewCoordinator(docSvc, ingest.NewFileExtractor(), nil, indexer, queueClient, m)

	answerer := rag.NewAnswerer(retriever, docSvc, gw, rag.Options{
		TopK:          cfg.Query.TopK,
		RawContextCap: cfg.Query.RawContextCap,
		Model:         cfg.LLM.DefaultModel,
	}, m)

	handler := api.NewRouter(api.Deps{
		Config:      cfg,
		DB:          db,
		Redis:       rdb,
		Documents:   docSvc,
		Storage:     store,
		Coordinator: coordinator,
		Answerer:    answerer,
		Cache:       answerCache,
		Metrics:     m,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
