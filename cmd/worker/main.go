package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/docsage/docsage/internal/analysis"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/database"
	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/embedding"
	"github.com/docsage/docsage/internal/index"
	"github.com/docsage/docsage/internal/ingest"
	"github.com/docsage/docsage/internal/llm"
	"github.com/docsage/docsage/internal/metrics"
	"github.com/docsage/docsage/internal/queue"
	"github.com/docsage/docsage/internal/queue/workers"
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
	var classifier analysis.Classifier
	var embedder embedding.Embedder
	if gw.Configured() {
		classifier = analysis.NewLLMClassifier(gw, cfg.LLM.DefaultModel)
		embedder = embedding.NewService(gw, cfg.LLM.EmbeddingModel)
	} else {
		slog.Warn("no LLM provider configured, classification falls back to keywords")
	}

	m := metrics.New()
	docSvc := document.NewService(db)
	indexer := index.NewIndexer(chunker.New(chunker.Options{
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	}), embedder, chunkStore, m)

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	coordinator := ingest.NewCoordinator(docSvc, ingest.NewFileExtractor(), classifier, indexer, queueClient, m)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	documentWorker := workers.NewDocumentWorker(coordinator)
	registry.Register(queue.TypeDocumentProcess, asynq.HandlerFunc(documentWorker.ProcessTask))
	registry.Register(queue.TypeDocumentReindex, asynq.HandlerFunc(documentWorker.ReindexTask))

	if addr := os.Getenv("WORKER_METRICS_ADDR"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
