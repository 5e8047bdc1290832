package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examenbot/internal/config"
	"examenbot/internal/http"
	"examenbot/internal/index"
	"examenbot/internal/ingest"
	"examenbot/internal/llm"
	"examenbot/internal/rag"
	"examenbot/internal/service"
	"examenbot/internal/session"
	"examenbot/internal/storage"
	"examenbot/internal/vectorstore"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	corpusRepo := storage.NewCorpusRepo(db)

	vectorStore, closeStore, err := openVectorStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open vector store: %v", err)
	}
	defer closeStore()
	slog.Info("Vector store ready", "backend", cfg.VectorBackend, "collection", cfg.VectorCollection)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.VectorSize, cfg.EmbeddingTimeout)
	idx := index.New(embedder, vectorStore, index.Options{
		Collection:    cfg.VectorCollection,
		VectorSize:    cfg.VectorSize,
		BatchSize:     cfg.EmbeddingBatchSize,
		RetryAttempts: cfg.EmbeddingRetries,
	})

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)
	generator := rag.NewGenerator(llmClient, cfg.LLMModelName, cfg.LLMTemperature, cfg.LLMTimeout)

	engine, err := rag.NewEngine(idx, generator,
		rag.Settings{K: cfg.TopK, Threshold: cfg.DistanceThreshold},
		rag.WithSourceAnnotations(cfg.AnnotateSources),
		rag.WithObserver(func(ctx context.Context, state rag.State) {
			slog.DebugContext(ctx, "pipeline state", "state", state.String())
		}),
	)
	if err != nil {
		log.Fatalf("Failed to create RAG engine: %v", err)
	}
	slog.Info("RAG engine initialized", "top_k", cfg.TopK, "threshold", cfg.DistanceThreshold)

	chatService := service.NewChatService(engine)
	adminService := service.NewAdminService(
		service.AdminConfig{
			Username:  cfg.AdminUsername,
			Password:  cfg.AdminPassword,
			UploadDir: cfg.UploadDir,
		},
		ingest.NewIngestor(0),
		idx,
		engine,
		documentRepo,
		corpusRepo,
	)

	// Re-attach or rebuild the index from the stored documents
	if err := adminService.Restore(ctx); err != nil {
		slog.Error("Failed to restore index, starting without documents", "error", err)
	}

	router := http.NewRouter(&http.Deps{
		ChatService:   chatService,
		AdminService:  adminService,
		VectorStore:   vectorStore,
		Index:         idx,
		Sessions:      session.NewStore(cfg.SessionTTL),
		MaxUploadSize: cfg.MaxUploadSize,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}

// openVectorStore opens the configured backend. The returned function releases it.
func openVectorStore(cfg *config.Config) (vectorstore.VectorStore, func(), error) {
	switch cfg.VectorBackend {
	case config.VectorBackendQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := vectorstore.NewChromemStore(cfg.ChromemPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
