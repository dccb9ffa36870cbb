package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/codeware/ragserver/config"
	"github.com/codeware/ragserver/db"
	"github.com/codeware/ragserver/handlers"
	"github.com/codeware/ragserver/logging"
	"github.com/codeware/ragserver/server"
	"github.com/codeware/ragserver/services/classifier_service"
	"github.com/codeware/ragserver/services/embedding_service"
	"github.com/codeware/ragserver/services/llm_service"
	"github.com/codeware/ragserver/services/rag_service"
	"github.com/codeware/ragserver/services/vector_store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	embedder := embedding_service.NewOllamaEmbeddingService(
		cfg.OllamaHost, cfg.OllamaEmbeddingModel, cfg.EmbeddingTimeout, logger)
	llm := llm_service.NewOllamaService(
		cfg.OllamaHost, cfg.OllamaLLMModel, cfg.GenerationTimeout, logger)

	store, err := buildVectorStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize vector store: %v", err)
	}

	if err := verifyDependencies(cfg, embedder, llm, store, logger); err != nil {
		log.Fatalf("Startup verification failed: %v", err)
	}

	chunker, err := rag_service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Invalid chunker configuration: %v", err)
	}

	processor := rag_service.NewProcessor(store, embedder, chunker, cfg.VectorSize, logger)
	ragService := rag_service.NewService(embedder, store, llm,
		cfg.SimilarityThreshold, cfg.TopK, cfg.FallbackMessage, logger)
	classifier := classifier_service.NewQueryClassifierService(llm, logger)

	chatHandler := handlers.NewChatHandler(ragService, classifier, logger)
	ingestHandler := handlers.NewIngestHandler(processor, cfg.DocumentDir, logger)
	healthHandler := handlers.NewHealthHandler(embedder, llm, store, logger)

	r := server.SetupRoutes(chatHandler, ingestHandler, healthHandler)
	n := server.SetupNegroni(r)

	logger.Info("RAG Chatbot API is ready to accept requests",
		slog.String("environment", cfg.Environment),
		slog.String("embedding_model", cfg.OllamaEmbeddingModel),
		slog.String("llm_model", cfg.OllamaLLMModel),
		slog.String("vector_store", cfg.VectorStore))

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg.Domains, cfg.CertCacheDir)
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 3 * time.Minute, // generation calls can be slow
		}
		server.ServeDevelopment(srv)
	}
}

func buildVectorStore(cfg config.Config, logger *slog.Logger) (vector_store.Store, error) {
	switch cfg.VectorStore {
	case config.VectorStorePgvector:
		pool, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return vector_store.NewPgvectorStore(pool, cfg.VectorSize, logger), nil
	default:
		return vector_store.NewQdrantStore(
			cfg.QdrantHost, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.VectorSize, logger), nil
	}
}

// verifyDependencies runs the startup checks: both Ollama models installed,
// vector index reachable with its collection/schema in place, and the
// configured document path loadable. Any failure aborts startup.
func verifyDependencies(cfg config.Config, embedder *embedding_service.OllamaEmbeddingService,
	llm *llm_service.OllamaService, store vector_store.Store, logger *slog.Logger) error {

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := embedder.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service check failed: %w", err)
	}
	logger.Info("Embedding service is available", slog.String("model", cfg.OllamaEmbeddingModel))

	if err := llm.Ping(ctx); err != nil {
		return fmt.Errorf("generation service check failed: %w", err)
	}
	logger.Info("Generation service is available", slog.String("model", cfg.OllamaLLMModel))

	if err := store.EnsureReady(ctx); err != nil {
		return fmt.Errorf("vector index check failed: %w", err)
	}
	logger.Info("Vector index is available", slog.String("backend", cfg.VectorStore))

	if err := verifyDocumentPath(cfg.DocumentPath); err != nil {
		return fmt.Errorf("document check failed: %w", err)
	}
	logger.Info("Document path verified", slog.String("path", cfg.DocumentPath))

	return nil
}

func verifyDocumentPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("document path %q is a directory, not a file", path)
	}
	switch filepath.Ext(path) {
	case ".pdf", ".doc", ".docx", ".html", ".htm":
		return nil
	default:
		return fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
}

func initLogger() (*slog.Logger, error) {
	logDir := filepath.Join("logs", "ragserver")

	fileHandler, err := logging.NewDailyFileHandler(logDir, "ragserver", &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	return slog.New(fileHandler), nil
}
