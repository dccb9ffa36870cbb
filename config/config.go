package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	VectorStoreQdrant   = "qdrant"
	VectorStorePgvector = "pgvector"
)

type Config struct {
	Environment  string
	HTTPPort     string
	Domains      []string
	CertCacheDir string

	OllamaHost           string
	OllamaEmbeddingModel string
	OllamaLLMModel       string
	EmbeddingTimeout     time.Duration
	GenerationTimeout    time.Duration

	VectorStore      string
	QdrantHost       string
	QdrantAPIKey     string
	QdrantCollection string
	VectorSize       int
	DatabaseURL      string

	DocumentDir  string
	DocumentPath string

	SimilarityThreshold float64
	TopK                int
	ChunkSize           int
	ChunkOverlap        int
	FallbackMessage     string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		HTTPPort:     getEnv("HTTP_PORT", "8000"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "certs"),

		OllamaHost:           getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "embeddinggemma:latest"),
		OllamaLLMModel:       getEnv("OLLAMA_LLM_MODEL", "granite3.1-moe:1b"),
		EmbeddingTimeout:     time.Duration(getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 60)) * time.Second,
		GenerationTimeout:    time.Duration(getEnvAsInt("GENERATION_TIMEOUT_SECONDS", 120)) * time.Second,

		VectorStore:      getEnv("VECTOR_STORE", VectorStoreQdrant),
		QdrantHost:       getEnv("QDRANT_HOST", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),
		VectorSize:       getEnvAsInt("QDRANT_VECTOR_SIZE", 768),
		DatabaseURL:      getEnv("DATABASE_URL", ""),

		DocumentDir:  getEnv("DOCUMENT_DIR", "data"),
		DocumentPath: getEnv("DOCUMENT_PATH", "data/cv.pdf"),

		SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.3),
		TopK:                getEnvAsInt("TOP_K", 5),
		ChunkSize:           getEnvAsInt("CHUNK_SIZE", 700),
		ChunkOverlap:        getEnvAsInt("CHUNK_OVERLAP", 120),

		FallbackMessage: getEnv("RAG_FALLBACK_MESSAGE",
			"Sorry, I couldn't find enough relevant information in my knowledge base to answer that right now. "+
				"You can try asking the question in a different way or be a bit more specific about what you need."),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be between 0 and 1, got %v", c.SimilarityThreshold)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK < 1 {
		return fmt.Errorf("TOP_K must be at least 1, got %d", c.TopK)
	}
	if c.VectorSize < 1 {
		return fmt.Errorf("QDRANT_VECTOR_SIZE must be positive, got %d", c.VectorSize)
	}
	switch c.VectorStore {
	case VectorStoreQdrant:
		if c.QdrantHost == "" {
			return fmt.Errorf("QDRANT_HOST is required when VECTOR_STORE is %q", VectorStoreQdrant)
		}
	case VectorStorePgvector:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when VECTOR_STORE is %q", VectorStorePgvector)
		}
	default:
		return fmt.Errorf("VECTOR_STORE must be %q or %q, got %q", VectorStoreQdrant, VectorStorePgvector, c.VectorStore)
	}
	if c.OllamaHost == "" {
		return fmt.Errorf("OLLAMA_HOST is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
