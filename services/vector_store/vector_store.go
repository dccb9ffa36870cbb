package vector_store

import (
	"context"
)

// Chunk is the payload persisted alongside each embedding. It is never
// mutated after creation.
type Chunk struct {
	DocumentID  string `json:"document_id"`
	Source      string `json:"source"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Text        string `json:"text"`
}

// Point couples a chunk with its embedding under a unique identifier.
type Point struct {
	ID     string
	Vector []float32
	Chunk  Chunk
}

// SearchHit is a chunk returned by nearest-neighbor search with its
// similarity score.
type SearchHit struct {
	Chunk Chunk
	Score float64
}

// Store persists (vector, chunk) points and answers nearest-neighbor
// queries. Implementations provide their own concurrency safety.
type Store interface {
	// EnsureReady creates the backing collection/schema when missing.
	EnsureReady(ctx context.Context) error
	Upsert(ctx context.Context, points []Point) error
	// DeleteDocument removes every point belonging to the given document,
	// making re-ingestion idempotent.
	DeleteDocument(ctx context.Context, documentID string) error
	// Search returns up to topK hits ordered by descending similarity.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error)
	Ping(ctx context.Context) error
}
