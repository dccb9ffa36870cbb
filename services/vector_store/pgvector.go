package vector_store

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorStore keeps chunk embeddings in a Postgres table with a pgvector
// column and answers similarity queries with the cosine operator.
type PgvectorStore struct {
	db         *pgxpool.Pool
	vectorSize int
	logger     *slog.Logger
}

func NewPgvectorStore(db *pgxpool.Pool, vectorSize int, logger *slog.Logger) *PgvectorStore {
	return &PgvectorStore{
		db:         db,
		vectorSize: vectorSize,
		logger:     logger,
	}
}

func (s *PgvectorStore) EnsureReady(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("unable to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS chunks (
            id uuid PRIMARY KEY,
            document_id text NOT NULL,
            source text NOT NULL,
            chunk_index int NOT NULL,
            total_chunks int NOT NULL,
            content text NOT NULL,
            embedding vector(%d) NOT NULL
        )
    `, s.vectorSize)
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}

	return s.createOrUpdateIndex(ctx)
}

func (s *PgvectorStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO chunks (id, document_id, source, chunk_index, total_chunks, content, embedding)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, p := range points {
		batch.Queue(query,
			p.ID, p.Chunk.DocumentID, p.Chunk.Source,
			p.Chunk.ChunkIndex, p.Chunk.TotalChunks, p.Chunk.Text,
			pgvector.NewVector(p.Vector))
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()
	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to flush chunk batch: %w", err)
	}

	return s.reindexIfNeeded(ctx)
}

func (s *PgvectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM chunks WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for document %q: %w", documentID, err)
	}
	if tag.RowsAffected() > 0 {
		s.logger.Info("Replaced previously ingested chunks",
			slog.String("document_id", documentID),
			slog.Int64("removed", tag.RowsAffected()))
	}
	return nil
}

func (s *PgvectorStore) Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error) {
	query := `
        WITH scored_chunks AS (
            SELECT
                document_id, source, chunk_index, total_chunks, content,
                1 - (embedding <=> $1) AS similarity_score
            FROM chunks
        )
        SELECT document_id, source, chunk_index, total_chunks, content, similarity_score
        FROM scored_chunks
        ORDER BY similarity_score DESC
        LIMIT $2
    `
	rows, err := s.db.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	defer rows.Close()

	hits := make([]SearchHit, 0, topK)
	for rows.Next() {
		var hit SearchHit
		err := rows.Scan(
			&hit.Chunk.DocumentID,
			&hit.Chunk.Source,
			&hit.Chunk.ChunkIndex,
			&hit.Chunk.TotalChunks,
			&hit.Chunk.Text,
			&hit.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *PgvectorStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// createOrUpdateIndex rebuilds the ivfflat index with a list count derived
// from the current table size (sqrt of the row count, minimum 100).
func (s *PgvectorStore) createOrUpdateIndex(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	lists := optimalLists(count)

	if _, err := s.db.Exec(ctx, "DROP INDEX IF EXISTS idx_chunks_embedding"); err != nil {
		return fmt.Errorf("failed to drop existing index: %w", err)
	}

	createIndexSQL := fmt.Sprintf(`
        CREATE INDEX idx_chunks_embedding
        ON chunks
        USING ivfflat (embedding vector_cosine_ops)
        WITH (lists = %d)
    `, lists)
	if _, err := s.db.Exec(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	s.logger.Info("Vector index created/updated",
		slog.Int("chunk_count", count),
		slog.Int("list_count", lists))
	return nil
}

// reindexIfNeeded rebuilds the index when the table has grown or shrunk far
// enough that the current list count is more than 50% off the optimum.
func (s *PgvectorStore) reindexIfNeeded(ctx context.Context) error {
	var currentLists int
	err := s.db.QueryRow(ctx, `
        SELECT reloptions[1]::text::int
        FROM pg_class c
        LEFT JOIN pg_index i ON c.oid = i.indexrelid
        WHERE c.relname = 'idx_chunks_embedding'
        AND reloptions IS NOT NULL
    `).Scan(&currentLists)
	if err != nil {
		// Index is missing, rebuild from scratch.
		return s.createOrUpdateIndex(ctx)
	}

	var count int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	optimal := optimalLists(count)
	if math.Abs(float64(currentLists-optimal)) > float64(optimal)*0.5 {
		s.logger.Info("Rebuilding vector index due to significant size change",
			slog.Int("current_lists", currentLists),
			slog.Int("optimal_lists", optimal))
		return s.createOrUpdateIndex(ctx)
	}
	return nil
}

func optimalLists(count int) int {
	lists := int(math.Sqrt(float64(count)))
	if lists < 100 {
		lists = 100
	}
	return lists
}
