package vector_store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// QdrantStore talks to Qdrant over its REST API. Collections use cosine
// distance, so scores come back already normalized to [0,1].
type QdrantStore struct {
	host       string
	apiKey     string
	collection string
	vectorSize int
	httpClient *http.Client
	logger     *slog.Logger
}

func NewQdrantStore(host, apiKey, collection string, vectorSize int, logger *slog.Logger) *QdrantStore {
	return &QdrantStore{
		host:       strings.TrimRight(host, "/"),
		apiKey:     apiKey,
		collection: collection,
		vectorSize: vectorSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (s *QdrantStore) EnsureReady(ctx context.Context) error {
	status, _, err := s.do(ctx, "GET", fmt.Sprintf("/collections/%s", s.collection), nil)
	if err != nil {
		return fmt.Errorf("failed to reach Qdrant at %s: %w", s.host, err)
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("unexpected status %d checking collection %q", status, s.collection)
	}

	s.logger.Info("Creating Qdrant collection",
		slog.String("collection", s.collection),
		slog.Int("vector_size", s.vectorSize))

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.vectorSize,
			"distance": "Cosine",
		},
	}
	status, raw, err := s.do(ctx, "PUT", fmt.Sprintf("/collections/%s", s.collection), body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("failed to create collection %q: status %d: %s", s.collection, status, raw)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	payload := make([]map[string]any, len(points))
	for i, p := range points {
		payload[i] = map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"document_id":  p.Chunk.DocumentID,
				"source":       p.Chunk.Source,
				"chunk_index":  p.Chunk.ChunkIndex,
				"total_chunks": p.Chunk.TotalChunks,
				"text":         p.Chunk.Text,
			},
		}
	}

	status, raw, err := s.do(ctx, "PUT",
		fmt.Sprintf("/collections/%s/points?wait=true", s.collection),
		map[string]any{"points": payload})
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("failed to upsert %d points: status %d: %s", len(points), status, raw)
	}

	s.logger.Debug("Upserted points",
		slog.String("collection", s.collection),
		slog.Int("count", len(points)))
	return nil
}

func (s *QdrantStore) DeleteDocument(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	status, raw, err := s.do(ctx, "POST",
		fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection), body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("failed to delete points for document %q: status %d: %s", documentID, status, raw)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	status, raw, err := s.do(ctx, "POST",
		fmt.Sprintf("/collections/%s/points/search", s.collection), body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("search failed: status %d: %s", status, raw)
	}

	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload Chunk   `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, SearchHit{Chunk: r.Payload, Score: r.Score})
	}
	return hits, nil
}

func (s *QdrantStore) Ping(ctx context.Context) error {
	status, _, err := s.do(ctx, "GET", "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to reach Qdrant at %s: %w", s.host, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("Qdrant health check returned status %d", status)
	}
	return nil
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.host+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, raw, nil
}
