package embedding_service

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

type OllamaEmbeddingService struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOllamaEmbeddingService(host, model string, timeout time.Duration, logger *slog.Logger) *OllamaEmbeddingService {
	return &OllamaEmbeddingService{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (s *OllamaEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	requestBody, err := json.Marshal(embeddingRequest{Model: s.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("error marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.host+"/api/embeddings", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling embedding service at %s: %w", s.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(body))
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("error decoding embedding response: %w", err)
	}

	if len(embeddingResp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned empty embedding")
	}

	vector := make([]float32, len(embeddingResp.Embedding))
	for i, v := range embeddingResp.Embedding {
		vector[i] = float32(v)
	}

	s.logger.Debug("Embedding generated",
		slog.Int("text_length", len(text)),
		slog.Int("dimension", len(vector)))

	return vector, nil
}

// Ping verifies that the embedding service is reachable and that the
// configured model is installed.
func (s *OllamaEmbeddingService) Ping(ctx context.Context) error {
	return verifyOllamaModel(ctx, s.httpClient, s.host, s.model)
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func verifyOllamaModel(ctx context.Context, client *http.Client, host, model string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Ollama at %s: %w", host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("error decoding model list: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on Ollama at %s, install it with: ollama pull %s", model, host, model)
}
