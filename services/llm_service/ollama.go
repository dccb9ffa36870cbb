package llm_service

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

type OllamaService struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOllamaService(host, model string, timeout time.Duration, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (s *OllamaService) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	requestBody, err := json.Marshal(generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.host+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling generation service at %s: %w", s.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := extractOllamaErrorDetails(resp)
		s.logger.Error("Ollama generation failed",
			slog.Int("status_code", httpErr.StatusCode),
			slog.String("error_message", httpErr.Message),
			slog.String("model", s.model))
		return "", httpErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	answer := strings.TrimSpace(result.Response)
	if answer == "" {
		return "", fmt.Errorf("generation service returned an empty response")
	}

	s.logger.Debug("Generation completed",
		slog.String("model", s.model),
		slog.Int("prompt_length", len(prompt)),
		slog.Int("answer_length", len(answer)),
		slog.Duration("elapsed", time.Since(start)))

	return answer, nil
}

// Ping verifies that the generation service is reachable and that the
// configured model is installed.
func (s *OllamaService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Ollama at %s: %w", s.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return extractOllamaErrorDetails(resp)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("error decoding model list: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == s.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on Ollama at %s, install it with: ollama pull %s", s.model, s.host, s.model)
}
