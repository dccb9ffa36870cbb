package llm_service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateReturnsTrimmedAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "granite3.1-moe:1b" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}

		json.NewEncoder(w).Encode(generateResponse{Response: "  The answer.  \n"})
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "granite3.1-moe:1b", 5*time.Second, discardLogger())
	answer, err := svc.Generate(context.Background(), "Question: anything\n\nAnswer:")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "The answer." {
		t.Errorf("expected trimmed answer, got %q", answer)
	}
}

func TestGenerateNon200ReturnsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(OllamaError{Error: "model 'granite3.1-moe:1b' not found"})
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "granite3.1-moe:1b", 5*time.Second, discardLogger())
	_, err := svc.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}

	var httpErr *OllamaHTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *OllamaHTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", httpErr.StatusCode)
	}
	if !strings.Contains(httpErr.Message, "not found") {
		t.Errorf("expected Ollama error message, got %q", httpErr.Message)
	}
}

func TestGenerateEmptyResponseIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   "})
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "granite3.1-moe:1b", 5*time.Second, discardLogger())
	if _, err := svc.Generate(context.Background(), "prompt"); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	svc := NewOllamaService("http://localhost:11434", "granite3.1-moe:1b", 5*time.Second, discardLogger())
	if _, err := svc.Generate(context.Background(), "  "); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestPingChecksInstalledModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "granite3.1-moe:1b"}},
		})
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "granite3.1-moe:1b", 5*time.Second, discardLogger())
	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}

	missing := NewOllamaService(server.URL, "other:7b", 5*time.Second, discardLogger())
	if err := missing.Ping(context.Background()); err == nil {
		t.Error("expected error for missing model")
	}
}
