package embedding_service

import (
	"context"
	"encoding/json"
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

func TestEmbedReturnsVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "embeddinggemma:latest" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.Prompt != "The cat sat." {
			t.Errorf("unexpected prompt %q", req.Prompt)
		}

		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float64{0.25, -0.5, 1.0}})
	}))
	defer server.Close()

	svc := NewOllamaEmbeddingService(server.URL, "embeddinggemma:latest", 5*time.Second, discardLogger())
	vector, err := svc.Embed(context.Background(), "The cat sat.")
	if err != nil {
		t.Fatal(err)
	}

	want := []float32{0.25, -0.5, 1.0}
	if len(vector) != len(want) {
		t.Fatalf("expected %d dimensions, got %d", len(want), len(vector))
	}
	for i := range want {
		if vector[i] != want[i] {
			t.Errorf("dimension %d: got %v, want %v", i, vector[i], want[i])
		}
	}
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	svc := NewOllamaEmbeddingService(server.URL, "embeddinggemma:latest", 5*time.Second, discardLogger())
	if _, err := svc.Embed(context.Background(), "   "); err == nil {
		t.Error("expected error for empty text")
	}
	if called {
		t.Error("empty text must not reach the embedding service")
	}
}

func TestEmbedEmptyEmbeddingIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float64{}})
	}))
	defer server.Close()

	svc := NewOllamaEmbeddingService(server.URL, "embeddinggemma:latest", 5*time.Second, discardLogger())
	if _, err := svc.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestEmbedNon200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not loaded"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewOllamaEmbeddingService(server.URL, "embeddinggemma:latest", 5*time.Second, discardLogger())
	_, err := svc.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestPingVerifiesModelInstalled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "embeddinggemma:latest"},
				{"name": "granite3.1-moe:1b"},
			},
		})
	}))
	defer server.Close()

	svc := NewOllamaEmbeddingService(server.URL, "embeddinggemma:latest", 5*time.Second, discardLogger())
	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}

	missing := NewOllamaEmbeddingService(server.URL, "nonexistent:latest", 5*time.Second, discardLogger())
	err := missing.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error for missing model")
	}
	if !strings.Contains(err.Error(), "ollama pull") {
		t.Errorf("error should suggest installing the model: %v", err)
	}
}
