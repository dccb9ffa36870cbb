package rag_service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/codeware/ragserver/services/embedding_service"
	"github.com/codeware/ragserver/services/llm_service"
	"github.com/codeware/ragserver/services/vector_store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hit(text, source string, score float64) vector_store.SearchHit {
	return vector_store.SearchHit{
		Chunk: vector_store.Chunk{DocumentID: source, Source: source, Text: text},
		Score: score,
	}
}

func TestRetrieveFiltersBelowThreshold(t *testing.T) {
	store := &vector_store.MockStore{
		SearchFunc: func(ctx context.Context, vector []float32, topK int) ([]vector_store.SearchHit, error) {
			return []vector_store.SearchHit{
				hit("A", "s1", 0.9),
				hit("B", "s2", 0.2),
				hit("C", "s3", 0.5),
				hit("D", "s4", 0.29),
			}, nil
		},
	}
	svc := NewService(&embedding_service.MockEmbeddingService{}, store, &llm_service.MockLLMService{},
		0.3, 5, "fallback", discardLogger())

	hits, err := svc.Retrieve(context.Background(), []float32{0.1})
	if err != nil {
		t.Fatal(err)
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above threshold, got %d", len(hits))
	}
	for _, h := range hits {
		if h.Score < 0.3 {
			t.Errorf("hit %q has score %v below threshold", h.Chunk.Text, h.Score)
		}
	}
	if hits[0].Chunk.Text != "A" || hits[1].Chunk.Text != "C" {
		t.Errorf("hits not ordered by descending score: %v", hits)
	}
}

func TestRetrieveKeepsTieOrder(t *testing.T) {
	store := &vector_store.MockStore{
		SearchFunc: func(ctx context.Context, vector []float32, topK int) ([]vector_store.SearchHit, error) {
			return []vector_store.SearchHit{
				hit("first", "s1", 0.5),
				hit("second", "s2", 0.5),
				hit("third", "s3", 0.7),
			}, nil
		},
	}
	svc := NewService(&embedding_service.MockEmbeddingService{}, store, &llm_service.MockLLMService{},
		0.3, 5, "fallback", discardLogger())

	hits, err := svc.Retrieve(context.Background(), []float32{0.1})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"third", "first", "second"}
	for i, w := range want {
		if hits[i].Chunk.Text != w {
			t.Errorf("position %d: got %q, want %q", i, hits[i].Chunk.Text, w)
		}
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	store := &vector_store.MockStore{
		SearchFunc: func(ctx context.Context, vector []float32, topK int) ([]vector_store.SearchHit, error) {
			return nil, nil
		},
	}
	svc := NewService(&embedding_service.MockEmbeddingService{}, store, &llm_service.MockLLMService{},
		0.3, 5, "fallback", discardLogger())

	hits, err := svc.Retrieve(context.Background(), []float32{0.1})
	if err != nil {
		t.Fatalf("empty index must not be an error, got %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestGetAnswerUsesRetrievedContext(t *testing.T) {
	store := &vector_store.MockStore{
		SearchFunc: func(ctx context.Context, vector []float32, topK int) ([]vector_store.SearchHit, error) {
			return []vector_store.SearchHit{
				hit("The dog ran.", "animals.pdf", 0.8),
				hit("The cat sat.", "cats.pdf", 0.6),
				hit("Unrelated.", "other.pdf", 0.1),
			}, nil
		},
	}
	var capturedPrompt string
	llm := &llm_service.MockLLMService{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			capturedPrompt = prompt
			return "Animals move around.", nil
		},
	}
	svc := NewService(&embedding_service.MockEmbeddingService{}, store, llm,
		0.3, 5, "fallback", discardLogger())

	answer, err := svc.GetAnswer(context.Background(), "What do animals do?")
	if err != nil {
		t.Fatal(err)
	}

	if answer.Answer != "Animals move around." {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
	if len(answer.Sources) != 2 || answer.Sources[0] != "animals.pdf" || answer.Sources[1] != "cats.pdf" {
		t.Errorf("unexpected sources: %v", answer.Sources)
	}
	if !strings.Contains(capturedPrompt, "The dog ran.") || !strings.Contains(capturedPrompt, "The cat sat.") {
		t.Errorf("prompt missing retrieved context: %q", capturedPrompt)
	}
	if strings.Contains(capturedPrompt, "Unrelated.") {
		t.Errorf("prompt contains chunk below threshold: %q", capturedPrompt)
	}
}

func TestGetAnswerEmptyRetrievalFallsBack(t *testing.T) {
	store := &vector_store.MockStore{
		SearchFunc: func(ctx context.Context, vector []float32, topK int) ([]vector_store.SearchHit, error) {
			return []vector_store.SearchHit{hit("The dog ran.", "animals.pdf", 0.05)}, nil
		},
	}
	var capturedPrompt string
	llm := &llm_service.MockLLMService{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			capturedPrompt = prompt
			return "Sorry, nothing matched your question.", nil
		},
	}
	svc := NewService(&embedding_service.MockEmbeddingService{}, store, llm,
		0.3, 5, "fallback", discardLogger())

	answer, err := svc.GetAnswer(context.Background(), "What does the cat do?")
	if err != nil {
		t.Fatalf("empty retrieval must not be an error, got %v", err)
	}

	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Errorf("expected empty sources, got %v", answer.Sources)
	}
	if !strings.Contains(capturedPrompt, "No relevant documents were found") {
		t.Errorf("expected context-free fallback prompt, got %q", capturedPrompt)
	}
	if strings.Contains(capturedPrompt, "The dog ran.") {
		t.Errorf("below-threshold chunk leaked into the prompt: %q", capturedPrompt)
	}
}

func TestGetAnswerFallbackGenerationFailureUsesConfiguredMessage(t *testing.T) {
	store := &vector_store.MockStore{
		SearchFunc: func(ctx context.Context, vector []float32, topK int) ([]vector_store.SearchHit, error) {
			return nil, nil
		},
	}
	llm := &llm_service.MockLLMService{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", fmt.Errorf("generation service down")
		},
	}
	svc := NewService(&embedding_service.MockEmbeddingService{}, store, llm,
		0.3, 5, "configured fallback message", discardLogger())

	answer, err := svc.GetAnswer(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Answer != "configured fallback message" {
		t.Errorf("expected configured fallback message, got %q", answer.Answer)
	}
}

func TestGetAnswerPropagatesDependencyErrors(t *testing.T) {
	embedErr := fmt.Errorf("embedding service unreachable")
	embedder := &embedding_service.MockEmbeddingService{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, embedErr
		},
	}
	svc := NewService(embedder, &vector_store.MockStore{}, &llm_service.MockLLMService{},
		0.3, 5, "fallback", discardLogger())

	if _, err := svc.GetAnswer(context.Background(), "question"); err == nil {
		t.Fatal("expected error when embedding fails")
	}

	store := &vector_store.MockStore{
		SearchFunc: func(ctx context.Context, vector []float32, topK int) ([]vector_store.SearchHit, error) {
			return nil, fmt.Errorf("index unreachable")
		},
	}
	svc = NewService(&embedding_service.MockEmbeddingService{}, store, &llm_service.MockLLMService{},
		0.3, 5, "fallback", discardLogger())

	if _, err := svc.GetAnswer(context.Background(), "question"); err == nil {
		t.Fatal("expected error when vector search fails")
	}
}
