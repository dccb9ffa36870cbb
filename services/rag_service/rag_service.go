package rag_service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/codeware/ragserver/services/embedding_service"
	"github.com/codeware/ragserver/services/llm_service"
	"github.com/codeware/ragserver/services/vector_store"
)

// Service runs the query path: embed question, retrieve context above the
// similarity threshold, assemble a prompt, generate the answer.
type Service struct {
	embedder        embedding_service.Service
	store           vector_store.Store
	llm             llm_service.Service
	threshold       float64
	topK            int
	fallbackMessage string
	logger          *slog.Logger
}

type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func NewService(embedder embedding_service.Service, store vector_store.Store, llm llm_service.Service,
	threshold float64, topK int, fallbackMessage string, logger *slog.Logger) *Service {
	return &Service{
		embedder:        embedder,
		store:           store,
		llm:             llm,
		threshold:       threshold,
		topK:            topK,
		fallbackMessage: fallbackMessage,
		logger:          logger,
	}
}

func (s *Service) GetAnswer(ctx context.Context, question string) (*Answer, error) {
	queryVector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := s.Retrieve(ctx, queryVector)
	if err != nil {
		return nil, err
	}

	// Empty retrieval is a normal branch, not an error: answer without
	// retrieved context.
	if len(hits) == 0 {
		s.logger.Info("No chunk cleared the similarity threshold",
			slog.Float64("threshold", s.threshold))
		answer, err := s.llm.Generate(ctx, BuildFallbackPrompt(question))
		if err != nil {
			s.logger.Error("Fallback answer generation failed",
				slog.String("error", err.Error()))
			answer = s.fallbackMessage
		}
		return &Answer{Answer: answer, Sources: []string{}}, nil
	}

	contextDocs := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	seen := make(map[string]bool)
	for _, hit := range hits {
		contextDocs = append(contextDocs, hit.Chunk.Text)
		if hit.Chunk.Source != "" && !seen[hit.Chunk.Source] {
			seen[hit.Chunk.Source] = true
			sources = append(sources, hit.Chunk.Source)
		}
	}

	answer, err := s.llm.Generate(ctx, BuildPrompt(question, contextDocs))
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	s.logger.Info("Answered question with retrieved context",
		slog.Int("context_chunks", len(contextDocs)),
		slog.Float64("top_score", hits[0].Score))

	return &Answer{Answer: answer, Sources: sources}, nil
}

// Retrieve searches the index for the topK nearest chunks, drops hits below
// the similarity threshold and returns the rest ordered by descending score.
// Ties keep their original result order. An empty result is a valid outcome.
func (s *Service) Retrieve(ctx context.Context, queryVector []float32) ([]vector_store.SearchHit, error) {
	hits, err := s.store.Search(ctx, queryVector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	filtered := make([]vector_store.SearchHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= s.threshold {
			filtered = append(filtered, hit)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})

	return filtered, nil
}
