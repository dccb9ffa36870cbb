package embedding_service

import (
	"context"
)

type MockEmbeddingService struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	PingFunc  func(ctx context.Context) error
}

func (m *MockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbeddingService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
