package llm_service

import (
	"context"
)

type MockLLMService struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	PingFunc     func(ctx context.Context) error
}

func (m *MockLLMService) Generate(ctx context.Context, prompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "mock response", nil
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
