package llm_service

import (
	"context"
)

// Service produces natural-language text from a prompt. No structured output
// contract is assumed.
type Service interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
}
