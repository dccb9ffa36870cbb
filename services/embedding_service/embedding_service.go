package embedding_service

import (
	"context"
)

// Service generates fixed-length vector representations of text. All calls
// within a deployment return vectors of the same dimensionality.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Ping(ctx context.Context) error
}
