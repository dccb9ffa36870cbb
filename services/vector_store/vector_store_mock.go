package vector_store

import (
	"context"
)

type MockStore struct {
	EnsureReadyFunc    func(ctx context.Context) error
	UpsertFunc         func(ctx context.Context, points []Point) error
	DeleteDocumentFunc func(ctx context.Context, documentID string) error
	SearchFunc         func(ctx context.Context, vector []float32, topK int) ([]SearchHit, error)
	PingFunc           func(ctx context.Context) error
}

func (m *MockStore) EnsureReady(ctx context.Context) error {
	if m.EnsureReadyFunc != nil {
		return m.EnsureReadyFunc(ctx)
	}
	return nil
}

func (m *MockStore) Upsert(ctx context.Context, points []Point) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, points)
	}
	return nil
}

func (m *MockStore) DeleteDocument(ctx context.Context, documentID string) error {
	if m.DeleteDocumentFunc != nil {
		return m.DeleteDocumentFunc(ctx, documentID)
	}
	return nil
}

func (m *MockStore) Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, vector, topK)
	}
	return nil, nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
