package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// HealthHandler reports reachability of the embedding service, the
// generation service and the vector index. No side effects.
type HealthHandler struct {
	embedder pinger
	llm      pinger
	store    pinger
	timeout  time.Duration
	logger   *slog.Logger
}

func NewHealthHandler(embedder, llm, store pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		embedder: embedder,
		llm:      llm,
		store:    store,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	deps := map[string]DependencyStatus{
		"embedding_service":  h.check(r.Context(), h.embedder),
		"generation_service": h.check(r.Context(), h.llm),
		"vector_index":       h.check(r.Context(), h.store),
	}

	status := "healthy"
	code := http.StatusOK
	for name, dep := range deps {
		if dep.Status != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
			h.logger.Warn("Dependency unreachable",
				slog.String("dependency", name),
				slog.String("error", dep.Error))
		}
	}

	respondJSON(w, code, HealthResponse{Status: status, Dependencies: deps})
}

func (h *HealthHandler) check(ctx context.Context, dep pinger) DependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := dep.Ping(ctx); err != nil {
		return DependencyStatus{Status: "unreachable", Error: err.Error()}
	}
	return DependencyStatus{Status: "ok"}
}
