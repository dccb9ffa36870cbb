package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthyPinger() pingerFunc {
	return func(ctx context.Context) error { return nil }
}

func unreachablePinger(msg string) pingerFunc {
	return func(ctx context.Context) error { return fmt.Errorf("%s", msg) }
}

func getHealth(handler http.Handler) (*httptest.ResponseRecorder, HealthResponse) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp HealthResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestHealthHandlerAllDependenciesUp(t *testing.T) {
	handler := NewHealthHandler(healthyPinger(), healthyPinger(), healthyPinger(), discardLogger())

	rec, resp := getHealth(handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected healthy status, got %q", resp.Status)
	}
	for _, name := range []string{"embedding_service", "generation_service", "vector_index"} {
		dep, ok := resp.Dependencies[name]
		if !ok {
			t.Errorf("missing dependency %q in response", name)
			continue
		}
		if dep.Status != "ok" {
			t.Errorf("dependency %q: expected ok, got %q", name, dep.Status)
		}
	}
}

func TestHealthHandlerDegradedWhenDependencyDown(t *testing.T) {
	handler := NewHealthHandler(healthyPinger(), unreachablePinger("connection refused"), healthyPinger(), discardLogger())

	rec, resp := getHealth(handler)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if resp.Status != "degraded" {
		t.Errorf("expected degraded status, got %q", resp.Status)
	}
	dep := resp.Dependencies["generation_service"]
	if dep.Status != "unreachable" {
		t.Errorf("expected unreachable generation service, got %q", dep.Status)
	}
	if dep.Error != "connection refused" {
		t.Errorf("expected error detail, got %q", dep.Error)
	}
	if resp.Dependencies["embedding_service"].Status != "ok" {
		t.Error("healthy dependencies must still report ok")
	}
}

func TestHealthHandlerReportsAllFailures(t *testing.T) {
	handler := NewHealthHandler(
		unreachablePinger("down"),
		unreachablePinger("down"),
		unreachablePinger("down"),
		discardLogger())

	rec, resp := getHealth(handler)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	for name, dep := range resp.Dependencies {
		if dep.Status != "unreachable" {
			t.Errorf("dependency %q: expected unreachable, got %q", name, dep.Status)
		}
	}
}
