package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeware/ragserver/services/rag_service"
)

type IngestRequest struct {
	DocumentRef string `json:"document_ref"`
}

type IngestResponse struct {
	Status   string `json:"status"`
	Document string `json:"document"`
	Chunks   int    `json:"chunks"`
}

// IngestHandler runs the ingestion pipeline for a document under the
// configured document directory. Idempotent per document reference.
type IngestHandler struct {
	processor   *rag_service.Processor
	documentDir string
	logger      *slog.Logger
}

func NewIngestHandler(processor *rag_service.Processor, documentDir string, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{
		processor:   processor,
		documentDir: documentDir,
		logger:      logger,
	}
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body",
			slog.String("error", err.Error()))
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref := strings.TrimSpace(req.DocumentRef)
	if ref == "" {
		respondError(w, http.StatusBadRequest, "document_ref is required")
		return
	}

	ref = filepath.Clean(ref)
	if filepath.IsAbs(ref) || ref == ".." || strings.HasPrefix(ref, ".."+string(filepath.Separator)) {
		respondError(w, http.StatusBadRequest, "document_ref must be a path inside the document directory")
		return
	}

	result, err := h.processor.IngestDocument(r.Context(), ref, filepath.Join(h.documentDir, ref))
	if err != nil {
		h.logger.Error("Ingestion failed",
			slog.String("document", ref),
			slog.String("error", err.Error()))

		switch {
		case errors.Is(err, os.ErrNotExist):
			respondError(w, http.StatusNotFound, "document not found: "+ref)
		case errors.Is(err, rag_service.ErrUnsupportedFormat), errors.Is(err, rag_service.ErrEmptyDocument):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, rag_service.ErrDimensionMismatch):
			respondError(w, http.StatusInternalServerError, err.Error())
		default:
			respondError(w, http.StatusServiceUnavailable, "failed to ingest document: a downstream service is unavailable")
		}
		return
	}

	respondJSON(w, http.StatusOK, IngestResponse{
		Status:   "indexed",
		Document: result.DocumentID,
		Chunks:   result.Chunks,
	})
}
