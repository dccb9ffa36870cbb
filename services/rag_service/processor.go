package rag_service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeware/ragserver/services/embedding_service"
	"github.com/codeware/ragserver/services/vector_store"
)

var (
	// ErrUnsupportedFormat means the document extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyDocument means extraction or chunking produced no text.
	ErrEmptyDocument = errors.New("no text content extracted from document")
	// ErrDimensionMismatch means the embedding model and the vector index
	// disagree on dimensionality. Fatal for the ingestion.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

type IngestResult struct {
	DocumentID string `json:"document"`
	Chunks     int    `json:"chunks"`
}

// Processor runs the ingestion path: load document, chunk, embed each chunk,
// replace the document's points in the vector index.
type Processor struct {
	store      vector_store.Store
	embedder   embedding_service.Service
	extractor  *DocumentExtractor
	chunker    *Chunker
	vectorSize int
	logger     *slog.Logger
}

func NewProcessor(store vector_store.Store, embedder embedding_service.Service, chunker *Chunker, vectorSize int, logger *slog.Logger) *Processor {
	return &Processor{
		store:      store,
		embedder:   embedder,
		extractor:  NewDocumentExtractor(logger),
		chunker:    chunker,
		vectorSize: vectorSize,
		logger:     logger,
	}
}

// IngestDocument processes the file at path and stores its chunks under
// documentRef. Re-ingesting the same documentRef replaces its prior chunks.
func (p *Processor) IngestDocument(ctx context.Context, documentRef, path string) (*IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", documentRef, err)
	}

	extractStart := time.Now()
	text, err := p.ExtractText(path, content)
	if err != nil {
		return nil, err
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, documentRef)
	}

	p.logger.Info("Document chunked",
		slog.String("document", documentRef),
		slog.Int("text_length", len(text)),
		slog.Int("chunks", len(chunks)),
		slog.Duration("extraction_time", time.Since(extractStart)))

	source := filepath.Base(path)
	embedStart := time.Now()
	points := make([]vector_store.Point, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d of %q: %w", chunk.Index, documentRef, err)
		}
		if len(vector) != p.vectorSize {
			return nil, fmt.Errorf("%w for %q: model produced %d, index expects %d",
				ErrDimensionMismatch, documentRef, len(vector), p.vectorSize)
		}
		points = append(points, vector_store.Point{
			ID:     uuid.NewString(),
			Vector: vector,
			Chunk: vector_store.Chunk{
				DocumentID:  documentRef,
				Source:      source,
				ChunkIndex:  chunk.Index,
				TotalChunks: len(chunks),
				Text:        chunk.Text,
			},
		})
	}

	// Drop the previous generation of this document before upserting so that
	// re-ingestion replaces instead of duplicating.
	if err := p.store.DeleteDocument(ctx, documentRef); err != nil {
		return nil, fmt.Errorf("failed to remove previous chunks of %q: %w", documentRef, err)
	}
	if err := p.store.Upsert(ctx, points); err != nil {
		return nil, fmt.Errorf("failed to store chunks of %q: %w", documentRef, err)
	}

	p.logger.Info("Document ingested",
		slog.String("document", documentRef),
		slog.Int("chunks", len(points)),
		slog.Duration("embedding_time", time.Since(embedStart)))

	return &IngestResult{DocumentID: documentRef, Chunks: len(points)}, nil
}

// ExtractText dispatches to the extractor matching the file extension.
func (p *Processor) ExtractText(path string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return p.extractor.ExtractTextFromPDF(content)
	case ".doc", ".docx":
		return p.extractor.ExtractTextFromWord(content)
	case ".html", ".htm":
		return p.extractor.ExtractTextFromHTML(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
