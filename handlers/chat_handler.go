package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/codeware/ragserver/services/classifier_service"
	"github.com/codeware/ragserver/services/rag_service"
)

type ChatRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ChatHandler answers user questions, either directly or through the
// retrieval pipeline.
type ChatHandler struct {
	rag        *rag_service.Service
	classifier *classifier_service.QueryClassifierService
	logger     *slog.Logger
}

func NewChatHandler(rag *rag_service.Service, classifier *classifier_service.QueryClassifierService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		rag:        rag,
		classifier: classifier,
		logger:     logger,
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body",
			slog.String("error", err.Error()))
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	h.logger.Info("Processing chat request",
		slog.String("user_id", req.UserID),
		slog.Int("question_length", len(question)))

	if h.classifier.ShouldUseDirectResponse(r.Context(), question) {
		answer := h.classifier.GenerateDirectResponse(r.Context(), question)
		respondJSON(w, http.StatusOK, ChatResponse{Answer: answer, Sources: []string{}})
		return
	}

	result, err := h.rag.GetAnswer(r.Context(), question)
	if err != nil {
		h.logger.Error("RAG pipeline failed",
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusServiceUnavailable, "failed to process query: a downstream service is unavailable")
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{Answer: result.Answer, Sources: result.Sources})
}
