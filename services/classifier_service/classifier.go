package classifier_service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeware/ragserver/services/llm_service"
)

// QueryClassifierService decides whether a query can be answered directly by
// the model or needs the document retrieval pipeline.
type QueryClassifierService struct {
	llm    llm_service.Service
	logger *slog.Logger
}

func NewQueryClassifierService(llm llm_service.Service, logger *slog.Logger) *QueryClassifierService {
	return &QueryClassifierService{
		llm:    llm,
		logger: logger,
	}
}

// ShouldUseDirectResponse asks the model to classify the query as DIRECT
// (greetings, chit-chat, general knowledge) or RAG (needs stored knowledge).
// On classification failure the retrieval pipeline is used.
func (s *QueryClassifierService) ShouldUseDirectResponse(ctx context.Context, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}

	decision, err := s.llm.Generate(ctx, buildDecisionPrompt(query))
	if err != nil {
		s.logger.Error("Query classification failed, defaulting to retrieval",
			slog.String("error", err.Error()))
		return false
	}

	useDirect := strings.ToUpper(strings.TrimSpace(decision)) == "DIRECT"

	s.logger.Info("Query classified",
		slog.String("decision", strings.TrimSpace(decision)),
		slog.Bool("use_direct", useDirect))

	return useDirect
}

// GenerateDirectResponse answers greetings and chit-chat without retrieval.
func (s *QueryClassifierService) GenerateDirectResponse(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(
		"You are a friendly and helpful assistant. Respond naturally to the user's message.\n\n"+
			"User: %s\n\n"+
			"Assistant:", query)

	response, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Direct response generation failed",
			slog.String("error", err.Error()))
		return "Hello! How can I help you today?"
	}
	return response
}

func buildDecisionPrompt(query string) string {
	return fmt.Sprintf(
		"You are a decision classifier. Decide whether the user's query should be:\n"+
			"- DIRECT -> Answered immediately by the assistant (greetings, chit-chat, general knowledge, "+
			"questions about the assistant, opinion questions, simple factual questions)\n"+
			"- RAG -> Requires searching internal documents (company policies, pricing, services, procedures, "+
			"product details, account-related questions, technical instructions, configuration details, etc.)\n\n"+
			"User Query: %q\n\n"+
			"Rules:\n"+
			"Use DIRECT when:\n"+
			" - The query is general conversation (hello, how are you, who are you, what can you do)\n"+
			" - It is general knowledge (what is python, what is AI)\n"+
			" - It is opinion/creative (tell me a joke, explain something)\n"+
			" - It does NOT mention company-specific or product-specific details\n\n"+
			"Use RAG when:\n"+
			" - The query asks about company information, policies, pricing, packages, billing\n"+
			" - Product or system features, configuration, APIs, errors, troubleshooting\n"+
			" - Anything requiring factual accuracy about stored knowledge\n\n"+
			"Respond with ONLY one word: DIRECT or RAG.\n\n"+
			"Decision:", query)
}
