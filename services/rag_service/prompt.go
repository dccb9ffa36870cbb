package rag_service

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the generation prompt from retrieved context and the
// user question. Pure function of its inputs.
func BuildPrompt(question string, contextDocs []string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Use ONLY the provided documents.\n\n")
	for i, doc := range contextDocs {
		fmt.Fprintf(&b, "Document %d:\n%s\n\n", i+1, doc)
	}
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", question)
	return b.String()
}

// BuildFallbackPrompt produces the context-free prompt used when no chunk
// clears the similarity threshold.
func BuildFallbackPrompt(question string) string {
	return fmt.Sprintf(
		"You are a helpful and professional assistant. No relevant documents were found for the user's query.\n\n"+
			"User Question: %s\n\n"+
			"Generate a polite, concise 2-3 sentence response that:\n"+
			"- acknowledges the user's question,\n"+
			"- clearly explains that no matching information was found,\n"+
			"- offers guidance on rephrasing or contacting support for further help.\n\n"+
			"Response:", question)
}
