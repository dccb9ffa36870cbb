package llm_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaError represents the error structure returned by the Ollama API
type OllamaError struct {
	Error string `json:"error"`
}

type OllamaHTTPError struct {
	StatusCode int
	Message    string
	RawBody    string
}

func (e *OllamaHTTPError) Error() string {
	return fmt.Sprintf("Ollama API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// extractOllamaErrorDetails extracts error information from Ollama API responses
func extractOllamaErrorDetails(resp *http.Response) *OllamaHTTPError {
	httpErr := &OllamaHTTPError{
		StatusCode: resp.StatusCode,
		Message:    "Unknown error",
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return httpErr
	}
	httpErr.RawBody = string(body)

	var ollamaErr OllamaError
	if err := json.Unmarshal(body, &ollamaErr); err == nil && ollamaErr.Error != "" {
		httpErr.Message = ollamaErr.Error
	}

	return httpErr
}
