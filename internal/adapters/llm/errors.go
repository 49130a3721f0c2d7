package llm

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
)

// ProviderError is a failed provider call for one model.
type ProviderError struct {
	Provider string
	Model    string
	Status   int
	Message  string
	// Err is ports.ErrModelUnavailable for unknown or unsupported models.
	Err error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%d %s", e.Status, e.Message)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// classifyGemini converts a genai failure into a ProviderError.
// Errors that did not come from the API are returned unchanged.
func classifyGemini(model string, err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return err
		}
		apiErr = *ptr
	}

	pe := &ProviderError{
		Provider: "gemini",
		Model:    model,
		Status:   apiErr.Code,
		Message:  apiErr.Message,
	}
	if apiErr.Code == http.StatusNotFound || apiErr.Status == "NOT_FOUND" {
		pe.Err = ports.ErrModelUnavailable
	}
	return pe
}

// ollamaError converts a non-200 Ollama response into a ProviderError.
func ollamaError(model string, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	pe := &ProviderError{
		Provider: "ollama",
		Model:    model,
		Status:   status,
		Message:  message,
	}
	if status == http.StatusNotFound {
		pe.Err = ports.ErrModelUnavailable
	}
	return pe
}
