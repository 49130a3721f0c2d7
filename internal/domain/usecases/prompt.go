package usecases

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
)

const ragTemplate = `Context information:
%s

Based on the above context, please answer the following question:
%s

If the answer is not in the context, please say so. When using information from the context, cite the relevant parts.`

// BuildRAGPrompt restates docContext verbatim ahead of the question.
func BuildRAGPrompt(prompt, docContext string) string {
	return fmt.Sprintf(ragTemplate, docContext, prompt)
}

// BuildAgenticPrompt frames query as a question about repoURL.
func BuildAgenticPrompt(repoURL, query string) string {
	return fmt.Sprintf("The user is asking about the GitHub repository: %s. The query is: %s", repoURL, query)
}

// BuildAgenticRAGPrompt is BuildAgenticPrompt for questions that may also
// concern the uploaded documents.
func BuildAgenticRAGPrompt(repoURL, query string) string {
	return fmt.Sprintf("The user is asking about the GitHub repository: %s and possibly the uploaded documents. The query is: %s", repoURL, query)
}

// CombineDocuments joins the documents into one context, each under a header
// naming it.
func CombineDocuments(docs []entities.Document) string {
	var sb strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&sb, "\n\n--- Document: %s ---\n%s", d.Name, d.Content)
	}
	return sb.String()
}

// RenderError turns a failure into the message shown to the user.
func RenderError(err error) string {
	appErr := apperrors.AsAppError(err)
	switch appErr.Code {
	case apperrors.CodeGeneration:
		return fmt.Sprintf("Error generating response: %s. Please try a different model or check your API key.", appErr.Cause())
	case apperrors.CodeExtraction:
		return "Error extracting text from PDF: " + appErr.Cause()
	case apperrors.CodeUnknown:
		return "Error: " + appErr.Cause()
	default:
		if appErr.Detail != "" {
			return appErr.Detail
		}
		return appErr.Message
	}
}
