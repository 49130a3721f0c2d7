// Package ports defines the interfaces the use cases depend on.
// Adapters implement them; use cases never import adapters.
package ports

import (
	"context"
	"errors"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
)

var (
	// ErrSessionNotFound is returned by SessionStore.Get for unknown IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrModelUnavailable marks provider failures caused by an unknown or
	// unsupported model. Only these failures move generation to the next model.
	ErrModelUnavailable = errors.New("model not found or not supported")
)

// LLMProvider is a text generation backend.
type LLMProvider interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Generate produces the model's text for prompt.
	// Errors for unknown or unsupported models should wrap ErrModelUnavailable.
	Generate(ctx context.Context, model, prompt string) (string, error)

	// ListModels returns the models able to generate content.
	ListModels(ctx context.Context) ([]string, error)
}

// ProviderFactory builds a provider bound to an API key.
type ProviderFactory func(ctx context.Context, apiKey string) (LLMProvider, error)

// DocumentParser extracts plain text from binary documents.
type DocumentParser interface {
	// Parse extracts the text of data, one newline-terminated segment per page.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns the formats this parser handles, e.g. "pdf".
	SupportedFormats() []string
}

// DocumentLoader reads a document from disk.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (*entities.Document, error)
	SupportedExtensions() []string
}

// SessionStore keeps session state for the lifetime of the process.
type SessionStore interface {
	Get(ctx context.Context, id string) (*entities.Session, error)
	Save(ctx context.Context, session *entities.Session) error
	Delete(ctx context.Context, id string) error
}

// DocumentLibrary holds documents shared by all sessions.
type DocumentLibrary interface {
	Put(ctx context.Context, doc entities.Document) error
	RemoveByPath(ctx context.Context, path string) error
	List(ctx context.Context) ([]entities.Document, error)
}

// IssueTracker is the tool the agentic setups consult.
type IssueTracker interface {
	ListIssues(ctx context.Context, repo entities.Repository) ([]entities.Issue, error)
	GetIssue(ctx context.Context, repo entities.Repository, number int) (*entities.IssueDetail, error)
	// DiscoverTools lists the tools a function-calling model would be offered.
	DiscoverTools(ctx context.Context) ([]entities.ToolDescriptor, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring dir and emits events until ctx is done or Stop is called.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	Stop() error
}

// FileEvent is a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the kind of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
