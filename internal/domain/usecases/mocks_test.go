package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
)

// stubProvider implements ports.LLMProvider. Models without a reply or an
// error are reported as unavailable.
type stubProvider struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	models  []string
	listErr error
	calls   []stubCall
}

type stubCall struct {
	Model  string
	Prompt string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, stubCall{Model: model, Prompt: prompt})
	if err, ok := s.errs[model]; ok {
		return "", err
	}
	if reply, ok := s.replies[model]; ok {
		return reply, nil
	}
	return "", errors.Join(ports.ErrModelUnavailable, errors.New("404 model "+model))
}

func (s *stubProvider) ListModels(ctx context.Context) ([]string, error) {
	return s.models, s.listErr
}

func (s *stubProvider) calledModels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Model
	}
	return out
}

// stubParser implements ports.DocumentParser.
type stubParser struct {
	text  string
	err   error
	calls int
}

func (p *stubParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	p.calls++
	return p.text, p.err
}

func (p *stubParser) SupportedFormats() []string { return []string{"pdf"} }

// stubLoader implements ports.DocumentLoader.
type stubLoader struct {
	doc *entities.Document
	err error
}

func (l *stubLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	d := *l.doc
	d.Path = path
	return &d, nil
}

func (l *stubLoader) SupportedExtensions() []string { return []string{".pdf"} }

// stubTracker implements ports.IssueTracker.
type stubTracker struct {
	issues  []entities.Issue
	listErr error
	tools   []entities.ToolDescriptor
	repos   []entities.Repository
}

func (t *stubTracker) ListIssues(ctx context.Context, repo entities.Repository) ([]entities.Issue, error) {
	t.repos = append(t.repos, repo)
	return t.issues, t.listErr
}

func (t *stubTracker) GetIssue(ctx context.Context, repo entities.Repository, number int) (*entities.IssueDetail, error) {
	for _, i := range t.issues {
		if i.Number == number {
			return &entities.IssueDetail{Issue: i}, nil
		}
	}
	return nil, errors.New("not found")
}

func (t *stubTracker) DiscoverTools(ctx context.Context) ([]entities.ToolDescriptor, error) {
	return t.tools, nil
}

// stubLibrary implements ports.DocumentLibrary.
type stubLibrary struct {
	docs []entities.Document
}

func (l *stubLibrary) Put(ctx context.Context, doc entities.Document) error {
	l.docs = append(l.docs, doc)
	return nil
}

func (l *stubLibrary) RemoveByPath(ctx context.Context, path string) error { return nil }

func (l *stubLibrary) List(ctx context.Context) ([]entities.Document, error) {
	return l.docs, nil
}
