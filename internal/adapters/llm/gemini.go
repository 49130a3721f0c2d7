package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/genai"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
)

// GeminiProvider implements ports.LLMProvider with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a provider bound to apiKey. baseURL overrides the
// API endpoint and may be empty.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// GeminiFactory returns a ports.ProviderFactory for the given endpoint.
func GeminiFactory(baseURL string) ports.ProviderFactory {
	return func(ctx context.Context, apiKey string) (ports.LLMProvider, error) {
		return NewGeminiProvider(ctx, apiKey, baseURL)
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Generate sends prompt as a single user turn.
func (p *GeminiProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyGemini(model, err)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("empty response from model")
	}
	return resp.Text(), nil
}

// ListModels returns the models that support content generation.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	var models []string
	for m, err := range p.client.Models.All(ctx) {
		if err != nil {
			return nil, classifyGemini("", err)
		}
		if slices.Contains(m.SupportedActions, "generateContent") {
			models = append(models, strings.TrimSpace(m.Name))
		}
	}
	return models, nil
}
