package usecases

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/metrics"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/tracer"
)

// GeneratorConfig is the explicit configuration of a Generator.
type GeneratorConfig struct {
	// Models is the fallback order. The first entry is the default model.
	Models []string
	// RequestTimeout bounds each provider call. Zero means no bound.
	RequestTimeout time.Duration
}

// Generator sends prompts to a provider, falling back through the candidate
// models when the requested one is unavailable.
type Generator struct {
	provider ports.LLMProvider
	cfg      GeneratorConfig
}

// NewGenerator returns a Generator. A nil provider is accepted and makes every
// generation fail with a configuration error until a key is supplied.
func NewGenerator(provider ports.LLMProvider, cfg GeneratorConfig) (*Generator, error) {
	if len(cfg.Models) == 0 {
		return nil, apperrors.New(apperrors.CodeConfiguration, "model candidate list is empty")
	}
	cfg.Models = slices.Clone(cfg.Models)
	return &Generator{provider: provider, cfg: cfg}, nil
}

// Ready reports whether a provider is bound.
func (g *Generator) Ready() bool {
	return g.provider != nil
}

// DefaultModel returns the first candidate.
func (g *Generator) DefaultModel() string {
	return g.cfg.Models[0]
}

// Models returns the candidate list.
func (g *Generator) Models() []string {
	return slices.Clone(g.cfg.Models)
}

// AvailableModels asks the provider for its models and falls back to the
// candidate list when that fails or returns nothing.
func (g *Generator) AvailableModels(ctx context.Context) []string {
	if g.provider == nil {
		return g.Models()
	}
	models, err := g.provider.ListModels(ctx)
	if err != nil {
		logger.Warn(ctx, "listing models failed, using configured list", "error", err.Error())
		return g.Models()
	}
	if len(models) == 0 {
		return g.Models()
	}
	return models
}

// Generate sends prompt to model, or to the default model when model is empty.
func (g *Generator) Generate(ctx context.Context, prompt, model string) (entities.GenerationResult, error) {
	if g.provider == nil {
		return entities.GenerationResult{}, apperrors.New(apperrors.CodeConfiguration, "no API key configured")
	}
	if model == "" {
		model = g.DefaultModel()
	}

	ctx, span := tracer.Start(ctx, "generator.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.requested_model", model))

	text, err := g.attempt(ctx, model, prompt)
	if err == nil {
		return entities.GenerationResult{Text: text, Model: model, Requested: model}, nil
	}
	if !IsModelUnavailable(err) {
		span.SetStatus(codes.Error, err.Error())
		return entities.GenerationResult{}, generationError(err)
	}

	lastErr := err
	for _, candidate := range g.cfg.Models {
		if candidate == model {
			continue
		}
		logger.Warn(ctx, "model unavailable, trying alternative",
			"requested", model,
			"model", candidate,
			"error", lastErr.Error(),
		)
		text, err := g.attempt(ctx, candidate, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		metrics.LLMFallbackTotal.WithLabelValues(model, candidate).Inc()
		span.SetAttributes(attribute.String("llm.served_model", candidate))
		logger.Info(ctx, "served by fallback model", "requested", model, "model", candidate)
		return entities.GenerationResult{Text: text, Model: candidate, Requested: model}, nil
	}

	span.SetStatus(codes.Error, lastErr.Error())
	return entities.GenerationResult{}, generationError(lastErr)
}

// GenerateWithContext wraps prompt and docContext into the retrieval template and
// generates with the same fallback behavior as Generate.
func (g *Generator) GenerateWithContext(ctx context.Context, prompt, docContext, model string) (entities.GenerationResult, error) {
	return g.Generate(ctx, BuildRAGPrompt(prompt, docContext), model)
}

func (g *Generator) attempt(ctx context.Context, model, prompt string) (string, error) {
	if g.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "generator.attempt")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", g.provider.Name()),
		attribute.String("llm.model", model),
	)

	start := time.Now()
	text, err := g.provider.Generate(ctx, model, prompt)
	metrics.LLMCallDuration.WithLabelValues(g.provider.Name(), model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(g.provider.Name(), model, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	metrics.LLMCallTotal.WithLabelValues(g.provider.Name(), model, "ok").Inc()
	return text, nil
}

// IsModelUnavailable reports whether err should move generation to the next
// candidate. Unstructured errors are matched on their message.
func IsModelUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ports.ErrModelUnavailable) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not supported")
}

func generationError(err error) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.CodeGeneration, "generating response")
}
