// Command explorer serves the LLM Evolution Explorer: four integration
// patterns of a language model (basic, RAG, agentic, agentic RAG) behind a
// small web UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/filewatcher"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/llm"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/loader"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/parser"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/session"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/tools"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/config"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/llm-evolution-explorer/internal/infrastructure/http"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/tracer"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	fs := flag.NewFlagSet("explorer", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config (default "+config.DefaultPath+" if present)")
	addr := fs.String("addr", "", "listen address, overrides server.http host and port")
	logLevel := fs.String("log-level", "", "debug, info, warn or error, overrides observability.logging.level")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: explorer [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Observability.Logging.Level = *logLevel
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *addr); err != nil {
		logger.Fatal(ctx, "explorer stopped", err)
	}
	logger.Info(ctx, "explorer exited")
}

func run(ctx context.Context, cfg *config.Config, addr string) error {
	logger.Info(ctx, "starting explorer",
		"version", Version,
		"env", cfg.App.Env,
		"provider", cfg.LLM.Provider,
		"session_store", cfg.Session.Store,
	)

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error(ctx, "failed to shutdown tracer", err)
		}
	}()

	docParser := newParser(ctx, cfg)
	ingestor, err := usecases.NewIngestor(
		docParser,
		loader.NewMultiLoader(docParser),
		cfg.Documents.TempDir,
		cfg.Documents.ChunkSize,
		cfg.Documents.ChunkOverlap,
	)
	if err != nil {
		return err
	}

	sessions, library, closeStore, err := newStores(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, factory, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	generator, err := usecases.NewGenerator(provider, usecases.GeneratorConfig{
		Models:         cfg.LLM.Candidates(),
		RequestTimeout: cfg.LLM.RequestTimeout,
	})
	if err != nil {
		return err
	}
	if !generator.Ready() {
		logger.Info(ctx, "no API key configured, waiting for one from the UI")
	}

	tracker, err := tools.NewStaticIssueTracker()
	if err != nil {
		return err
	}

	assistant := usecases.NewAssistant(generator, ingestor, tracker, library, cfg.Tools.GitHubRepo)

	server, err := httpserver.NewServer(cfg, httpserver.Deps{
		Assistant: assistant,
		Sessions:  sessions,
		Library:   library,
		Tracker:   tracker,
		Providers: factory,
	}, addr)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	var inbox *usecases.Inbox
	if cfg.Documents.Watch {
		watcher, err := filewatcher.NewFSNotifyWatcher(nil)
		if err != nil {
			return fmt.Errorf("creating inbox watcher: %w", err)
		}
		defer watcher.Stop()
		inbox = usecases.NewInbox(watcher, ingestor, library, watcher.Extensions())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	if inbox != nil {
		g.Go(func() error {
			return inbox.Run(gctx, cfg.Documents.InboxDir)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newParser(ctx context.Context, cfg *config.Config) ports.DocumentParser {
	if cfg.Documents.Parser == "remote" {
		p := parser.NewRemotePDFParser(cfg.Documents.ParserURL)
		if !p.IsServiceHealthy(ctx) {
			logger.Warn(ctx, "PDF extraction service is not reachable", "url", cfg.Documents.ParserURL)
		}
		return p
	}
	return parser.NewNativePDFParser()
}

func newStores(cfg *config.Config) (ports.SessionStore, ports.DocumentLibrary, func(), error) {
	if cfg.Session.Store == "sqlite" {
		store, err := session.NewSQLiteStore()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening session store: %w", err)
		}
		return store, store, func() { store.Close() }, nil
	}
	return session.NewMemoryStore(), session.NewMemoryLibrary(), func() {}, nil
}

// newProvider binds the configured provider. A Gemini provider without a key
// stays unbound until a key is submitted through the factory.
func newProvider(ctx context.Context, cfg *config.Config) (ports.LLMProvider, ports.ProviderFactory, error) {
	var factory ports.ProviderFactory
	switch cfg.LLM.Provider {
	case config.ProviderOllama:
		factory = llm.OllamaFactory(cfg.LLM.BaseURL)
	default:
		factory = llm.GeminiFactory(cfg.LLM.BaseURL)
		if cfg.LLM.APIKey == "" {
			return nil, factory, nil
		}
	}
	provider, err := factory(ctx, cfg.LLM.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s provider: %w", cfg.LLM.Provider, err)
	}
	return provider, factory, nil
}
