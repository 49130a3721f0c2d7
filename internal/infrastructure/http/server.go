// Package http provides the web shell of the explorer: a gin server with the
// JSON API of the four setups and an embedded single page UI.
package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/config"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/usecases"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
)

//go:embed templates/*
var templatesFS embed.FS

// Deps are the collaborators of the server. Library and Providers may be nil.
type Deps struct {
	Assistant *usecases.Assistant
	Sessions  ports.SessionStore
	Library   ports.DocumentLibrary
	Tracker   ports.IssueTracker
	// Providers builds a provider from a submitted API key.
	Providers ports.ProviderFactory
}

// Server is the HTTP server for the explorer API and UI.
type Server struct {
	cfg    *config.Config
	deps   Deps
	genCfg usecases.GeneratorConfig
	// unbound stands in until a generator is installed.
	unbound *usecases.Generator
	addr    string
	engine  *gin.Engine
}

// NewServer builds the router. An empty addr uses the configured address.
func NewServer(cfg *config.Config, deps Deps, addr string) (*Server, error) {
	if deps.Assistant == nil || deps.Sessions == nil || deps.Tracker == nil {
		return nil, errors.New("http: assistant, sessions and tracker are required")
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if addr == "" {
		addr = cfg.Server.HTTP.Addr()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	genCfg := usecases.GeneratorConfig{
		Models:         cfg.LLM.Candidates(),
		RequestTimeout: cfg.LLM.RequestTimeout,
	}
	unbound, err := usecases.NewGenerator(nil, genCfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		genCfg:  genCfg,
		unbound: unbound,
		addr:    addr,
		engine:  gin.New(),
	}
	s.engine.SetHTMLTemplate(tmpl)
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Engine returns the gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) setupMiddleware() {
	s.engine.Use(Recovery())
	s.engine.Use(RequestID())
	s.engine.Use(CORS(s.cfg.Security.CORS.AllowedOrigins))

	if s.cfg.Observability.Tracing.Enabled {
		s.engine.Use(Trace(s.cfg.App.Name))
		s.engine.Use(TraceContext())
	}
	if s.cfg.Observability.Metrics.Enabled {
		s.engine.Use(Metrics())
	}
	s.engine.Use(Logging())
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	if s.cfg.Observability.Metrics.Enabled {
		s.engine.GET(s.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	ui := s.engine.Group("/", Sessions(s.deps.Sessions, s.cfg.Session.CookieName))
	ui.GET("/", s.handleIndex)

	api := s.engine.Group("/api", Sessions(s.deps.Sessions, s.cfg.Session.CookieName))
	{
		api.POST("/key", s.handleAPIKey)
		api.GET("/models", s.handleListModels)
		api.GET("/setups", s.handleListSetups)

		api.GET("/session", s.handleGetSession)
		api.PUT("/session/setup", s.handleSelectSetup)
		api.PUT("/session/model", s.handleSelectModel)

		api.POST("/basic", s.handleBasic)

		api.POST("/rag/document", s.handleRAGDocument)
		api.POST("/rag/ask", s.handleRAGAsk)

		api.POST("/agentic", s.handleAgentic)
		api.GET("/issues/:number", s.handleGetIssue)

		api.POST("/agentic-rag/documents", s.handleAgenticRAGDocuments)
		api.POST("/agentic-rag/ask", s.handleAgenticRAGAsk)

		api.GET("/documents/:name/chunks", s.handleDocumentChunks)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpCfg := s.cfg.Server.HTTP
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	logger.Info(ctx, "http server starting", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
