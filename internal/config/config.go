// Package config holds the explorer configuration.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Documents     DocumentsConfig     `mapstructure:"documents"`
	Session       SessionConfig       `mapstructure:"session"`
	Tools         ToolsConfig         `mapstructure:"tools"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Security      SecurityConfig      `mapstructure:"security"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Env         string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTP HTTPServerConfig `mapstructure:"http"`
}

type HTTPServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// MaxUploadBytes caps multipart uploads.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// Addr returns host:port.
func (c HTTPServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LLMConfig configures the provider binding and the model candidate list.
type LLMConfig struct {
	// Provider is "gemini" or "ollama".
	Provider     string   `mapstructure:"provider"`
	APIKey       string   `mapstructure:"api_key"`
	DefaultModel string   `mapstructure:"default_model"`
	Models       []string `mapstructure:"models"`
	// RequestTimeout bounds a single provider call. Zero disables it.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BaseURL        string        `mapstructure:"base_url"`
}

// Candidates returns the fallback-ordered model list with the default model first.
func (c LLMConfig) Candidates() []string {
	out := make([]string, 0, len(c.Models)+1)
	if c.DefaultModel != "" {
		out = append(out, c.DefaultModel)
	}
	for _, m := range c.Models {
		m = strings.TrimSpace(m)
		if m == "" || slices.Contains(out, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// RequiresAPIKey reports whether the configured provider needs a key.
func (c LLMConfig) RequiresAPIKey() bool {
	return c.Provider == ProviderGemini
}

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

type DocumentsConfig struct {
	TempDir      string `mapstructure:"temp_dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	// Parser is "native" (in-process) or "remote" (extraction service at ParserURL).
	Parser    string `mapstructure:"parser"`
	ParserURL string `mapstructure:"parser_url"`
	// InboxDir is watched for PDFs that are added to the shared library.
	InboxDir string `mapstructure:"inbox_dir"`
	Watch    bool   `mapstructure:"watch"`
}

type SessionConfig struct {
	// Store is "memory" or "sqlite".
	Store      string `mapstructure:"store"`
	CookieName string `mapstructure:"cookie_name"`
}

type ToolsConfig struct {
	GitHubRepo string `mapstructure:"github_repo"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Validate checks the invariants the core relies on.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("llm.provider: unsupported provider %q", c.LLM.Provider)
	}
	if len(c.LLM.Candidates()) == 0 {
		return fmt.Errorf("llm.models: at least one model is required")
	}
	if c.Documents.ChunkSize <= 0 {
		return fmt.Errorf("documents.chunk_size must be > 0, got %d", c.Documents.ChunkSize)
	}
	if c.Documents.ChunkOverlap < 0 || c.Documents.ChunkOverlap >= c.Documents.ChunkSize {
		return fmt.Errorf("documents.chunk_overlap must be >= 0 and < chunk_size (%d), got %d",
			c.Documents.ChunkSize, c.Documents.ChunkOverlap)
	}
	switch c.Documents.Parser {
	case "native":
	case "remote":
		if c.Documents.ParserURL == "" {
			return fmt.Errorf("documents.parser_url is required for the remote parser")
		}
	default:
		return fmt.Errorf("documents.parser: unsupported parser %q", c.Documents.Parser)
	}
	switch c.Session.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("session.store: unsupported store %q", c.Session.Store)
	}
	if c.Documents.TempDir == "" {
		return fmt.Errorf("documents.temp_dir is required")
	}
	return nil
}
