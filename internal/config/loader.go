package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is read when no explicit path is given. It is optional.
const DefaultPath = "configs/config.yaml"

var envPlaceholder = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load reads defaults, then the YAML file at path, then environment variables.
// An empty path reads DefaultPath if it exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	if err := loadConfigFile(v, path, optional); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// The key keeps the name it has always had in .env files.
	if err := v.BindEnv("llm.api_key", "GEMINI_API_KEY", "LLM_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := v.ReadConfig(strings.NewReader(expandEnv(string(content)))); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// expandEnv replaces ${VAR} and ${VAR:default} placeholders.
func expandEnv(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		sub := envPlaceholder.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		if sub[2] != "" {
			return sub[3]
		}
		return match
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "llm-evolution-explorer")
	v.SetDefault("app.title", "LLM Evolution Explorer")
	v.SetDefault("app.description", "Explore the evolution of LLMs, from basic queries to agentic RAG integrations")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8501)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "300s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.max_upload_bytes", 32<<20)

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.default_model", "gemini-1.5-pro")
	v.SetDefault("llm.models", []string{
		"gemini-1.5-pro",
		"gemini-1.5-flash",
		"models/gemini-1.5-pro",
		"models/gemini-1.5-flash",
	})
	v.SetDefault("llm.request_timeout", "120s")
	v.SetDefault("llm.base_url", "")

	v.SetDefault("documents.temp_dir", "/tmp/llm_evolution_explorer")
	v.SetDefault("documents.chunk_size", 1000)
	v.SetDefault("documents.chunk_overlap", 200)
	v.SetDefault("documents.parser", "native")
	v.SetDefault("documents.parser_url", "http://localhost:8081")
	v.SetDefault("documents.inbox_dir", "./documents")
	v.SetDefault("documents.watch", false)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.cookie_name", "explorer_session")

	v.SetDefault("tools.github_repo", "https://github.com/modelcontextprotocol/python-sdk")

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("security.cors.allowed_origins", []string{"*"})
}
