// Package config loads layered service configuration: built-in
// defaults, then a YAML file, then FREITEXT_* environment overrides,
// then _file secret references, then validation.
package config

import (
	"time"

	"github.com/freitext-dev/freitext/pkg/api"
)

// Config is the root configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Provider      ProviderConfig      `yaml:"provider"`
	Registry      RegistryConfig      `yaml:"registry"`
	Executor      ExecutorConfig      `yaml:"executor"`
	Gate          GateConfig          `yaml:"gate"`
	Summary       SummaryConfig       `yaml:"summary"`
	Formatter     FormatterConfig     `yaml:"formatter"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProviderConfig holds the model backend used for the secondary pass.
type ProviderConfig struct {
	// Name labels the backend in logs ("openai", "vllm", "litellm").
	Name string `yaml:"name"`

	// BackendURL is the OpenAI-compatible base URL. Empty disables
	// the secondary pass entirely.
	BackendURL string `yaml:"backend_url"`

	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	APIKeyFile string        `yaml:"api_key_file"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RegistryConfig selects and tunes the tool registry backend.
type RegistryConfig struct {
	// Type is "memory" or "postgres".
	Type string `yaml:"type"`

	// RefreshInterval is the snapshot TTL.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// Tools seeds the memory registry with static definitions.
	Tools []api.ToolDefinition `yaml:"tools"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds the postgres registry connection settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	DSNFile         string        `yaml:"dsn_file"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

// ExecutorConfig tunes tool execution.
type ExecutorConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	Parallel bool          `yaml:"parallel"`

	// ServiceTokenKey signs outbound Bearer tokens. Empty sends
	// unauthenticated requests.
	ServiceTokenKey     string        `yaml:"service_token_key"`
	ServiceTokenKeyFile string        `yaml:"service_token_key_file"`
	ServiceTokenTTL     time.Duration `yaml:"service_token_ttl"`

	// MCPHeaders are attached to every MCP session request.
	MCPHeaders map[string]string `yaml:"mcp_headers"`
}

// GateConfig tunes the detection intent gate.
type GateConfig struct {
	Enabled             bool     `yaml:"enabled"`
	MinQuestionLength   int      `yaml:"min_question_length"`
	TheoryPatterns      []string `yaml:"theory_patterns"`
	FileAnalysisPhrases []string `yaml:"file_analysis_phrases"`
}

// SummaryConfig tunes the secondary pass and its skip predicate.
type SummaryConfig struct {
	CompletenessMarkers []string      `yaml:"completeness_markers"`
	MinReportLength     int           `yaml:"min_report_length"`
	MaxSentences        int           `yaml:"max_sentences"`
	MaxTokens           int           `yaml:"max_tokens"`
	Timeout             time.Duration `yaml:"timeout"`
}

// FormatterConfig selects the field-mapping source.
type FormatterConfig struct {
	// MappingsPath points to a YAML field-mapping file. Empty uses
	// the built-in defaults.
	MappingsPath string `yaml:"mappings_path"`

	// HotReload follows edits to MappingsPath.
	HotReload bool `yaml:"hot_reload"`
}

// APIKeyConfig is one accepted inbound API key.
type APIKeyConfig struct {
	Name    string `yaml:"name"`
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"`
}

// AuthConfig guards the HTTP surface.
type AuthConfig struct {
	// Type is "none" or "apikey".
	Type    string         `yaml:"type"`
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// ObservabilityConfig tunes logging and metrics exposure.
type ObservabilityConfig struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Metrics exposes /metrics when true.
	Metrics bool `yaml:"metrics"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		Provider: ProviderConfig{
			Name:    "openai-compatible",
			Timeout: 120 * time.Second,
		},
		Registry: RegistryConfig{
			Type:            "memory",
			RefreshInterval: 5 * time.Minute,
		},
		Executor: ExecutorConfig{
			Timeout:         30 * time.Second,
			Parallel:        true,
			ServiceTokenTTL: time.Minute,
		},
		Gate: GateConfig{
			Enabled:           true,
			MinQuestionLength: 12,
		},
		Summary: SummaryConfig{
			MinReportLength: 400,
			MaxSentences:    4,
			MaxTokens:       400,
			Timeout:         30 * time.Second,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Metrics:  true,
		},
	}
}
