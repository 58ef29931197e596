package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("explicit missing file should fail")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Registry.Type != "memory" {
		t.Errorf("registry type = %q", cfg.Registry.Type)
	}
	if !cfg.Executor.Parallel {
		t.Error("parallel execution should default on")
	}
}

func TestLoad_YAMLAndEnvLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
provider:
  backend_url: http://llm.local
  model: small-model
registry:
  refresh_interval: 1m
executor:
  timeout: 10s
  parallel: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FREITEXT_PORT", "9100")
	t.Setenv("FREITEXT_MODEL", "big-model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Env wins over file.
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Provider.Model != "big-model" {
		t.Errorf("model = %q", cfg.Provider.Model)
	}
	// File wins over defaults.
	if cfg.Registry.RefreshInterval != time.Minute {
		t.Errorf("refresh interval = %s", cfg.Registry.RefreshInterval)
	}
	if cfg.Executor.Timeout != 10*time.Second {
		t.Errorf("executor timeout = %s", cfg.Executor.Timeout)
	}
	if cfg.Executor.Parallel {
		t.Error("parallel should be disabled by file")
	}
}

func TestLoad_FileReferences(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "api-key")
	if err := os.WriteFile(keyFile, []byte("  sk-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "config.yaml")
	yaml := `
provider:
  backend_url: http://llm.local
  model: m
  api_key_file: ` + keyFile + `
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "sk-secret" {
		t.Errorf("api key = %q, want trimmed file content", cfg.Provider.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "server.port",
		},
		{
			name:    "model without backend",
			mutate:  func(c *Config) { c.Provider.Model = "m" },
			wantErr: "backend_url",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Registry.Type = "postgres" },
			wantErr: "registry.postgres.dsn",
		},
		{
			name:    "unknown registry type",
			mutate:  func(c *Config) { c.Registry.Type = "redis" },
			wantErr: "registry.type",
		},
		{
			name:    "invalid gate pattern",
			mutate:  func(c *Config) { c.Gate.TheoryPatterns = []string{"(unclosed"} },
			wantErr: "gate.theory_patterns[0]",
		},
		{
			name:    "apikey auth without keys",
			mutate:  func(c *Config) { c.Auth.Type = "apikey" },
			wantErr: "auth.api_keys",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "verbose" },
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}
