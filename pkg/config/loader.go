package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, FREITEXT_CONFIG env,
//     ./config.yaml, /etc/freitext/config.yaml)
//  3. FREITEXT_* environment overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery
// order. Returns empty string when no config file exists.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("FREITEXT_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/freitext/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile parses a YAML file over the current config. Fields not
// present in the YAML keep their current values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps FREITEXT_* environment variables onto config
// fields. Env vars win over the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FREITEXT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FREITEXT_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("FREITEXT_BACKEND_URL"); v != "" {
		cfg.Provider.BackendURL = v
	}
	if v := os.Getenv("FREITEXT_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("FREITEXT_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}

	if v := os.Getenv("FREITEXT_REGISTRY"); v != "" {
		cfg.Registry.Type = v
	}
	if v := os.Getenv("FREITEXT_REGISTRY_DSN"); v != "" {
		cfg.Registry.Postgres.DSN = v
	}
	if v := os.Getenv("FREITEXT_REGISTRY_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Registry.RefreshInterval = d
		}
	}

	if v := os.Getenv("FREITEXT_EXECUTOR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Executor.Timeout = d
		}
	}
	if v := os.Getenv("FREITEXT_SERVICE_TOKEN_KEY"); v != "" {
		cfg.Executor.ServiceTokenKey = v
	}

	if v := os.Getenv("FREITEXT_MAPPINGS"); v != "" {
		cfg.Formatter.MappingsPath = v
	}

	if v := os.Getenv("FREITEXT_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}

	if v := os.Getenv("FREITEXT_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}

// resolveFileReferences reads _file fields and populates the
// corresponding value fields when those are still empty.
func resolveFileReferences(cfg *Config) error {
	if cfg.Provider.APIKeyFile != "" && cfg.Provider.APIKey == "" {
		val, err := readSecretFile(cfg.Provider.APIKeyFile)
		if err != nil {
			return fmt.Errorf("provider.api_key_file: %w", err)
		}
		cfg.Provider.APIKey = val
	}

	if cfg.Registry.Postgres.DSNFile != "" && cfg.Registry.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Registry.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("registry.postgres.dsn_file: %w", err)
		}
		cfg.Registry.Postgres.DSN = val
	}

	if cfg.Executor.ServiceTokenKeyFile != "" && cfg.Executor.ServiceTokenKey == "" {
		val, err := readSecretFile(cfg.Executor.ServiceTokenKeyFile)
		if err != nil {
			return fmt.Errorf("executor.service_token_key_file: %w", err)
		}
		cfg.Executor.ServiceTokenKey = val
	}

	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and trims surrounding whitespace.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
