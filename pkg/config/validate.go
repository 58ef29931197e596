package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate checks the configuration for required fields and valid
// values. Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}

	// A backend URL is optional (no secondary pass without it), but a
	// model without a backend is a misconfiguration.
	if c.Provider.BackendURL == "" && c.Provider.Model != "" {
		errs = append(errs, fmt.Errorf("provider.model is set but provider.backend_url is empty"))
	}
	if c.Provider.BackendURL != "" && c.Provider.Model == "" {
		errs = append(errs, fmt.Errorf("provider.model is required when provider.backend_url is set"))
	}

	switch c.Registry.Type {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("registry.type must be \"memory\" or \"postgres\", got %q", c.Registry.Type))
	}

	if c.Registry.Type == "postgres" {
		if c.Registry.Postgres.DSN == "" && c.Registry.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("registry.postgres.dsn or registry.postgres.dsn_file is required when registry.type is \"postgres\""))
		}
	}

	if c.Executor.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("executor.timeout must be positive, got %s", c.Executor.Timeout))
	}

	for i, pattern := range c.Gate.TheoryPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("gate.theory_patterns[%d]: %w", i, err))
		}
	}

	switch c.Auth.Type {
	case "none", "apikey":
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\" or \"apikey\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
	}

	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("observability.log_level must be debug, info, warn or error, got %q", c.Observability.LogLevel))
	}

	return errors.Join(errs...)
}
