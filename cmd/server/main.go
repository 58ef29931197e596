// Command server runs the freitext tool-call pipeline service.
//
// Configuration is loaded from a YAML file (see pkg/config for the
// discovery order) with FREITEXT_* environment overrides. The -config
// flag sets an explicit file path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/freitext-dev/freitext/pkg/auth"
	"github.com/freitext-dev/freitext/pkg/config"
	"github.com/freitext-dev/freitext/pkg/detect"
	"github.com/freitext-dev/freitext/pkg/engine"
	"github.com/freitext-dev/freitext/pkg/executor"
	executormcp "github.com/freitext-dev/freitext/pkg/executor/mcp"
	"github.com/freitext-dev/freitext/pkg/format"
	"github.com/freitext-dev/freitext/pkg/provider"
	"github.com/freitext-dev/freitext/pkg/provider/openaicompat"
	"github.com/freitext-dev/freitext/pkg/registry"
	registrymemory "github.com/freitext-dev/freitext/pkg/registry/memory"
	registrypostgres "github.com/freitext-dev/freitext/pkg/registry/postgres"
	transporthttp "github.com/freitext-dev/freitext/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	setupLogging(cfg.Observability.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Registry.
	reg, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	// Executor with HTTP and MCP invokers.
	var signer *executor.ServiceTokenSigner
	if cfg.Executor.ServiceTokenKey != "" {
		signer = executor.NewServiceTokenSigner([]byte(cfg.Executor.ServiceTokenKey), "freitext", cfg.Executor.ServiceTokenTTL)
	}
	mcpInvoker := executormcp.NewInvoker(cfg.Executor.MCPHeaders)
	defer mcpInvoker.Close()

	exec := executor.New(
		[]executor.Invoker{
			executor.NewHTTPInvoker(nil, signer),
			mcpInvoker,
		},
		reg,
		executor.Config{
			Timeout:  cfg.Executor.Timeout,
			Parallel: cfg.Executor.Parallel,
		},
	)

	// Detector with the configured intent gate.
	var gate *detect.IntentGate
	if cfg.Gate.Enabled {
		gate = detect.NewIntentGate(gateConfig(cfg.Gate))
	}
	detector := detect.New(nil, gate)

	// Formatter with optional file-backed mappings and hot reload.
	store, err := buildMappingStore(ctx, cfg)
	if err != nil {
		return err
	}
	factory := format.NewFactory(store)

	// Model backend for the secondary pass.
	var prov provider.Provider
	if cfg.Provider.BackendURL != "" {
		client := openaicompat.NewClient(cfg.Provider.Name, cfg.Provider.BackendURL, cfg.Provider.APIKey, cfg.Provider.Timeout)
		defer client.Close()
		prov = client
		slog.Info("secondary pass enabled", "backend", cfg.Provider.BackendURL, "model", cfg.Provider.Model)
	} else {
		slog.Info("secondary pass disabled, formatted reports are returned directly")
	}

	orchestrator := engine.New(detector, reg, exec, factory, prov, engine.Config{
		Model:               cfg.Provider.Model,
		CompletenessMarkers: cfg.Summary.CompletenessMarkers,
		MinReportLength:     cfg.Summary.MinReportLength,
		MaxSummarySentences: cfg.Summary.MaxSentences,
		SummaryMaxTokens:    cfg.Summary.MaxTokens,
		SummaryTimeout:      cfg.Summary.Timeout,
	})

	// HTTP surface.
	handler := transporthttp.NewHandler(orchestrator, factory)
	routes := handler.Routes(cfg.Observability.Metrics)

	middlewares := []transporthttp.Middleware{
		transporthttp.Recovery(),
		transporthttp.RequestID(),
		transporthttp.Logging(slog.Default()),
	}
	if cfg.Auth.Type == "apikey" {
		var keys []auth.Key
		for _, k := range cfg.Auth.APIKeys {
			keys = append(keys, auth.Key{Name: k.Name, Key: k.Key})
		}
		middlewares = append(middlewares, auth.NewAPIKey(keys).Middleware)
	}

	srv := transporthttp.NewServer(
		transporthttp.Chain(routes, middlewares...),
		transporthttp.ServerConfig{
			Addr:            fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			Logger:          slog.Default(),
		},
	)

	return srv.ListenAndServe()
}

// buildRegistry creates the configured registry backend and performs
// an initial load so startup fails fast on a bad connection.
func buildRegistry(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	var provider registry.Provider

	switch cfg.Registry.Type {
	case "postgres":
		p, err := registrypostgres.New(ctx, registrypostgres.Config{
			DSN:             cfg.Registry.Postgres.DSN,
			MaxConns:        cfg.Registry.Postgres.MaxConns,
			MinConns:        cfg.Registry.Postgres.MinConns,
			MaxConnLifetime: cfg.Registry.Postgres.MaxConnLifetime,
			MigrateOnStart:  cfg.Registry.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres registry: %w", err)
		}
		provider = p
		slog.Info("registry enabled", "type", "postgres")

	default:
		provider = registrymemory.New(cfg.Registry.Tools)
		slog.Info("registry enabled", "type", "memory", "tools", len(cfg.Registry.Tools))
	}

	reg := registry.New(provider, cfg.Registry.RefreshInterval)

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := reg.Refresh(loadCtx); err != nil {
		return nil, fmt.Errorf("initial registry load: %w", err)
	}
	return reg, nil
}

// buildMappingStore creates the field-mapping store, starting the hot
// reload watcher when configured.
func buildMappingStore(ctx context.Context, cfg *config.Config) (*format.Store, error) {
	if cfg.Formatter.MappingsPath == "" {
		return format.NewStore(), nil
	}

	store, err := format.NewStoreFromFile(cfg.Formatter.MappingsPath)
	if err != nil {
		return nil, err
	}
	if cfg.Formatter.HotReload {
		go func() {
			if err := store.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("field mapping watcher stopped", "error", err)
			}
		}()
		slog.Info("field mapping hot reload enabled", "path", cfg.Formatter.MappingsPath)
	}
	return store, nil
}

func gateConfig(gc config.GateConfig) detect.GateConfig {
	dc := detect.DefaultGateConfig()
	if gc.MinQuestionLength > 0 {
		dc.MinQuestionLength = gc.MinQuestionLength
	}
	if len(gc.TheoryPatterns) > 0 {
		dc.TheoryPatterns = gc.TheoryPatterns
	}
	if len(gc.FileAnalysisPhrases) > 0 {
		dc.FileAnalysisPhrases = gc.FileAnalysisPhrases
	}
	return dc
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
