// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/chat"
	"github.com/pelagic-labs/driftchat/internal/log"
	"github.com/pelagic-labs/driftchat/internal/maintenance"
	"github.com/pelagic-labs/driftchat/internal/server"
	"github.com/pelagic-labs/driftchat/internal/session"
	"github.com/pelagic-labs/driftchat/internal/version"
	"github.com/pelagic-labs/driftchat/pkg/agent"
	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/argo/argotools"
	"github.com/pelagic-labs/driftchat/pkg/argo/erddap"
	"github.com/pelagic-labs/driftchat/pkg/knowledge"
	"github.com/pelagic-labs/driftchat/pkg/llm/factory"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the DriftChat HTTP server",
	Long: `Start the DriftChat server.

The server will:
- Connect the configured LLM provider to the agent pipeline
- Open the session store and the knowledge base
- Serve the chat and data APIs over HTTP
- Run background maintenance (session expiry sweep)

Press Ctrl+C to gracefully shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := log.Configure(config.Log.Level, config.Log.Format); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer func() { _ = log.Sync() }()
	logger := log.Logger()

	logger.Info("Starting DriftChat", zap.String("version", version.Get()))
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Info("Config file loaded", zap.String("path", used))
	} else {
		logger.Info("No config file found, using defaults + environment variables")
	}

	// LLM provider
	provider, err := factory.New(llmFactoryConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	logger.Info("LLM provider ready",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()))

	// Data layer
	manager, err := buildManager(config)
	if err != nil {
		return err
	}

	registry := tool.NewRegistry()
	argotools.RegisterAll(registry, argotools.Deps{
		Manager:       manager,
		LargeProfiles: config.Argo.LargeProfileEstimate,
		MaxProfiles:   config.Argo.MaxProfileEstimate,
	})
	executor := tool.NewExecutor(registry)
	logger.Info("Tool registry ready", zap.Int("tools", len(registry.List())))

	// Knowledge base
	kb, err := knowledge.Open(knowledge.Config{
		DBPath:    config.Knowledge.DBPath,
		CorpusDir: config.Knowledge.CorpusDir,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer func() { _ = kb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Knowledge.Watch && config.Knowledge.CorpusDir != "" {
		watcher, err := knowledge.NewWatcher(kb, knowledge.WatcherConfig{Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to create corpus watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start corpus watcher: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	// Agent pipeline
	classifier := agent.NewClassifier(provider, logger)
	ragAgent := agent.NewRAGAgent(provider, kb, agent.RAGConfig{
		TopK:          config.Knowledge.TopK,
		MaxLLMRetries: config.Agent.MaxLLMRetries,
		Logger:        logger,
	})
	queryAgent := agent.NewQueryAgent(provider, executor, agent.QueryConfig{
		MaxToolRounds: config.Agent.MaxToolRounds,
		MaxLLMRetries: config.Agent.MaxLLMRetries,
		Logger:        logger,
	})
	vizAgent := agent.NewVizAgent(provider, config.Agent.MaxLLMRetries, logger)
	supervisor := agent.NewSupervisor(classifier, ragAgent, queryAgent, vizAgent, logger)

	// Sessions and chat service
	store, err := session.NewStore(session.Config{
		Backend:     config.Sessions.Backend,
		SQLitePath:  config.Sessions.SQLitePath,
		PostgresDSN: config.Sessions.PostgresDSN,
		TTL:         time.Duration(config.Sessions.TTLMinutes) * time.Minute,
		MaxHistory:  config.Sessions.MaxHistory,
	})
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = store.Close() }()

	chatService := chat.NewService(store, supervisor, chat.Config{
		HistoryMessages:    config.Sessions.HistoryMessages,
		HistoryTokenBudget: config.Sessions.HistoryTokenBudget,
		Logger:             logger,
	})

	// Health checks
	checks := map[string]server.HealthCheck{
		"sessions": func(ctx context.Context) error {
			_, err := store.Get(ctx, "health-probe")
			if errors.Is(err, session.ErrNotFound) {
				return nil
			}
			return err
		},
		"knowledge": func(ctx context.Context) error {
			_, err := kb.Count(ctx)
			return err
		},
	}

	srv := server.New(server.Config{
		Host:               config.Server.Host,
		Port:               config.Server.Port,
		CORSOrigins:        config.Server.CORSOrigins,
		RateLimitPerMinute: config.Server.RateLimit.RequestsPerMinute,
		RateLimitEnabled:   config.Server.RateLimit.Enabled,
		Version:            version.Get(),
		Logger:             logger,
	}, chatService, manager, checks)

	// Maintenance jobs
	if config.Maintenance.Enabled {
		var warm maintenance.WarmFunc
		if config.Maintenance.PrecacheEnabled {
			warm = func(ctx context.Context) error {
				return warmCommonRegions(ctx, manager, false, logger)
			}
		}
		maint, err := maintenance.New(store, warm, maintenance.Config{
			SessionSweepSpec: config.Maintenance.SessionSweepSpec,
			PrecacheSpec:     config.Maintenance.PrecacheSpec,
			PrecacheEnabled:  config.Maintenance.PrecacheEnabled,
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("failed to build maintenance runner: %w", err)
		}
		maint.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			maint.Stop(stopCtx)
		}()
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}

// llmFactoryConfig maps the daemon config onto the provider factory.
func llmFactoryConfig(c *Config) factory.Config {
	cfg := factory.Config{
		Provider:               c.LLM.Provider,
		AnthropicAPIKey:        c.LLM.Anthropic.APIKey,
		BedrockRegion:          c.LLM.Bedrock.Region,
		BedrockAccessKeyID:     c.LLM.Bedrock.AccessKeyID,
		BedrockSecretAccessKey: c.LLM.Bedrock.SecretAccessKey,
		BedrockSessionToken:    c.LLM.Bedrock.SessionToken,
		BedrockProfile:         c.LLM.Bedrock.Profile,
		MaxTokens:              c.LLM.Anthropic.MaxTokens,
		Temperature:            c.LLM.Anthropic.Temperature,
		Timeout:                time.Duration(c.LLM.Anthropic.TimeoutSeconds) * time.Second,
	}
	if c.LLM.Provider == "bedrock" {
		cfg.Model = c.LLM.Bedrock.ModelID
	} else {
		cfg.Model = c.LLM.Anthropic.Model
	}
	return cfg
}

// buildManager constructs the data manager from the configured sources.
func buildManager(c *Config) (*argo.Manager, error) {
	primary, err := buildSource(c, c.Argo.Primary)
	if err != nil {
		return nil, err
	}

	var fallback argo.Source
	if c.Argo.Fallback != "" && c.Argo.Fallback != c.Argo.Primary {
		fallback, err = buildSource(c, c.Argo.Fallback)
		if err != nil {
			return nil, err
		}
	}

	manager, err := argo.NewManager(argo.ManagerOptions{
		Primary:      primary,
		Fallback:     fallback,
		CacheDir:     c.Argo.CacheDir,
		FetchTimeout: time.Duration(c.Argo.FetchTimeoutSeconds) * time.Second,
		LookbackDays: c.Argo.DefaultLookbackDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build data manager: %w", err)
	}
	return manager, nil
}

func buildSource(c *Config, name string) (argo.Source, error) {
	switch name {
	case "erddap":
		return erddap.NewClient(erddap.Config{
			BaseURL: c.Argo.ERDDAPURL,
			Name:    "erddap",
		}), nil
	case "gdac":
		return erddap.NewClient(erddap.Config{
			BaseURL: c.Argo.GDACURL,
			Name:    "gdac",
		}), nil
	default:
		return nil, fmt.Errorf("unknown data source %q (want erddap or gdac)", name)
	}
}
