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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigFileName is the config file searched for when --config
// is not given.
const DefaultConfigFileName = "driftchat"

// Config is the full daemon configuration, loaded from (in order of
// precedence) flags, DRIFTCHAT_* environment variables, the config
// file, and defaults.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Argo        ArgoConfig        `mapstructure:"argo"`
	Sessions    SessionsConfig    `mapstructure:"sessions"`
	Knowledge   KnowledgeConfig   `mapstructure:"knowledge"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host        string          `mapstructure:"host"`
	Port        int             `mapstructure:"port"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures the per-IP request budget.
type RateLimitConfig struct {
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Enabled           bool `mapstructure:"enabled"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider  string          `mapstructure:"provider"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Bedrock   BedrockConfig   `mapstructure:"bedrock"`
}

// AnthropicConfig configures the Anthropic Messages API provider.
type AnthropicConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// BedrockConfig configures the AWS Bedrock provider. Credentials may
// also come from the default AWS chain (profile, instance role).
type BedrockConfig struct {
	ModelID         string `mapstructure:"model_id"`
	Region          string `mapstructure:"region"`
	Profile         string `mapstructure:"profile"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
}

// AgentConfig bounds the agent loops.
type AgentConfig struct {
	MaxToolRounds int `mapstructure:"max_tool_rounds"`
	MaxLLMRetries int `mapstructure:"max_llm_retries"`
}

// ArgoConfig configures the data layer: sources, cache, and limits.
type ArgoConfig struct {
	CacheDir             string `mapstructure:"cache_dir"`
	Primary              string `mapstructure:"primary"`
	Fallback             string `mapstructure:"fallback"`
	ERDDAPURL            string `mapstructure:"erddap_url"`
	GDACURL              string `mapstructure:"gdac_url"`
	FetchTimeoutSeconds  int    `mapstructure:"fetch_timeout_seconds"`
	DefaultLookbackDays  int    `mapstructure:"default_lookback_days"`
	MaxProfileEstimate   int    `mapstructure:"max_profile_estimate"`
	LargeProfileEstimate int    `mapstructure:"large_profile_estimate"`
}

// SessionsConfig configures session storage and the history window.
type SessionsConfig struct {
	Backend            string `mapstructure:"backend"`
	SQLitePath         string `mapstructure:"sqlite_path"`
	PostgresDSN        string `mapstructure:"postgres_dsn"`
	TTLMinutes         int    `mapstructure:"ttl_minutes"`
	MaxHistory         int    `mapstructure:"max_history"`
	HistoryMessages    int    `mapstructure:"history_messages"`
	HistoryTokenBudget int    `mapstructure:"history_token_budget"`
}

// KnowledgeConfig configures the document store behind the RAG agent.
type KnowledgeConfig struct {
	DBPath    string `mapstructure:"db_path"`
	CorpusDir string `mapstructure:"corpus_dir"`
	Watch     bool   `mapstructure:"watch"`
	TopK      int    `mapstructure:"top_k"`
}

// MaintenanceConfig configures the background jobs.
type MaintenanceConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	SessionSweepSpec string `mapstructure:"session_sweep_spec"`
	PrecacheSpec     string `mapstructure:"precache_spec"`
	PrecacheEnabled  bool   `mapstructure:"precache_enabled"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("server.rate_limit.requests_per_minute", 20)
	viper.SetDefault("server.rate_limit.enabled", true)

	// LLM defaults
	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.anthropic.api_key", "")
	viper.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("llm.anthropic.max_tokens", 4096)
	viper.SetDefault("llm.anthropic.temperature", 1.0)
	viper.SetDefault("llm.anthropic.timeout_seconds", 60)
	viper.SetDefault("llm.bedrock.model_id", "us.anthropic.claude-sonnet-4-5-20250929-v1:0")
	viper.SetDefault("llm.bedrock.region", "us-east-1")
	viper.SetDefault("llm.bedrock.profile", "")
	viper.SetDefault("llm.bedrock.access_key_id", "")
	viper.SetDefault("llm.bedrock.secret_access_key", "")
	viper.SetDefault("llm.bedrock.session_token", "")

	// Agent loop bounds
	viper.SetDefault("agent.max_tool_rounds", 5)
	viper.SetDefault("agent.max_llm_retries", 3)

	// Argo data layer defaults
	viper.SetDefault("argo.cache_dir", "./data/argo_cache")
	viper.SetDefault("argo.primary", "erddap")
	viper.SetDefault("argo.fallback", "gdac")
	viper.SetDefault("argo.erddap_url", "https://erddap.ifremer.fr/erddap")
	viper.SetDefault("argo.gdac_url", "https://www.ncei.noaa.gov/erddap")
	viper.SetDefault("argo.fetch_timeout_seconds", 45)
	viper.SetDefault("argo.default_lookback_days", 90)
	viper.SetDefault("argo.max_profile_estimate", 50000)
	viper.SetDefault("argo.large_profile_estimate", 10000)

	// Session defaults
	viper.SetDefault("sessions.backend", "sqlite")
	viper.SetDefault("sessions.sqlite_path", "./data/sessions.db")
	viper.SetDefault("sessions.postgres_dsn", "")
	viper.SetDefault("sessions.ttl_minutes", 60)
	viper.SetDefault("sessions.max_history", 50)
	viper.SetDefault("sessions.history_messages", 10)
	viper.SetDefault("sessions.history_token_budget", 3000)

	// Knowledge base defaults
	viper.SetDefault("knowledge.db_path", "./data/knowledge.db")
	viper.SetDefault("knowledge.corpus_dir", "")
	viper.SetDefault("knowledge.watch", false)
	viper.SetDefault("knowledge.top_k", 3)

	// Maintenance defaults
	viper.SetDefault("maintenance.enabled", true)
	viper.SetDefault("maintenance.session_sweep_spec", "*/10 * * * *")
	viper.SetDefault("maintenance.precache_spec", "0 2 * * *")
	viper.SetDefault("maintenance.precache_enabled", false)

	// Logging defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// LoadConfig reads configuration from defaults, the config file, and
// the environment, in increasing precedence.
func LoadConfig(cfgFile string) (*Config, error) {
	// Secrets in .env feed the environment before viper binds it.
	// A missing .env is fine.
	_ = godotenv.Load()

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".driftchat"))
		}
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	// Read config file (if it exists)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; using defaults + env vars + flags
	}

	// Bind environment variables: DRIFTCHAT_SERVER_PORT -> server.port
	viper.SetEnvPrefix("DRIFTCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate checks the settings the serve command depends on.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}

	switch c.LLM.Provider {
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("anthropic API key is required (set llm.anthropic.api_key, DRIFTCHAT_LLM_ANTHROPIC_API_KEY, or ANTHROPIC_API_KEY)")
		}
	case "bedrock":
		if c.LLM.Bedrock.Region == "" {
			return fmt.Errorf("bedrock region is required (set llm.bedrock.region or DRIFTCHAT_LLM_BEDROCK_REGION)")
		}
		// Explicit credentials are optional: the profile or the default
		// AWS chain can supply them at runtime.
	default:
		return fmt.Errorf("unsupported llm.provider %q (want anthropic or bedrock)", c.LLM.Provider)
	}

	switch c.Sessions.Backend {
	case "", "sqlite", "memory":
	case "postgres":
		if c.Sessions.PostgresDSN == "" {
			return fmt.Errorf("sessions.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown sessions.backend %q (want sqlite, postgres, or memory)", c.Sessions.Backend)
	}

	if err := validateSource(c.Argo.Primary, "argo.primary"); err != nil {
		return err
	}
	if c.Argo.Fallback != "" {
		if err := validateSource(c.Argo.Fallback, "argo.fallback"); err != nil {
			return err
		}
	}
	return nil
}

func validateSource(name, key string) error {
	switch name {
	case "erddap", "gdac":
		return nil
	default:
		return fmt.Errorf("unknown %s %q (want erddap or gdac)", key, name)
	}
}
