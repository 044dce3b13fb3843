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

// Package factory creates LLM providers from configuration.
package factory

import (
	"fmt"
	"os"
	"time"

	"github.com/pelagic-labs/driftchat/pkg/llm/anthropic"
	"github.com/pelagic-labs/driftchat/pkg/llm/bedrock"
	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
)

// Config holds configuration for creating LLM providers.
type Config struct {
	// Provider selects the backend: "anthropic" or "bedrock".
	Provider string
	Model    string

	// Anthropic configuration.
	AnthropicAPIKey string

	// Bedrock configuration.
	BedrockRegion          string
	BedrockAccessKeyID     string
	BedrockSecretAccessKey string
	BedrockSessionToken    string
	BedrockProfile         string

	// Common settings.
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// New creates the LLM provider named by cfg.Provider.
func New(cfg Config) (llmtypes.LLMProvider, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 1.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	switch cfg.Provider {
	case "", "anthropic":
		return newAnthropic(cfg)
	case "bedrock":
		return newBedrock(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q (want anthropic or bedrock)", cfg.Provider)
	}
}

func newAnthropic(cfg Config) (llmtypes.LLMProvider, error) {
	apiKey := cfg.AnthropicAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured (set llm.anthropic_api_key or ANTHROPIC_API_KEY)")
	}

	return anthropic.NewClient(anthropic.Config{
		APIKey:      apiKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}), nil
}

func newBedrock(cfg Config) (llmtypes.LLMProvider, error) {
	return bedrock.NewClient(bedrock.Config{
		Region:          cfg.BedrockRegion,
		AccessKeyID:     cfg.BedrockAccessKeyID,
		SecretAccessKey: cfg.BedrockSecretAccessKey,
		SessionToken:    cfg.BedrockSessionToken,
		Profile:         cfg.BedrockProfile,
		ModelID:         cfg.Model,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
	})
}
