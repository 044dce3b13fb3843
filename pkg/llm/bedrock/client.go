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

// Package bedrock implements the LLMProvider interface for Claude models
// served through AWS Bedrock, using the official Anthropic SDK with its
// Bedrock backend for request signing and endpoint routing.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// Default Bedrock configuration values. Can be overridden via environment
// variables AWS_BEDROCK_MODEL_ID and AWS_DEFAULT_REGION.
const (
	// DefaultModelID uses Claude Sonnet 4.5 with a cross-region inference
	// profile (us.* prefix).
	DefaultModelID     = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"
	DefaultRegion      = "us-west-2"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 1.0
)

// Config holds configuration for the Bedrock client.
type Config struct {
	// AWS configuration.
	Region          string // e.g. us-east-1, us-west-2
	AccessKeyID     string // optional: if not using IAM role/profile
	SecretAccessKey string // optional: if not using IAM role/profile
	SessionToken    string // optional: for temporary credentials
	Profile         string // optional: AWS profile name from ~/.aws/config

	// Model configuration.
	ModelID     string  // Default: us.anthropic.claude-sonnet-4-5-20250929-v1:0
	MaxTokens   int     // Default: 4096
	Temperature float64 // Default: 1.0
}

// Client implements the LLMProvider interface using the Anthropic SDK with
// a Bedrock backend.
type Client struct {
	client      anthropic.Client
	modelID     string
	region      string
	maxTokens   int64
	temperature float64
}

// NewClient creates a new Bedrock client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ModelID == "" {
		if envModel := os.Getenv("AWS_BEDROCK_MODEL_ID"); envModel != "" {
			cfg.ModelID = envModel
		} else {
			cfg.ModelID = DefaultModelID
		}
	}
	if cfg.Region == "" {
		if envRegion := os.Getenv("AWS_DEFAULT_REGION"); envRegion != "" {
			cfg.Region = envRegion
		} else {
			cfg.Region = DefaultRegion
		}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	var awsCfg aws.Config
	var err error

	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		// Explicit credentials provided.
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			)),
		)
	case cfg.Profile != "":
		// Named profile from ~/.aws/config.
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
			config.WithSharedConfigProfile(cfg.Profile),
		)
	default:
		// Default credentials chain (IAM role, env vars, profile).
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// bedrock.WithConfig handles the AWS signing and endpoint configuration.
	client := anthropic.NewClient(
		bedrock.WithConfig(awsCfg),
	)

	return &Client{
		client:      client,
		modelID:     cfg.ModelID,
		region:      cfg.Region,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "bedrock"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.modelID
}

// Chat sends a conversation to Bedrock and returns the response.
func (c *Client) Chat(ctx context.Context, messages []llmtypes.Message, tools []tool.Tool) (*llmtypes.LLMResponse, error) {
	systemPrompt, sdkMessages := convertMessages(messages)
	if len(sdkMessages) == 0 {
		return nil, fmt.Errorf("no valid messages to send")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.modelID),
		Messages:    sdkMessages,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	if len(tools) > 0 {
		sdkTools := convertTools(tools)
		toolUnions := make([]anthropic.ToolUnionParam, len(sdkTools))
		for i := range sdkTools {
			toolUnions[i] = anthropic.ToolUnionParam{
				OfTool: &sdkTools[i],
			}
		}
		params.Tools = toolUnions
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("bedrock invocation failed: %w", err)
	}

	return convertResponse(message), nil
}

// convertMessages converts agent messages to Anthropic SDK format. Returns
// the combined system prompt and the API messages.
func convertMessages(messages []llmtypes.Message) (string, []anthropic.MessageParam) {
	var systemPrompts []string
	var sdkMessages []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			if msg.Content != "" {
				systemPrompts = append(systemPrompts, msg.Content)
			}

		case "user":
			if msg.Content != "" {
				sdkMessages = append(sdkMessages, anthropic.NewUserMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}

		case "assistant":
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input interface{} = tc.Input
				if tc.Input == nil {
					input = map[string]interface{}{}
				}
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(content) > 0 {
				sdkMessages = append(sdkMessages, anthropic.NewAssistantMessage(content...))
			}

		case "tool":
			sdkMessages = append(sdkMessages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolUseID, msg.Content, false),
			))
		}
	}

	return strings.Join(systemPrompts, "\n\n"), sdkMessages
}

// convertTools converts registry tools to Anthropic SDK format.
func convertTools(tools []tool.Tool) []anthropic.ToolParam {
	var sdkTools []anthropic.ToolParam

	for _, tl := range tools {
		sdkTool := anthropic.ToolParam{
			Name:        tl.Name(),
			Description: anthropic.String(tl.Description()),
		}

		if schema := tl.InputSchema(); schema != nil {
			// Round-trip through JSON to fill the SDK's schema param type.
			schemaMap := map[string]interface{}{
				"type":       schema.Type,
				"properties": schema.Properties,
				"required":   schema.Required,
			}
			schemaJSON, _ := json.Marshal(schemaMap)
			var inputSchema anthropic.ToolInputSchemaParam
			_ = json.Unmarshal(schemaJSON, &inputSchema)
			sdkTool.InputSchema = inputSchema
		}

		sdkTools = append(sdkTools, sdkTool)
	}

	return sdkTools
}

// convertResponse converts an Anthropic SDK response to agent format.
func convertResponse(message *anthropic.Message) *llmtypes.LLMResponse {
	llmResp := &llmtypes.LLMResponse{
		StopReason: string(message.StopReason),
		Usage: llmtypes.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}

	for _, block := range message.Content {
		switch block.Type {
		case "text":
			llmResp.Content += block.Text
		case "tool_use":
			var input map[string]interface{}
			if block.Input != nil {
				_ = json.Unmarshal(block.Input, &input)
			}
			if input == nil {
				input = map[string]interface{}{}
			}
			llmResp.ToolCalls = append(llmResp.ToolCalls, llmtypes.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		}
	}

	return llmResp
}

// Ensure Client implements LLMProvider interface.
var _ llmtypes.LLMProvider = (*Client)(nil)
