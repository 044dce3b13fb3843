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

// Package anthropic implements the LLMProvider interface against the
// Anthropic Messages API over plain HTTP.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

const (
	// DefaultModel is the default Claude model.
	DefaultModel = "claude-sonnet-4-5-20250929"
	// DefaultEndpoint is the default Anthropic API endpoint.
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	// DefaultMaxTokens is the default maximum tokens per request.
	DefaultMaxTokens = 4096
	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 1.0
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 60 * time.Second
)

// Client implements the LLMProvider interface for Anthropic's Claude API.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
}

// Config holds configuration for the Anthropic client.
type Config struct {
	APIKey      string
	Model       string // Default: claude-sonnet-4-5-20250929
	Endpoint    string // Default: https://api.anthropic.com/v1/messages
	Timeout     time.Duration
	MaxTokens   int     // Default: 4096
	Temperature float64 // Default: 1.0
}

// NewClient creates a new Anthropic client.
func NewClient(config Config) *Client {
	if config.Model == "" {
		if envModel := os.Getenv("ANTHROPIC_DEFAULT_MODEL"); envModel != "" {
			config.Model = envModel
		} else {
			config.Model = DefaultModel
		}
	}
	if config.Endpoint == "" {
		if envEndpoint := os.Getenv("ANTHROPIC_API_ENDPOINT"); envEndpoint != "" {
			config.Endpoint = envEndpoint
		} else {
			config.Endpoint = DefaultEndpoint
		}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Temperature == 0 {
		config.Temperature = DefaultTemperature
	}

	return &Client{
		apiKey:      config.APIKey,
		model:       config.Model,
		endpoint:    config.Endpoint,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "anthropic"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// Chat sends a conversation to Claude and returns the response.
func (c *Client) Chat(ctx context.Context, messages []llmtypes.Message, tools []tool.Tool) (*llmtypes.LLMResponse, error) {
	systemPrompt, apiMessages := convertMessages(messages)

	req := &MessagesRequest{
		Model:       c.model,
		Messages:    apiMessages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	// The Messages API requires system prompts as a separate field, not in
	// the messages array.
	if len(systemPrompt) > 0 {
		req.System = systemPrompt
	}

	if apiTools := convertTools(tools); len(apiTools) > 0 {
		req.Tools = apiTools
	}

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	return convertResponse(resp), nil
}

// convertMessages converts agent messages to Anthropic format. Returns the
// system prompt blocks (with cache_control on the block so repeated calls
// in a tool loop reuse the cached prefix) and the API messages.
func convertMessages(messages []llmtypes.Message) ([]TextBlockParam, []Message) {
	var systemPrompts []string
	var apiMessages []Message

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			if msg.Content != "" {
				systemPrompts = append(systemPrompts, msg.Content)
			}

		case "user":
			apiMessages = append(apiMessages, Message{
				Role: "user",
				Content: []ContentBlock{
					{Type: "text", Text: msg.Content},
				},
			})

		case "assistant":
			var content []ContentBlock
			if msg.Content != "" {
				content = append(content, ContentBlock{
					Type: "text",
					Text: msg.Content,
				})
			}
			for _, tc := range msg.ToolCalls {
				input := tc.Input
				if input == nil {
					input = map[string]interface{}{}
				}
				content = append(content, ContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			if len(content) > 0 {
				apiMessages = append(apiMessages, Message{
					Role:    "assistant",
					Content: content,
				})
			}

		case "tool":
			// Tool results go back as user messages with a tool_result block.
			apiMessages = append(apiMessages, Message{
				Role: "user",
				Content: []ContentBlock{
					{
						Type:      "tool_result",
						ToolUseID: msg.ToolUseID,
						Content:   msg.Content,
					},
				},
			})
		}
	}

	if len(systemPrompts) == 0 {
		return nil, apiMessages
	}
	systemBlocks := []TextBlockParam{
		{
			Type:         "text",
			Text:         strings.Join(systemPrompts, "\n\n"),
			CacheControl: &CacheControl{Type: "ephemeral"},
		},
	}
	return systemBlocks, apiMessages
}

// convertTools converts registry tools to Anthropic format. The last tool
// is marked with cache_control so the entire tool list is cached; Anthropic
// caches everything up to and including the marked breakpoint.
func convertTools(tools []tool.Tool) []Tool {
	var apiTools []Tool

	for _, tl := range tools {
		apiTool := Tool{
			Name:        tl.Name(),
			Description: tl.Description(),
		}
		if schema := tl.InputSchema(); schema != nil {
			apiTool.InputSchema = InputSchema{
				Type:       schema.Type,
				Properties: convertSchemaProperties(schema.Properties),
				Required:   schema.Required,
			}
		}
		apiTools = append(apiTools, apiTool)
	}

	if len(apiTools) > 0 {
		apiTools[len(apiTools)-1].CacheControl = &CacheControl{Type: "ephemeral"}
	}

	return apiTools
}

// convertSchemaProperties converts JSONSchema properties to Anthropic format.
func convertSchemaProperties(props map[string]*tool.JSONSchema) map[string]map[string]interface{} {
	if props == nil {
		return nil
	}

	result := make(map[string]map[string]interface{})
	for key, schema := range props {
		propMap := make(map[string]interface{})
		propMap["type"] = schema.Type

		if schema.Description != "" {
			propMap["description"] = schema.Description
		}
		if schema.Enum != nil {
			propMap["enum"] = schema.Enum
		}
		if schema.Default != nil {
			propMap["default"] = schema.Default
		}
		if schema.Minimum != nil {
			propMap["minimum"] = *schema.Minimum
		}
		if schema.Maximum != nil {
			propMap["maximum"] = *schema.Maximum
		}
		if schema.MinItems != nil {
			propMap["minItems"] = *schema.MinItems
		}
		if schema.MaxItems != nil {
			propMap["maxItems"] = *schema.MaxItems
		}
		if schema.Properties != nil {
			propMap["properties"] = convertSchemaProperties(schema.Properties)
		}
		if schema.Items != nil {
			propMap["items"] = map[string]interface{}{
				"type": schema.Items.Type,
			}
		}

		result[key] = propMap
	}
	return result
}

// convertResponse converts an Anthropic response to agent format.
func convertResponse(resp *MessagesResponse) *llmtypes.LLMResponse {
	llmResp := &llmtypes.LLMResponse{
		StopReason: resp.StopReason,
		Usage: llmtypes.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			llmResp.Content += block.Text

		case "tool_use":
			llmResp.ToolCalls = append(llmResp.ToolCalls, llmtypes.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}

	return llmResp
}

// callAPI makes the HTTP request to Anthropic's API.
func (c *Client) callAPI(ctx context.Context, req *MessagesRequest) (*MessagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp MessagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &resp, nil
}

// Ensure Client implements LLMProvider interface.
var _ llmtypes.LLMProvider = (*Client)(nil)
