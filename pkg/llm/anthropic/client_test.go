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
package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echo the input back" }
func (echoTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema("Echo parameters", map[string]*tool.JSONSchema{
		"text": tool.NewStringSchema("Text to echo"),
	}, []string{"text"})
}
func (echoTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	return &tool.Result{Success: true, Data: params}, nil
}

func textResponse(text string) MessagesResponse {
	return MessagesResponse{
		ID:         "msg_123",
		Type:       "message",
		Role:       "assistant",
		Model:      DefaultModel,
		StopReason: "end_turn",
		Content:    []ContentBlock{{Type: "text", Text: text}},
		Usage:      Usage{InputTokens: 10, OutputTokens: 20},
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key"})

	assert.Equal(t, "anthropic", client.Name())
	assert.Equal(t, DefaultModel, client.Model())
	assert.Equal(t, DefaultEndpoint, client.endpoint)
	assert.Equal(t, DefaultMaxTokens, client.maxTokens)
}

func TestClient_Chat_SimpleText(t *testing.T) {
	var gotReq MessagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(textResponse("Hello! How can I help you?"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	resp, err := client.Chat(context.Background(), []llmtypes.Message{
		{Role: "system", Content: "You are a helpful oceanographer."},
		{Role: "user", Content: "Hello"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello! How can I help you?", resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, 20, resp.Usage.OutputTokens)
	assert.Empty(t, resp.ToolCalls)

	// System messages leave the messages array and become system blocks
	// with a cache breakpoint.
	require.Len(t, gotReq.System, 1)
	assert.Equal(t, "You are a helpful oceanographer.", gotReq.System[0].Text)
	require.NotNil(t, gotReq.System[0].CacheControl)
	assert.Equal(t, "ephemeral", gotReq.System[0].CacheControl.Type)

	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestClient_Chat_WithToolCalls(t *testing.T) {
	var gotReq MessagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		resp := MessagesResponse{
			ID:         "msg_456",
			StopReason: "tool_use",
			Content: []ContentBlock{
				{Type: "text", Text: "Let me check that."},
				{
					Type:  "tool_use",
					ID:    "toolu_01",
					Name:  "echo",
					Input: map[string]interface{}{"text": "hi"},
				},
			},
			Usage: Usage{InputTokens: 30, OutputTokens: 15},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	resp, err := client.Chat(context.Background(), []llmtypes.Message{
		{Role: "user", Content: "Echo hi"},
	}, []tool.Tool{echoTool{}})
	require.NoError(t, err)

	assert.Equal(t, "Let me check that.", resp.Content)
	assert.Equal(t, "tool_use", resp.StopReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_01", resp.ToolCalls[0].ID)
	assert.Equal(t, "echo", resp.ToolCalls[0].Name)
	assert.Equal(t, "hi", resp.ToolCalls[0].Input["text"])

	// The tool definition went out with a cache breakpoint on the last tool.
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "echo", gotReq.Tools[0].Name)
	assert.Equal(t, []string{"text"}, gotReq.Tools[0].InputSchema.Required)
	require.NotNil(t, gotReq.Tools[0].CacheControl)
}

func TestClient_Chat_ToolResultRoundTrip(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(textResponse("The echo returned hi."))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	_, err := client.Chat(context.Background(), []llmtypes.Message{
		{Role: "user", Content: "Echo hi"},
		{
			Role:      "assistant",
			ToolCalls: []llmtypes.ToolCall{{ID: "toolu_01", Name: "echo", Input: nil}},
		},
		{Role: "tool", ToolUseID: "toolu_01", Content: `{"success":true}`},
	}, nil)
	require.NoError(t, err)

	// Raw JSON checks: the assistant tool_use block must carry input even
	// when empty, and the tool result becomes a user tool_result block.
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &raw))
	messages := raw["messages"].([]interface{})
	require.Len(t, messages, 3)

	assistant := messages[1].(map[string]interface{})
	assert.Equal(t, "assistant", assistant["role"])
	toolUse := assistant["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tool_use", toolUse["type"])
	assert.Equal(t, map[string]interface{}{}, toolUse["input"])

	result := messages[2].(map[string]interface{})
	assert.Equal(t, "user", result["role"])
	block := result["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tool_result", block["type"])
	assert.Equal(t, "toolu_01", block["tool_use_id"])
}

func TestClient_Chat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	_, err := client.Chat(context.Background(), []llmtypes.Message{
		{Role: "user", Content: "Hello"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate_limit_error")
}

func TestConvertSchemaProperties_Bounds(t *testing.T) {
	schema := tool.NewNumberSchema("Latitude").WithRange(-90, 90)
	props := convertSchemaProperties(map[string]*tool.JSONSchema{"lat": schema})

	assert.Equal(t, "number", props["lat"]["type"])
	assert.Equal(t, -90.0, props["lat"]["minimum"])
	assert.Equal(t, 90.0, props["lat"]["maximum"])
}
