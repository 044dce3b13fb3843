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
// Package types defines the provider-agnostic message and response types
// shared by the agents and the LLM provider implementations.
package types

import (
	"context"
	"time"

	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	// ID is the provider-assigned identifier for this call, echoed back
	// in the corresponding tool result message.
	ID string

	// Name is the tool name.
	Name string

	// Input contains the tool parameters.
	Input map[string]interface{}
}

// Message is one turn in a conversation. Role is one of "system",
// "user", "assistant", or "tool".
type Message struct {
	Role    string
	Content string

	// ToolCalls are set on assistant messages that request tool use.
	ToolCalls []ToolCall

	// ToolUseID links a tool message back to the assistant's ToolCall.
	ToolUseID string

	// ToolResult carries the structured result on tool messages.
	ToolResult *tool.Result

	// Timestamp when the message was created.
	Timestamp time.Time
}

// Usage tracks token consumption for one LLM call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates another call's usage into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// LLMResponse is the normalized response from any provider.
type LLMResponse struct {
	// Content is the text portion of the response.
	Content string

	// ToolCalls are the tool invocations requested by the model, empty
	// when the model answered with text only.
	ToolCalls []ToolCall

	// StopReason indicates why generation stopped ("end_turn",
	// "tool_use", "max_tokens", ...). Provider-specific values pass
	// through untranslated.
	StopReason string

	// Usage for this call.
	Usage Usage
}

// LLMProvider is the seam between the agents and a concrete model API.
// Passing a nil or empty tools slice disables tool use for the call.
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, tools []tool.Tool) (*LLMResponse, error)
	Name() string
	Model() string
}
