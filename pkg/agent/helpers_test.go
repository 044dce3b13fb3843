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
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/pelagic-labs/driftchat/pkg/knowledge"
	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// scriptedLLM implements llmtypes.LLMProvider with a fixed reply queue.
// Every call is recorded so tests can assert on the prompts and tools the
// agents actually sent.
type scriptedLLM struct {
	mu    sync.Mutex
	queue []scriptedReply
	calls []scriptedCall
}

type scriptedReply struct {
	resp *llmtypes.LLMResponse
	err  error
}

type scriptedCall struct {
	messages []llmtypes.Message
	tools    []tool.Tool
}

func textReply(content string) scriptedReply {
	return scriptedReply{resp: &llmtypes.LLMResponse{
		Content:    content,
		StopReason: "end_turn",
		Usage:      llmtypes.Usage{InputTokens: 100, OutputTokens: 50},
	}}
}

func toolReply(calls ...llmtypes.ToolCall) scriptedReply {
	return scriptedReply{resp: &llmtypes.LLMResponse{
		ToolCalls:  calls,
		StopReason: "tool_use",
		Usage:      llmtypes.Usage{InputTokens: 100, OutputTokens: 50},
	}}
}

func errorReply(msg string) scriptedReply {
	return scriptedReply{err: fmt.Errorf("%s", msg)}
}

func scripted(replies ...scriptedReply) *scriptedLLM {
	return &scriptedLLM{queue: replies}
}

func (m *scriptedLLM) Chat(_ context.Context, messages []llmtypes.Message, tools []tool.Tool) (*llmtypes.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, scriptedCall{messages: messages, tools: tools})
	if len(m.queue) == 0 {
		return nil, fmt.Errorf("scripted llm: no reply for call %d", len(m.calls))
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	return next.resp, next.err
}

func (m *scriptedLLM) Name() string  { return "mock-llm" }
func (m *scriptedLLM) Model() string { return "mock-model-v1" }

func (m *scriptedLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *scriptedLLM) call(i int) scriptedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// stubTool implements tool.Tool around a function.
type stubTool struct {
	mu       sync.Mutex
	name     string
	schema   *tool.JSONSchema
	fn       func(ctx context.Context, params map[string]interface{}) (*tool.Result, error)
	executed int
}

func newStubTool(name string, fn func(ctx context.Context, params map[string]interface{}) (*tool.Result, error)) *stubTool {
	return &stubTool{
		name:   name,
		schema: tool.NewObjectSchema("stub parameters", map[string]*tool.JSONSchema{}, nil),
		fn:     fn,
	}
}

func (s *stubTool) Name() string             { return s.name }
func (s *stubTool) Description() string      { return "stub tool for tests" }
func (s *stubTool) InputSchema() *tool.JSONSchema { return s.schema }

func (s *stubTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	s.mu.Lock()
	s.executed++
	s.mu.Unlock()
	return s.fn(ctx, params)
}

func (s *stubTool) executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed
}

func newTestExecutor(tools ...tool.Tool) *tool.Executor {
	registry := tool.NewRegistry()
	for _, t := range tools {
		registry.Register(t)
	}
	return tool.NewExecutor(registry)
}

// searcherFunc adapts a function to the KnowledgeSearcher seam.
type searcherFunc func(ctx context.Context, query string, topK int, category string) ([]knowledge.Hit, error)

func (f searcherFunc) Search(ctx context.Context, query string, topK int, category string) ([]knowledge.Hit, error) {
	return f(ctx, query, topK, category)
}
