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
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

const (
	// DefaultMaxToolRounds bounds the tool loop.
	DefaultMaxToolRounds = 5
	// DefaultMaxLLMRetries bounds retry attempts per model call.
	DefaultMaxLLMRetries = 3
)

// QueryAgent translates natural language into tool calls against the
// Argo data layer. It runs a bounded loop: the model requests tools, the
// executor runs them, results feed back as messages, and the loop ends
// when the model answers in text or the round bound forces a summary.
type QueryAgent struct {
	llm        llmtypes.LLMProvider
	executor   *tool.Executor
	maxRounds  int
	maxRetries int
	logger     *zap.Logger
}

// QueryConfig holds the loop bounds for a QueryAgent.
type QueryConfig struct {
	MaxToolRounds int
	MaxLLMRetries int
	Logger        *zap.Logger
}

// NewQueryAgent builds a query agent over a provider and a tool executor.
func NewQueryAgent(llm llmtypes.LLMProvider, executor *tool.Executor, cfg QueryConfig) *QueryAgent {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.MaxLLMRetries <= 0 {
		cfg.MaxLLMRetries = DefaultMaxLLMRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &QueryAgent{
		llm:        llm,
		executor:   executor,
		maxRounds:  cfg.MaxToolRounds,
		maxRetries: cfg.MaxLLMRetries,
		logger:     cfg.Logger,
	}
}

// Run executes the tool loop, appending every assistant and tool message
// to the state, and returns the final answer text. Tool results accumulate
// in the state under "<tool>_round<N>" keys for chart inference.
func (q *QueryAgent) Run(ctx context.Context, state *State) (string, error) {
	messages := state.Messages
	tools := q.executor.Tools()

	for round := 1; round <= q.maxRounds; round++ {
		resp, err := chatWithRetry(ctx, q.llm, withSystem(querySystemPrompt, messages), tools, q.maxRetries, q.logger)
		if err != nil {
			return "", fmt.Errorf("query round %d: %w", round, err)
		}
		state.Usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			messages = append(messages, llmtypes.Message{
				Role:      "assistant",
				Content:   resp.Content,
				Timestamp: time.Now(),
			})
			state.Messages = messages
			return resp.Content, nil
		}

		messages = append(messages, llmtypes.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: time.Now(),
		})

		// Tools run sequentially; a failure becomes a structured result
		// the model can read, never an abort.
		for _, call := range resp.ToolCalls {
			result := q.executor.Execute(ctx, call.Name, call.Input)
			key := fmt.Sprintf("%s_round%d", call.Name, round)
			state.AddResult(key, result)

			q.logger.Debug("tool executed",
				zap.String("tool", call.Name),
				zap.Int("round", round),
				zap.Bool("success", result.Success),
				zap.Int64("elapsed_ms", result.ExecutionTimeMs),
			)

			messages = append(messages, llmtypes.Message{
				Role:       "tool",
				Content:    encodeResult(result),
				ToolUseID:  call.ID,
				ToolResult: result,
				Timestamp:  time.Now(),
			})
		}
	}

	// Round bound reached. One last call with tools withheld forces the
	// model to summarize what it has.
	q.logger.Info("tool round bound reached, forcing summary",
		zap.Int("rounds", q.maxRounds),
		zap.Int("results", state.ResultCount()),
	)
	resp, err := chatWithRetry(ctx, q.llm, withSystem(summarySystemPrompt, messages), nil, q.maxRetries, q.logger)
	if err != nil {
		return "", fmt.Errorf("forced summary: %w", err)
	}
	state.Usage.Add(resp.Usage)

	messages = append(messages, llmtypes.Message{
		Role:      "assistant",
		Content:   resp.Content,
		Timestamp: time.Now(),
	})
	state.Messages = messages
	return resp.Content, nil
}

// withSystem prepends a system message without mutating the input slice.
func withSystem(prompt string, messages []llmtypes.Message) []llmtypes.Message {
	out := make([]llmtypes.Message, 0, len(messages)+1)
	out = append(out, llmtypes.Message{Role: "system", Content: prompt})
	out = append(out, messages...)
	return out
}

// encodeResult serializes a tool result for the model. Results are built
// from JSON-safe values; if one somehow is not, the model gets told so
// instead of the loop breaking.
func encodeResult(result *tool.Result) string {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":{"code":"unserializable_result","message":%q}}`, err.Error())
	}
	return string(raw)
}
