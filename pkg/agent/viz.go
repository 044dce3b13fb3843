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
	"strings"

	"go.uber.org/zap"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

// VizAgent attaches a chart to the state. Structured tool results are
// charted directly; only when nothing matches does the agent ask the
// model for a Plotly spec, and a spec that fails to parse or validate
// becomes the declared "none" chart rather than an error.
type VizAgent struct {
	llm        llmtypes.LLMProvider
	maxRetries int
	logger     *zap.Logger
}

// NewVizAgent builds a visualization agent over a provider.
func NewVizAgent(llm llmtypes.LLMProvider, maxRetries int, logger *zap.Logger) *VizAgent {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxLLMRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VizAgent{llm: llm, maxRetries: maxRetries, logger: logger}
}

// Run sets state.Visualization. It always sets something: a chart
// inferred from tool results, a model-generated chart, or "none".
func (v *VizAgent) Run(ctx context.Context, state *State) {
	if viz := visualization.Infer(state.OrderedResults()); viz != nil {
		state.Visualization = viz
		return
	}
	state.Visualization = v.generateWithModel(ctx, state)
}

func (v *VizAgent) generateWithModel(ctx context.Context, state *State) *visualization.Visualization {
	payload, err := json.Marshal(resultPayload(state))
	if err != nil {
		return visualization.None("")
	}

	messages := []llmtypes.Message{
		{Role: "system", Content: vizSystemPrompt},
		{Role: "user", Content: "Generate a visualization for this data:\n" + string(payload)},
	}
	resp, err := chatWithRetry(ctx, v.llm, messages, nil, v.maxRetries, v.logger)
	if err != nil {
		v.logger.Warn("chart generation call failed", zap.Error(err))
		return visualization.None("")
	}
	state.Usage.Add(resp.Usage)

	var viz visualization.Visualization
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &viz); err != nil {
		v.logger.Debug("model chart spec did not parse", zap.Error(err))
		return visualization.None("")
	}
	if err := viz.Validate(); err != nil {
		v.logger.Debug("model chart spec invalid", zap.Error(err))
		return visualization.None("")
	}
	return &viz
}

// resultPayload flattens the accumulated tool results for the model.
func resultPayload(state *State) map[string]interface{} {
	payload := make(map[string]interface{})
	for _, sr := range state.OrderedResults() {
		payload[sr.Name] = sr.Result
	}
	return payload
}

// extractJSON pulls the outermost JSON object out of model text that may
// wrap it in prose or a fenced code block.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return content
	}
	return content[start : end+1]
}
