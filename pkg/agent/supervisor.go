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

	"go.uber.org/zap"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

// Pipeline node names, recorded in the routing path.
const (
	NodeSupervisor  = "supervisor"
	NodeRAG         = "rag"
	NodeQuery       = "query"
	NodeQueryForViz = "query_for_viz"
	NodeViz         = "viz"
	NodeClarify     = "clarify"
)

// Response is the assembled outcome of one chat message.
type Response struct {
	// Content is the sanitized answer text.
	Content string

	// Intent the message was classified as.
	Intent Intent

	// AgentPath lists the pipeline nodes visited, in order.
	AgentPath []string

	// Visualization is non-nil when the viz branch produced a chart
	// (including the declared "none" chart).
	Visualization *visualization.Visualization

	// Usage totals token consumption across all model calls.
	Usage llmtypes.Usage
}

// Supervisor owns the pipeline: it classifies the message, routes it to
// the matching sub-agent chain, sanitizes the final text, and assembles
// the response. Sub-agent failures degrade to apology text; Handle
// always returns a usable response.
type Supervisor struct {
	classifier *Classifier
	rag        *RAGAgent
	query      *QueryAgent
	viz        *VizAgent
	logger     *zap.Logger
}

// NewSupervisor wires the pipeline together.
func NewSupervisor(classifier *Classifier, rag *RAGAgent, query *QueryAgent, viz *VizAgent, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		classifier: classifier,
		rag:        rag,
		query:      query,
		viz:        viz,
		logger:     logger,
	}
}

// Handle runs one user message through the pipeline.
//
// Routing: info goes to the retrieval agent, data to the query agent,
// viz to the query agent and then the visualization agent, everything
// else to a fixed clarification answer.
func (s *Supervisor) Handle(ctx context.Context, userMessage string, history []llmtypes.Message) *Response {
	state := NewState(history, userMessage)
	state.Visit(NodeSupervisor)

	intent, usage := s.classifier.Classify(ctx, userMessage)
	state.Intent = intent
	state.Usage.Add(usage)
	s.logger.Info("intent classified",
		zap.String("intent", string(state.Intent)),
		zap.Int("history_messages", len(history)),
	)

	var content string
	switch state.Intent {
	case IntentInfo:
		state.Visit(NodeRAG)
		content = s.rag.Run(ctx, state)

	case IntentData:
		state.Visit(NodeQuery)
		content = s.runQuery(ctx, state)

	case IntentViz:
		state.Visit(NodeQueryForViz)
		content = s.runQuery(ctx, state)
		state.Visit(NodeViz)
		s.viz.Run(ctx, state)

	default:
		state.Visit(NodeClarify)
		content = clarifyText
	}

	return &Response{
		Content:       Sanitize(content),
		Intent:        state.Intent,
		AgentPath:     state.Path,
		Visualization: state.Visualization,
		Usage:         state.Usage,
	}
}

// runQuery degrades query-agent errors to apology text so the pipeline
// always produces an answer.
func (s *Supervisor) runQuery(ctx context.Context, state *State) string {
	content, err := s.query.Run(ctx, state)
	if err != nil {
		s.logger.Error("query agent failed", zap.Error(err))
		return apologyText
	}
	return content
}
