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
// Package agent implements the chat pipeline: an intent classifier, a
// supervisor that routes to sub-agents, a data-query agent running a
// bounded tool loop, a retrieval agent over the knowledge base, and a
// visualization agent. One State value is created per chat message and
// threaded through the pipeline explicitly.
package agent

import (
	"time"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/tool"
	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

// Intent is the classified purpose of a user message.
type Intent string

const (
	// IntentInfo is a general question about Argo or oceanography.
	IntentInfo Intent = "info"
	// IntentData is a request for specific data, measurements, or statistics.
	IntentData Intent = "data"
	// IntentViz is an explicit request for a chart, plot, or map.
	IntentViz Intent = "viz"
	// IntentClarify marks a message too ambiguous to route.
	IntentClarify Intent = "clarify"
)

var validIntents = map[Intent]bool{
	IntentInfo:    true,
	IntentData:    true,
	IntentViz:     true,
	IntentClarify: true,
}

// State carries everything one chat message accumulates on its way
// through the pipeline. It is created by the supervisor, passed to each
// sub-agent in turn, and discarded after the response is assembled.
type State struct {
	// Messages is the append-only conversation: prior history, the
	// current user message, and whatever the agents add.
	Messages []llmtypes.Message

	// Intent set by the classifier.
	Intent Intent

	// Path records the pipeline nodes visited, in order.
	Path []string

	// Visualization set by the visualization agent, nil otherwise.
	Visualization *visualization.Visualization

	// Usage accumulates token counts across every model call made on
	// behalf of this message.
	Usage llmtypes.Usage

	results map[string]*tool.Result
	order   []string
}

// NewState builds the state for one user message on top of prior history.
func NewState(history []llmtypes.Message, userMessage string) *State {
	messages := make([]llmtypes.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llmtypes.Message{
		Role:      "user",
		Content:   userMessage,
		Timestamp: time.Now(),
	})
	return &State{
		Messages: messages,
		results:  make(map[string]*tool.Result),
	}
}

// Visit appends a node name to the routing path.
func (s *State) Visit(node string) {
	s.Path = append(s.Path, node)
}

// AddResult stores a tool result under its round-qualified key,
// preserving insertion order for later chart inference.
func (s *State) AddResult(key string, result *tool.Result) {
	if _, exists := s.results[key]; !exists {
		s.order = append(s.order, key)
	}
	s.results[key] = result
}

// Result returns the stored result for a key.
func (s *State) Result(key string) (*tool.Result, bool) {
	r, ok := s.results[key]
	return r, ok
}

// ResultCount returns the number of accumulated tool results.
func (s *State) ResultCount() int {
	return len(s.results)
}

// OrderedResults returns the accumulated tool results in insertion order,
// in the form the visualization inference consumes.
func (s *State) OrderedResults() []visualization.SourceResult {
	out := make([]visualization.SourceResult, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, visualization.SourceResult{Name: key, Result: s.results[key]})
	}
	return out
}

// LastUserMessage returns the content of the most recent user message,
// or "" when there is none.
func (s *State) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "user" && s.Messages[i].ToolUseID == "" {
			return s.Messages[i].Content
		}
	}
	return ""
}
