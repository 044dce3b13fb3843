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
	"strings"

	"go.uber.org/zap"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
)

// Classifier decides which pipeline branch handles a message. The model
// classifies; keyword heuristics back it up when the model misbehaves or
// the call fails, so classification itself never fails.
type Classifier struct {
	llm    llmtypes.LLMProvider
	logger *zap.Logger
}

// NewClassifier builds a classifier over the given provider.
func NewClassifier(llm llmtypes.LLMProvider, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{llm: llm, logger: logger}
}

// Classify returns the intent for a user message along with the token
// usage of the classification call (zero when the call failed and the
// heuristics answered).
func (c *Classifier) Classify(ctx context.Context, message string) (Intent, llmtypes.Usage) {
	resp, err := c.llm.Chat(ctx, []llmtypes.Message{
		{Role: "system", Content: classifierPrompt},
		{Role: "user", Content: message},
	}, nil)
	if err != nil {
		c.logger.Warn("intent classification call failed, using heuristics", zap.Error(err))
		return heuristicIntent(message), llmtypes.Usage{}
	}

	label := strings.ToLower(strings.TrimSpace(resp.Content))
	label = strings.Trim(label, `"'`)
	if intent := Intent(label); validIntents[intent] {
		return intent, resp.Usage
	}

	c.logger.Debug("classifier returned unexpected label, using heuristics",
		zap.String("label", label))
	return heuristicIntent(message), resp.Usage
}

// Keyword tables for the heuristic fallback. Data keywords are checked
// first: "show me temperature" is a data request, not a chart request.
var (
	dataKeywords = []string{
		"temperature", "salinity", "depth", "pressure", "oxygen",
		"average", "mean", "compare", "data",
	}
	vizKeywords  = []string{"plot", "chart", "graph", "map", "visualiz"}
	infoKeywords = []string{"what is", "explain", "tell me about", "describe"}
)

func heuristicIntent(message string) Intent {
	lower := strings.ToLower(message)
	words := strings.Fields(lower)

	if containsAny(lower, dataKeywords) {
		return IntentData
	}
	if containsAny(lower, vizKeywords) {
		return IntentViz
	}
	if hasWord(words, "show") {
		return IntentData
	}
	if containsAny(lower, infoKeywords) {
		return IntentInfo
	}
	if hasWord(words, "how") {
		return IntentInfo
	}
	return IntentClarify
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasWord(words []string, want string) bool {
	for _, w := range words {
		if w == want {
			return true
		}
	}
	return false
}
