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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/pkg/knowledge"
	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
)

// DefaultTopK is the number of knowledge documents retrieved per question.
const DefaultTopK = 3

// KnowledgeSearcher is the retrieval seam for the RAG agent.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, topK int, category string) ([]knowledge.Hit, error)
}

// RAGAgent answers informational questions grounded in retrieved ocean
// science documents. It degrades rather than fails: a broken search falls
// back to an un-grounded answer, a broken model call falls back to a
// fixed apology. Run never returns an error.
type RAGAgent struct {
	llm        llmtypes.LLMProvider
	searcher   KnowledgeSearcher
	topK       int
	maxRetries int
	logger     *zap.Logger
}

// RAGConfig holds the retrieval settings for a RAGAgent.
type RAGConfig struct {
	TopK          int
	MaxLLMRetries int
	Logger        *zap.Logger
}

// NewRAGAgent builds a retrieval agent over a provider and a knowledge
// searcher.
func NewRAGAgent(llm llmtypes.LLMProvider, searcher KnowledgeSearcher, cfg RAGConfig) *RAGAgent {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxLLMRetries <= 0 {
		cfg.MaxLLMRetries = DefaultMaxLLMRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &RAGAgent{
		llm:        llm,
		searcher:   searcher,
		topK:       cfg.TopK,
		maxRetries: cfg.MaxLLMRetries,
		logger:     cfg.Logger,
	}
}

// Run answers the latest user question in the state and appends the
// answer to the message list.
func (r *RAGAgent) Run(ctx context.Context, state *State) string {
	question := state.LastUserMessage()
	if question == "" {
		return "I didn't receive a question. Could you please ask again?"
	}

	contextBlock := r.retrieveContext(ctx, question)
	system := fmt.Sprintf(ragSystemPrompt, contextBlock)

	resp, err := chatWithRetry(ctx, r.llm, withSystem(system, state.Messages), nil, r.maxRetries, r.logger)
	if err != nil {
		r.logger.Error("rag answer failed", zap.Error(err))
		return apologyText
	}
	state.Usage.Add(resp.Usage)
	state.Messages = append(state.Messages, llmtypes.Message{
		Role:      "assistant",
		Content:   resp.Content,
		Timestamp: time.Now(),
	})
	return resp.Content
}

// retrieveContext formats search hits as a context block, one
// "[category] content" entry per hit.
func (r *RAGAgent) retrieveContext(ctx context.Context, question string) string {
	hits, err := r.searcher.Search(ctx, question, r.topK, "")
	if err != nil {
		r.logger.Warn("knowledge search failed, answering without context", zap.Error(err))
		return "No relevant documents found."
	}
	if len(hits) == 0 {
		return "No relevant documents found."
	}

	parts := make([]string, len(hits))
	for i, hit := range hits {
		parts[i] = fmt.Sprintf("[%s] %s", hit.Category, hit.Content)
	}
	return strings.Join(parts, "\n\n")
}
