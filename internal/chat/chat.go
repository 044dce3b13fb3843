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

// Package chat owns one conversation turn end to end: it resolves the
// session, replays a bounded window of stored history to the agent
// pipeline, and persists both sides of the exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/session"
	"github.com/pelagic-labs/driftchat/pkg/agent"
	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

// ErrEmptyMessage is returned when a message is blank after trimming.
var ErrEmptyMessage = errors.New("message is empty")

// Per-message framing overhead (role plus structure) added on top of
// the content tokens when sizing the history window.
const messageOverheadTokens = 10

// Pipeline runs one user message through the agent graph.
type Pipeline interface {
	Handle(ctx context.Context, userMessage string, history []llmtypes.Message) *agent.Response
}

// Config tunes how much stored history is replayed to the model.
type Config struct {
	// HistoryMessages caps how many stored messages are replayed.
	// Zero means 10.
	HistoryMessages int

	// HistoryTokenBudget caps the replayed window in tokens.
	// Zero means 3000.
	HistoryTokenBudget int

	Logger *zap.Logger
}

// Service coordinates sessions, history, and the agent pipeline.
type Service struct {
	store    session.Store
	pipeline Pipeline
	counter  *TokenCounter

	historyMessages    int
	historyTokenBudget int

	logger *zap.Logger
}

// NewService builds the chat service.
func NewService(store session.Store, pipeline Pipeline, cfg Config) *Service {
	if cfg.HistoryMessages <= 0 {
		cfg.HistoryMessages = 10
	}
	if cfg.HistoryTokenBudget <= 0 {
		cfg.HistoryTokenBudget = 3000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		store:              store,
		pipeline:           pipeline,
		counter:            GetTokenCounter(),
		historyMessages:    cfg.HistoryMessages,
		historyTokenBudget: cfg.HistoryTokenBudget,
		logger:             cfg.Logger,
	}
}

// Result is one completed chat turn.
type Result struct {
	SessionID     string
	MessageID     string
	Response      string
	Intent        string
	AgentPath     []string
	Visualization *visualization.Visualization
	Timestamp     time.Time
	Usage         llmtypes.Usage
}

// Send runs one user message through the pipeline. An empty or expired
// sessionID starts a fresh session; the returned SessionID is
// authoritative.
func (s *Service) Send(ctx context.Context, sessionID, message string) (*Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	sess, created, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var history []llmtypes.Message
	if !created {
		stored, err := s.store.History(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		history = s.historyWindow(stored)
	}

	if err := s.store.AppendMessage(ctx, sess.ID, session.Message{
		Role:    "user",
		Content: message,
	}); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	resp := s.pipeline.Handle(ctx, message, history)

	// A declared "none" chart carries no figure and is not surfaced.
	viz := resp.Visualization
	if viz != nil && viz.PlotlyJSON == nil {
		viz = nil
	}

	assistant := session.Message{
		ID:            uuid.NewString(),
		Role:          "assistant",
		Content:       resp.Content,
		Intent:        string(resp.Intent),
		Visualization: viz,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, sess.ID, assistant); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}

	s.logger.Info("chat turn complete",
		zap.String("session_id", sess.ID),
		zap.String("intent", string(resp.Intent)),
		zap.Strings("agent_path", resp.AgentPath),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)

	return &Result{
		SessionID:     sess.ID,
		MessageID:     assistant.ID,
		Response:      resp.Content,
		Intent:        string(resp.Intent),
		AgentPath:     resp.AgentPath,
		Visualization: viz,
		Timestamp:     assistant.CreatedAt,
		Usage:         resp.Usage,
	}, nil
}

// History returns a session's metadata and stored messages.
func (s *Service) History(ctx context.Context, sessionID string) (*session.Session, []session.Message, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.store.History(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess, messages, nil
}

// DeleteSession removes a session and its history.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) ensureSession(ctx context.Context, id string) (*session.Session, bool, error) {
	if id != "" {
		sess, err := s.store.Get(ctx, id)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, false, fmt.Errorf("load session: %w", err)
		}
		s.logger.Debug("session not found, starting a new one",
			zap.String("session_id", id))
	}

	sess, err := s.store.Create(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}
	return sess, true, nil
}

// historyWindow converts the most recent stored messages into model
// messages, keeping at most historyMessages entries and dropping from
// the oldest end until the window fits the token budget.
func (s *Service) historyWindow(stored []session.Message) []llmtypes.Message {
	if len(stored) > s.historyMessages {
		stored = stored[len(stored)-s.historyMessages:]
	}

	// Walk newest-first so the latest turns survive trimming.
	total := 0
	start := 0
	for i := len(stored) - 1; i >= 0; i-- {
		cost := s.counter.CountTokens(stored[i].Content) + messageOverheadTokens
		if total+cost > s.historyTokenBudget {
			start = i + 1
			break
		}
		total += cost
	}

	window := stored[start:]
	if len(window) == 0 {
		return nil
	}
	out := make([]llmtypes.Message, 0, len(window))
	for _, msg := range window {
		out = append(out, llmtypes.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
		})
	}
	return out
}
