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

package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagic-labs/driftchat/internal/session"
	"github.com/pelagic-labs/driftchat/pkg/agent"
	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

type fakePipeline struct {
	lastMessage string
	lastHistory []llmtypes.Message
	calls       int
	response    *agent.Response
}

func (f *fakePipeline) Handle(_ context.Context, msg string, history []llmtypes.Message) *agent.Response {
	f.calls++
	f.lastMessage = msg
	f.lastHistory = history
	if f.response != nil {
		return f.response
	}
	return &agent.Response{
		Content:   "Argo floats are autonomous profiling instruments.",
		Intent:    agent.IntentInfo,
		AgentPath: []string{"supervisor", "rag"},
		Usage:     llmtypes.Usage{InputTokens: 42, OutputTokens: 17},
	}
}

func newTestService(t *testing.T, cfg Config) (*Service, *fakePipeline, session.Store) {
	t.Helper()
	store := session.NewMemoryStore(session.Config{})
	t.Cleanup(func() { store.Close() })

	pipeline := &fakePipeline{}
	svc := NewService(store, pipeline, cfg)
	// Force the character-based estimator so token math is deterministic.
	svc.counter = &TokenCounter{}
	return svc, pipeline, store
}

func TestSendCreatesSessionWhenMissing(t *testing.T) {
	svc, pipeline, store := newTestService(t, Config{})
	ctx := context.Background()

	result, err := svc.Send(ctx, "", "what is an argo float?")
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.MessageID)
	assert.Equal(t, "Argo floats are autonomous profiling instruments.", result.Response)
	assert.Equal(t, "info", result.Intent)
	assert.Equal(t, []string{"supervisor", "rag"}, result.AgentPath)
	assert.False(t, result.Timestamp.IsZero())
	assert.Equal(t, 42, result.Usage.InputTokens)

	// A brand-new session replays no history.
	assert.Empty(t, pipeline.lastHistory)

	history, err := store.History(ctx, result.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "what is an argo float?", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "info", history[1].Intent)
}

func TestSendContinuesExistingSession(t *testing.T) {
	svc, pipeline, store := newTestService(t, Config{})
	ctx := context.Background()

	first, err := svc.Send(ctx, "", "what is salinity?")
	require.NoError(t, err)

	second, err := svc.Send(ctx, first.SessionID, "and temperature?")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	// The second turn sees both messages of the first turn.
	require.Len(t, pipeline.lastHistory, 2)
	assert.Equal(t, "user", pipeline.lastHistory[0].Role)
	assert.Equal(t, "what is salinity?", pipeline.lastHistory[0].Content)
	assert.Equal(t, "assistant", pipeline.lastHistory[1].Role)

	history, err := store.History(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestSendUnknownSessionStartsFresh(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})

	result, err := svc.Send(context.Background(), "no-such-session", "hello")
	require.NoError(t, err)
	assert.NotEqual(t, "no-such-session", result.SessionID)
	assert.NotEmpty(t, result.SessionID)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc, pipeline, _ := newTestService(t, Config{})

	_, err := svc.Send(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Send(context.Background(), "", "   \t\n")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	assert.Zero(t, pipeline.calls)
}

func TestHistoryWindowCapsMessageCount(t *testing.T) {
	svc, pipeline, store := newTestService(t, Config{HistoryMessages: 4})
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		require.NoError(t, store.AppendMessage(ctx, sess.ID, session.Message{
			Role:    "user",
			Content: fmt.Sprintf("message %d", i),
		}))
	}

	_, err = svc.Send(ctx, sess.ID, "latest question")
	require.NoError(t, err)

	require.Len(t, pipeline.lastHistory, 4)
	assert.Equal(t, "message 5", pipeline.lastHistory[0].Content)
	assert.Equal(t, "message 8", pipeline.lastHistory[3].Content)
}

func TestHistoryWindowRespectsTokenBudget(t *testing.T) {
	// The character estimator charges len/4 + 10 per message, so each
	// 40-char message costs 20 tokens. A 50-token budget fits two.
	svc, pipeline, store := newTestService(t, Config{
		HistoryMessages:    10,
		HistoryTokenBudget: 50,
	})
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	content := strings.Repeat("x", 40)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendMessage(ctx, sess.ID, session.Message{
			Role:    "user",
			Content: content,
		}))
	}

	_, err = svc.Send(ctx, sess.ID, "latest question")
	require.NoError(t, err)

	assert.Len(t, pipeline.lastHistory, 2)
}

func TestSendDropsDeclaredNoneChart(t *testing.T) {
	svc, pipeline, store := newTestService(t, Config{})
	pipeline.response = &agent.Response{
		Content:   "No chart needed here.",
		Intent:    agent.IntentViz,
		AgentPath: []string{"supervisor", "query_for_viz", "viz"},
		Visualization: &visualization.Visualization{
			ChartType:   visualization.ChartTypeNone,
			Description: "no chart applicable",
		},
	}
	ctx := context.Background()

	result, err := svc.Send(ctx, "", "plot nothing")
	require.NoError(t, err)
	assert.Nil(t, result.Visualization)

	history, err := store.History(ctx, result.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[1].Visualization)
}

func TestSendKeepsRealChart(t *testing.T) {
	svc, pipeline, _ := newTestService(t, Config{})
	pipeline.response = &agent.Response{
		Content:   "Here is the trend.",
		Intent:    agent.IntentViz,
		AgentPath: []string{"supervisor", "query_for_viz", "viz"},
		Visualization: &visualization.Visualization{
			ChartType:   visualization.ChartTypeBarChart,
			Description: "statistics",
			PlotlyJSON: &visualization.Figure{
				Data: []visualization.Trace{{Type: "bar"}},
			},
		},
	}

	result, err := svc.Send(context.Background(), "", "plot the stats")
	require.NoError(t, err)
	require.NotNil(t, result.Visualization)
	assert.Equal(t, visualization.ChartTypeBarChart, result.Visualization.ChartType)
}

func TestHistoryAndDelete(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	ctx := context.Background()

	result, err := svc.Send(ctx, "", "remember this")
	require.NoError(t, err)

	sess, messages, err := svc.History(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, sess.ID)
	assert.Len(t, messages, 2)

	require.NoError(t, svc.DeleteSession(ctx, result.SessionID))

	_, _, err = svc.History(ctx, result.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	err = svc.DeleteSession(ctx, result.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestTokenCounterFallback(t *testing.T) {
	tc := &TokenCounter{}
	assert.Equal(t, 10, tc.CountTokens(strings.Repeat("a", 40)))
	assert.Equal(t, 0, tc.CountTokens(""))
}
