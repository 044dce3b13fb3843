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

package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

// newTestStores builds every backend with the same config so each test
// runs against all of them.
func newTestStores(t *testing.T, cfg Config) map[string]Store {
	t.Helper()

	sqliteCfg := cfg
	sqliteCfg.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")
	sqlite, err := NewSQLiteStore(sqliteCfg)
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	mem := NewMemoryStore(cfg)
	t.Cleanup(func() { mem.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": mem,
	}
}

func setClock(t *testing.T, s Store, now func() time.Time) {
	t.Helper()
	switch st := s.(type) {
	case *SQLiteStore:
		st.now = now
	case *MemoryStore:
		st.now = now
	default:
		t.Fatalf("unknown store type %T", s)
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, store := range newTestStores(t, Config{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess, err := store.Create(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, sess.ID)
			assert.False(t, sess.CreatedAt.IsZero())
			assert.False(t, sess.LastActive.Before(sess.CreatedAt))

			got, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, sess.ID, got.ID)

			require.NoError(t, store.Touch(ctx, sess.ID))

			require.NoError(t, store.Delete(ctx, sess.ID))
			_, err = store.Get(ctx, sess.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreUnknownSession(t *testing.T) {
	for name, store := range newTestStores(t, Config{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, store.Touch(ctx, "missing"), ErrNotFound)
			assert.ErrorIs(t, store.AppendMessage(ctx, "missing", Message{Role: "user", Content: "hi"}), ErrNotFound)

			_, err = store.History(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)
		})
	}
}

func TestStoreAppendAndHistory(t *testing.T) {
	viz := &visualization.Visualization{
		ChartType:   visualization.ChartTypeTimeSeries,
		Description: "Surface temperature over time",
		PlotlyJSON: &visualization.Figure{
			Data: []visualization.Trace{{Type: "scatter", Mode: "lines"}},
		},
	}

	for name, store := range newTestStores(t, Config{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess, err := store.Create(ctx)
			require.NoError(t, err)

			require.NoError(t, store.AppendMessage(ctx, sess.ID, Message{
				Role:    "user",
				Content: "show me surface temperature",
			}))
			require.NoError(t, store.AppendMessage(ctx, sess.ID, Message{
				Role:          "assistant",
				Content:       "Here is the surface temperature trend.",
				Intent:        "visualization",
				Visualization: viz,
			}))

			history, err := store.History(ctx, sess.ID)
			require.NoError(t, err)
			require.Len(t, history, 2)

			assert.Equal(t, "user", history[0].Role)
			assert.Equal(t, "show me surface temperature", history[0].Content)
			assert.NotEmpty(t, history[0].ID)
			assert.False(t, history[0].CreatedAt.IsZero())
			assert.Nil(t, history[0].Visualization)

			assert.Equal(t, "assistant", history[1].Role)
			assert.Equal(t, "visualization", history[1].Intent)
			require.NotNil(t, history[1].Visualization)
			assert.Equal(t, visualization.ChartTypeTimeSeries, history[1].Visualization.ChartType)
			assert.Equal(t, "Surface temperature over time", history[1].Visualization.Description)
			require.NotNil(t, history[1].Visualization.PlotlyJSON)
			assert.Len(t, history[1].Visualization.PlotlyJSON.Data, 1)
		})
	}
}

func TestStoreHistoryCap(t *testing.T) {
	for name, store := range newTestStores(t, Config{MaxHistory: 5}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess, err := store.Create(ctx)
			require.NoError(t, err)

			for i := 0; i < 8; i++ {
				require.NoError(t, store.AppendMessage(ctx, sess.ID, Message{
					Role:    "user",
					Content: fmt.Sprintf("message %d", i),
				}))
			}

			history, err := store.History(ctx, sess.ID)
			require.NoError(t, err)
			require.Len(t, history, 5)
			assert.Equal(t, "message 3", history[0].Content)
			assert.Equal(t, "message 7", history[4].Content)
		})
	}
}

func TestStoreAppendBumpsActivity(t *testing.T) {
	for name, store := range newTestStores(t, Config{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			setClock(t, store, func() time.Time { return clock })

			sess, err := store.Create(ctx)
			require.NoError(t, err)

			clock = clock.Add(20 * time.Minute)
			require.NoError(t, store.AppendMessage(ctx, sess.ID, Message{Role: "user", Content: "still here"}))

			got, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, clock.Unix(), got.LastActive.Unix())
		})
	}
}

func TestStoreDeleteExpired(t *testing.T) {
	for name, store := range newTestStores(t, Config{TTL: 30 * time.Minute}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			setClock(t, store, func() time.Time { return clock })

			stale, err := store.Create(ctx)
			require.NoError(t, err)

			clock = clock.Add(45 * time.Minute)
			fresh, err := store.Create(ctx)
			require.NoError(t, err)

			removed, err := store.DeleteExpired(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			_, err = store.Get(ctx, stale.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = store.Get(ctx, fresh.ID)
			assert.NoError(t, err)
		})
	}
}

func TestNewStoreSelectsBackend(t *testing.T) {
	store, err := NewStore(Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	store.Close()

	store, err = NewStore(Config{SQLitePath: filepath.Join(t.TempDir(), "sessions.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	store.Close()

	_, err = NewStore(Config{Backend: "redis"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown session backend")
}

func TestMessageOrderPreserved(t *testing.T) {
	for name, store := range newTestStores(t, Config{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess, err := store.Create(ctx)
			require.NoError(t, err)

			// Same-second inserts must still come back in insert order.
			for i := 0; i < 4; i++ {
				role := "user"
				if i%2 == 1 {
					role = "assistant"
				}
				require.NoError(t, store.AppendMessage(ctx, sess.ID, Message{
					Role:    role,
					Content: fmt.Sprintf("turn %d", i),
				}))
			}

			history, err := store.History(ctx, sess.ID)
			require.NoError(t, err)
			require.Len(t, history, 4)
			for i, msg := range history {
				assert.Equal(t, fmt.Sprintf("turn %d", i), msg.Content)
			}
		})
	}
}

func TestDeleteRemovesMessages(t *testing.T) {
	for name, store := range newTestStores(t, Config{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess, err := store.Create(ctx)
			require.NoError(t, err)
			require.NoError(t, store.AppendMessage(ctx, sess.ID, Message{Role: "user", Content: "hello"}))
			require.NoError(t, store.Delete(ctx, sess.ID))

			_, err = store.History(ctx, sess.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestErrNotFoundIsSentinel(t *testing.T) {
	err := fmt.Errorf("%w: abc", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
}
