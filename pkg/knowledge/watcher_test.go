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
package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRequiresCorpusDir(t *testing.T) {
	base := newTestBase(t)

	_, err := NewWatcher(base, WatcherConfig{})
	require.Error(t, err)
}

func TestWatcherIndexesNewAndRemovedFiles(t *testing.T) {
	corpusDir := t.TempDir()

	base, err := Open(Config{
		DBPath:    filepath.Join(t.TempDir(), "knowledge.db"),
		CorpusDir: corpusDir,
	})
	require.NoError(t, err)
	defer base.Close()

	var mu sync.Mutex
	events := make(map[string]int)

	watcher, err := NewWatcher(base, WatcherConfig{
		DebounceMs: 50,
		OnUpdate: func(eventType, docID, _ string, err error) {
			require.NoError(t, err)
			mu.Lock()
			events[eventType+":"+docID]++
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	path := filepath.Join(corpusDir, "kuroshio.md")
	content := "# category: local_notes\nThe Kuroshio is a strong western boundary current off Japan."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.Eventually(t, func() bool {
		hits, err := base.Search(ctx, "kuroshio", 3, "")
		return err == nil && len(hits) == 1
	}, 5*time.Second, 25*time.Millisecond, "new corpus file was not indexed")

	mu.Lock()
	assert.GreaterOrEqual(t, events["upsert:kuroshio"], 1)
	mu.Unlock()

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		hits, err := base.Search(ctx, "kuroshio", 3, "")
		return err == nil && len(hits) == 0
	}, 5*time.Second, 25*time.Millisecond, "removed corpus file was not unindexed")
}

func TestWatcherIgnoresNonCorpusFiles(t *testing.T) {
	corpusDir := t.TempDir()

	base, err := Open(Config{
		DBPath:    filepath.Join(t.TempDir(), "knowledge.db"),
		CorpusDir: corpusDir,
	})
	require.NoError(t, err)
	defer base.Close()

	updates := make(chan string, 8)
	watcher, err := NewWatcher(base, WatcherConfig{
		DebounceMs: 50,
		OnUpdate: func(eventType, docID, _ string, _ error) {
			updates <- eventType + ":" + docID
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "scratch.txt"), []byte("not a doc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, ".hidden.md"), []byte("hidden"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "draft.md.tmp"), []byte("tmp"), 0o644))

	select {
	case ev := <-updates:
		t.Fatalf("unexpected corpus update: %s", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	corpusDir := t.TempDir()

	base, err := Open(Config{
		DBPath:    filepath.Join(t.TempDir(), "knowledge.db"),
		CorpusDir: corpusDir,
	})
	require.NoError(t, err)
	defer base.Close()

	watcher, err := NewWatcher(base, WatcherConfig{DebounceMs: 50})
	require.NoError(t, err)

	require.NoError(t, watcher.Start(context.Background()))

	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
}
