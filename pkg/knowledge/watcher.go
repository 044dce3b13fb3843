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
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// UpdateCallback is called after the watcher applies a corpus file event.
// eventType is "upsert" or "delete"; err is non-nil when the file could
// not be parsed or indexed.
type UpdateCallback func(eventType string, docID string, filePath string, err error)

// WatcherConfig configures live reindexing of the corpus directory.
type WatcherConfig struct {
	DebounceMs int            // Delay before applying a change (default: 500ms)
	Logger     *zap.Logger
	OnUpdate   UpdateCallback // Optional notification hook
}

// Watcher keeps the knowledge base in sync with the corpus directory.
// Document files that appear or change are reindexed without a restart.
type Watcher struct {
	base    *Base
	watcher *fsnotify.Watcher
	config  WatcherConfig
	logger  *zap.Logger

	// Debouncer to absorb editor save bursts
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// Lifecycle
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
	stopMu  sync.Mutex
}

// NewWatcher creates a watcher over the base's corpus directory.
func NewWatcher(base *Base, config WatcherConfig) (*Watcher, error) {
	if base.corpusDir == "" {
		return nil, fmt.Errorf("corpus watching requires a corpus directory")
	}

	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.DebounceMs == 0 {
		config.DebounceMs = 500
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		base:           base,
		watcher:        watcher,
		config:         config,
		logger:         config.Logger,
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}, nil
}

// Start begins watching for corpus file changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.base.corpusDir); err != nil {
		return fmt.Errorf("failed to watch corpus directory: %w", err)
	}

	w.logger.Info("Started corpus watcher",
		zap.String("corpus_dir", w.base.corpusDir),
		zap.Int("debounce_ms", w.config.DebounceMs))

	go w.watchLoop(ctx)

	return nil
}

// watchLoop processes file system events.
func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Corpus watcher error", zap.Error(err))

		case <-w.stopCh:
			w.logger.Info("Stopping corpus watcher")
			return

		case <-ctx.Done():
			w.logger.Info("Corpus watcher context cancelled")
			return
		}
	}
}

// handleEvent filters and debounces a filesystem event.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Only markdown documents belong to the corpus
	if !strings.HasSuffix(event.Name, ".md") {
		return
	}

	// Ignore temporary files (editors create these)
	base := filepath.Base(event.Name)
	if strings.Contains(base, ".tmp") ||
		strings.Contains(base, "~") ||
		strings.HasPrefix(base, ".") {
		return
	}

	// Debounce rapid changes (editor auto-save, bulk copies)
	w.debounce(event.Name, func() {
		w.apply(ctx, event)
	})
}

// debounce delays execution until changes settle.
func (w *Watcher) debounce(key string, callback func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[key]; exists {
		timer.Stop()
	}

	delay := time.Duration(w.config.DebounceMs) * time.Millisecond
	w.debounceTimers[key] = time.AfterFunc(delay, func() {
		callback()
		w.debounceMu.Lock()
		delete(w.debounceTimers, key)
		w.debounceMu.Unlock()
	})
}

// apply reindexes or removes the document behind a settled event.
func (w *Watcher) apply(ctx context.Context, event fsnotify.Event) {
	docID := strings.TrimSuffix(filepath.Base(event.Name), ".md")

	w.logger.Info("Corpus file changed",
		zap.String("file", event.Name),
		zap.String("doc_id", docID),
		zap.String("operation", event.Op.String()))

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write,
		event.Op&fsnotify.Create == fsnotify.Create:
		w.upsertFile(ctx, docID, event.Name)

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		w.deleteDoc(ctx, docID, event.Name)
	}
}

// upsertFile parses a corpus file and replaces its indexed document.
func (w *Watcher) upsertFile(ctx context.Context, docID, filePath string) {
	doc, err := readCorpusFile(filePath)
	if err != nil {
		w.logger.Warn("Skipping unreadable corpus file",
			zap.String("file", filePath),
			zap.Error(err))
		w.notify("upsert", docID, filePath, err)
		return
	}

	if err := w.base.Upsert(ctx, doc); err != nil {
		w.logger.Error("Failed to index corpus document",
			zap.String("doc_id", doc.ID),
			zap.Error(err))
		w.notify("upsert", docID, filePath, err)
		return
	}

	w.logger.Info("Corpus document indexed", zap.String("doc_id", doc.ID))
	w.notify("upsert", doc.ID, filePath, nil)
}

// deleteDoc removes a document whose file disappeared.
func (w *Watcher) deleteDoc(ctx context.Context, docID, filePath string) {
	if err := w.base.Delete(ctx, docID); err != nil {
		w.logger.Error("Failed to remove corpus document",
			zap.String("doc_id", docID),
			zap.Error(err))
		w.notify("delete", docID, filePath, err)
		return
	}

	w.logger.Info("Corpus document removed", zap.String("doc_id", docID))
	w.notify("delete", docID, filePath, nil)
}

func (w *Watcher) notify(eventType, docID, filePath string, err error) {
	if w.config.OnUpdate != nil {
		w.config.OnUpdate(eventType, docID, filePath, err)
	}
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.stopMu.Lock()
	defer w.stopMu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true

	close(w.stopCh)

	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
		w.logger.Warn("Corpus watcher stop timed out")
	}

	return w.watcher.Close()
}
