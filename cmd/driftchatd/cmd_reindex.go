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
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/log"
	"github.com/pelagic-labs/driftchat/pkg/knowledge"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the knowledge base full-text index",
	Long: `Drop and rebuild the FTS index over the knowledge base, then reload
the built-in corpus and the corpus directory (if configured). Run this
after bulk-editing corpus files with the watcher disabled.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	if err := log.Configure(config.Log.Level, config.Log.Format); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer func() { _ = log.Sync() }()
	logger := log.Logger()

	kb, err := knowledge.Open(knowledge.Config{
		DBPath:    config.Knowledge.DBPath,
		CorpusDir: config.Knowledge.CorpusDir,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer func() { _ = kb.Close() }()

	ctx := context.Background()
	if err := kb.Reindex(ctx); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	count, err := kb.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	logger.Info("Knowledge base reindexed", zap.Int("documents", count))
	return nil
}
