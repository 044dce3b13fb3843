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
// Package knowledge provides the ocean science document store behind the
// retrieval agent: a SQLite FTS5 index with BM25 ranking over a built-in
// corpus, optionally extended from a directory of markdown documents.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Hit is one search result. Distance is the BM25 score; lower is better.
type Hit struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Distance float64 `json:"distance"`
}

// Doc is one document in the knowledge base.
type Doc struct {
	ID       string
	Category string
	Content  string
}

const schema = `
CREATE TABLE IF NOT EXISTS docs (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	content TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
	content,
	content='docs',
	content_rowid='rowid',
	tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS docs_fts_insert AFTER INSERT ON docs
BEGIN
	INSERT INTO docs_fts(rowid, content) VALUES (NEW.rowid, NEW.content);
END;

CREATE TRIGGER IF NOT EXISTS docs_fts_update AFTER UPDATE ON docs
BEGIN
	INSERT INTO docs_fts(docs_fts, rowid, content) VALUES ('delete', OLD.rowid, OLD.content);
	INSERT INTO docs_fts(rowid, content) VALUES (NEW.rowid, NEW.content);
END;

CREATE TRIGGER IF NOT EXISTS docs_fts_delete AFTER DELETE ON docs
BEGIN
	INSERT INTO docs_fts(docs_fts, rowid, content) VALUES ('delete', OLD.rowid, OLD.content);
END;
`

// Config holds the settings for opening a knowledge base.
type Config struct {
	// DBPath is the SQLite file path. ":memory:" works for tests.
	DBPath string

	// CorpusDir optionally contributes documents beyond the built-in
	// corpus: one "<id>.md" file per document, first line
	// "# category: <cat>".
	CorpusDir string

	Logger *zap.Logger
}

// Base is the searchable document store.
type Base struct {
	db        *sql.DB
	corpusDir string
	logger    *zap.Logger
}

// Open creates or opens the knowledge database, applies the schema, and
// seeds the built-in corpus (plus the corpus directory, when set).
func Open(cfg Config) (*Base, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("knowledge db path is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create knowledge db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge db: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply knowledge schema: %w", err)
	}

	b := &Base{db: db, corpusDir: cfg.CorpusDir, logger: cfg.Logger}
	ctx := context.Background()
	if err := b.seedBuiltin(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if cfg.CorpusDir != "" {
		if err := b.loadCorpusDir(ctx); err != nil {
			cfg.Logger.Warn("failed to load corpus directory", zap.Error(err))
		}
	}
	return b, nil
}

// Close releases the underlying database.
func (b *Base) Close() error {
	return b.db.Close()
}

// Search returns up to topK documents matching the query, best first.
// An empty category matches all categories. Queries with no indexable
// terms return no hits, not an error.
func (b *Base) Search(ctx context.Context, query string, topK int, category string) ([]Hit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}

	q := `
		SELECT d.id, d.category, d.content, bm25(docs_fts) AS distance
		FROM docs_fts
		JOIN docs d ON d.rowid = docs_fts.rowid
		WHERE docs_fts MATCH ?`
	args := []interface{}{match}
	if category != "" {
		q += ` AND d.category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY bm25(docs_fts) LIMIT ?`
	args = append(args, topK)

	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.Category, &h.Content, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	return hits, nil
}

// Upsert inserts or replaces one document.
func (b *Base) Upsert(ctx context.Context, doc Doc) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO docs (id, category, content) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET category = excluded.category, content = excluded.content`,
		doc.ID, doc.Category, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to upsert doc %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes one document by ID. Unknown IDs are not an error.
func (b *Base) Delete(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete doc %s: %w", id, err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (b *Base) Count(ctx context.Context) (int, error) {
	var n int
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count docs: %w", err)
	}
	return n, nil
}

// Reindex reloads the corpus directory (when configured) and rebuilds
// the full-text index from the docs table.
func (b *Base) Reindex(ctx context.Context) error {
	if b.corpusDir != "" {
		if err := b.loadCorpusDir(ctx); err != nil {
			return err
		}
	}
	if _, err := b.db.ExecContext(ctx, `INSERT INTO docs_fts(docs_fts) VALUES ('rebuild')`); err != nil {
		return fmt.Errorf("failed to rebuild fts index: %w", err)
	}
	b.logger.Info("knowledge index rebuilt")
	return nil
}

func (b *Base) seedBuiltin(ctx context.Context) error {
	for _, doc := range builtinCorpus {
		if err := b.Upsert(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// loadCorpusDir indexes every .md file in the corpus directory.
func (b *Base) loadCorpusDir(ctx context.Context) error {
	entries, err := os.ReadDir(b.corpusDir)
	if err != nil {
		return fmt.Errorf("failed to read corpus directory: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(b.corpusDir, entry.Name())
		doc, err := readCorpusFile(path)
		if err != nil {
			b.logger.Warn("skipping corpus file", zap.String("file", path), zap.Error(err))
			continue
		}
		if err := b.Upsert(ctx, doc); err != nil {
			return err
		}
		loaded++
	}
	b.logger.Info("corpus directory loaded",
		zap.String("dir", b.corpusDir),
		zap.Int("documents", loaded),
	)
	return nil
}

// readCorpusFile parses one corpus document. The doc ID is the file name
// without extension; an optional "# category: <cat>" first line sets the
// category, which otherwise defaults to "general".
func readCorpusFile(path string) (Doc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Doc{}, err
	}
	doc := Doc{
		ID:       strings.TrimSuffix(filepath.Base(path), ".md"),
		Category: "general",
		Content:  strings.TrimSpace(string(raw)),
	}
	if doc.Content == "" {
		return Doc{}, fmt.Errorf("empty document")
	}
	first, rest, _ := strings.Cut(doc.Content, "\n")
	if cat, ok := strings.CutPrefix(first, "# category:"); ok {
		doc.Category = strings.TrimSpace(cat)
		doc.Content = strings.TrimSpace(rest)
		if doc.Content == "" {
			return Doc{}, fmt.Errorf("document has a category header but no body")
		}
	}
	return doc, nil
}

// ftsQuery converts free text into an FTS5 MATCH expression: terms are
// quoted to neutralize operator syntax and joined with OR so any term
// can match. Returns "" when the text has no indexable terms.
func ftsQuery(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + w + `"`
	}
	return strings.Join(quoted, " OR ")
}
