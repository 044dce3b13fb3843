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
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	last_active INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	intent TEXT,
	visualization_json TEXT,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active);
`

// SQLiteStore is the default session backend.
type SQLiteStore struct {
	db         *sql.DB
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
}

// NewSQLiteStore opens (creating if needed) the session database at
// cfg.SQLitePath.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	cfg.applyDefaults()
	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("session sqlite path is required")
	}
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// modernc sqlite allows one writer; a single connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize session schema: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		ttl:        cfg.TTL,
		maxHistory: cfg.MaxHistory,
		now:        time.Now,
	}, nil
}

func (s *SQLiteStore) Create(ctx context.Context) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at, last_active) VALUES (?, ?, ?)",
		sess.ID, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	var createdAt, lastActive int64
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at, last_active FROM sessions WHERE id = ?", id,
	).Scan(&createdAt, &lastActive)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Session{
		ID:         id,
		CreatedAt:  time.Unix(createdAt, 0).UTC(),
		LastActive: time.Unix(lastActive, 0).UTC(),
	}, nil
}

func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET last_active = ? WHERE id = ?", s.now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, msg Message) error {
	fillMessageDefaults(&msg, s.now)

	vizJSON, err := marshalVisualization(msg.Visualization)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	// Appending counts as activity, so the session cannot expire
	// mid-conversation. RowsAffected doubles as the existence check.
	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET last_active = ? WHERE id = ?",
		msg.CreatedAt.Unix(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (session_id, message_id, role, content, intent, visualization_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, msg.ID, msg.Role, msg.Content,
		nullableString(msg.Intent), vizJSON, msg.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM messages WHERE session_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`,
		sessionID, sessionID, s.maxHistory,
	)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, role, content, intent, visualization_json, created_at
		FROM messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			msg       Message
			intent    sql.NullString
			vizJSON   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &intent, &vizJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Intent = intent.String
		msg.CreatedAt = time.Unix(createdAt, 0).UTC()
		if msg.Visualization, err = unmarshalVisualization(vizJSON); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	// Cascade removes the session's messages.
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_active < ?", cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func fillMessageDefaults(msg *Message, now func() time.Time) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now().UTC()
	}
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func marshalVisualization(viz *visualization.Visualization) (interface{}, error) {
	if viz == nil {
		return nil, nil
	}
	data, err := json.Marshal(viz)
	if err != nil {
		return nil, fmt.Errorf("marshal visualization: %w", err)
	}
	return string(data), nil
}

func unmarshalVisualization(raw sql.NullString) (*visualization.Visualization, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var viz visualization.Visualization
	if err := json.Unmarshal([]byte(raw.String), &viz); err != nil {
		return nil, fmt.Errorf("unmarshal visualization: %w", err)
	}
	return &viz, nil
}
