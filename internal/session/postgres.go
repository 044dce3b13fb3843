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
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	created_at BIGINT NOT NULL,
	last_active BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	message_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	intent TEXT,
	visualization_json TEXT,
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active);
`

// PostgresStore backs sessions with Postgres, selected when
// sessions.postgres_dsn is set.
type PostgresStore struct {
	db         *sql.DB
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
}

// NewPostgresStore connects to cfg.PostgresDSN and ensures the schema.
func NewPostgresStore(cfg Config) (*PostgresStore, error) {
	cfg.applyDefaults()
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("session postgres dsn is required")
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize session schema: %w", err)
	}

	return &PostgresStore{
		db:         db,
		ttl:        cfg.TTL,
		maxHistory: cfg.MaxHistory,
		now:        time.Now,
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at, last_active) VALUES ($1, $2, $3)",
		sess.ID, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	var createdAt, lastActive int64
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at, last_active FROM sessions WHERE id = $1", id,
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

func (s *PostgresStore) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET last_active = $1 WHERE id = $2", s.now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, sessionID string, msg Message) error {
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

	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET last_active = $1 WHERE id = $2",
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, msg.ID, msg.Role, msg.Content,
		nullableString(msg.Intent), vizJSON, msg.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM messages WHERE session_id = $1 AND id NOT IN (
			SELECT id FROM messages WHERE session_id = $2 ORDER BY id DESC LIMIT $3
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

func (s *PostgresStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, role, content, intent, visualization_json, created_at
		FROM messages WHERE session_id = $1 ORDER BY id ASC`,
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

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_active < $1", cutoff,
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

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
