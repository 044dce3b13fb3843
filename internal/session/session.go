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

// Package session stores chat sessions and their message history.
//
// Three backends implement the same Store interface: SQLite (the
// default), Postgres, and an in-memory store used by tests. Sessions
// expire after a TTL measured from their last activity; DeleteExpired
// is invoked by the maintenance sweeper.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

// ErrNotFound is returned when a session ID does not exist.
var ErrNotFound = errors.New("session not found")

// Supported values for Config.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Session is one chat conversation.
type Session struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Message is one stored chat turn. Visualization is set only on
// assistant messages that carried a chart.
type Message struct {
	ID            string                       `json:"id"`
	Role          string                       `json:"role"`
	Content       string                       `json:"content"`
	Intent        string                       `json:"intent,omitempty"`
	Visualization *visualization.Visualization `json:"visualization,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
}

// Store persists sessions and their messages.
type Store interface {
	// Create starts a new session with a generated ID.
	Create(ctx context.Context) (*Session, error)
	// Get returns session metadata, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Touch marks the session active now, or ErrNotFound.
	Touch(ctx context.Context, id string) error
	// AppendMessage adds a message, bumps last activity, and prunes
	// history beyond the configured cap. Returns ErrNotFound for an
	// unknown session.
	AppendMessage(ctx context.Context, sessionID string, msg Message) error
	// History returns the stored messages oldest first, or ErrNotFound.
	History(ctx context.Context, sessionID string) ([]Message, error)
	// Delete removes a session and its messages, or ErrNotFound.
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions idle longer than the TTL and
	// returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
	// Close releases the backing resources.
	Close() error
}

// Config selects and tunes a session backend.
type Config struct {
	Backend     string
	SQLitePath  string
	PostgresDSN string
	// TTL is the idle lifetime of a session. Zero means 60 minutes.
	TTL time.Duration
	// MaxHistory caps stored messages per session. Zero means 50.
	MaxHistory int
}

const (
	defaultTTL        = 60 * time.Minute
	defaultMaxHistory = 50
)

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = defaultMaxHistory
	}
}

// NewStore builds the configured backend. An empty Backend selects
// SQLite.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return NewSQLiteStore(cfg)
	case BackendPostgres:
		return NewPostgresStore(cfg)
	case BackendMemory:
		return NewMemoryStore(cfg), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
