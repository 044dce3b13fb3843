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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. State is lost on
// restart, which makes it suitable for tests and local development
// but not for deployments behind more than one replica.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]*memorySession
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
}

type memorySession struct {
	meta     Session
	messages []Message
}

// NewMemoryStore builds an in-memory session store.
func NewMemoryStore(cfg Config) *MemoryStore {
	cfg.applyDefaults()
	return &MemoryStore{
		sessions:   make(map[string]*memorySession),
		ttl:        cfg.TTL,
		maxHistory: cfg.MaxHistory,
		now:        time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context) (*Session, error) {
	now := s.now().UTC()
	sess := &memorySession{
		meta: Session{
			ID:         uuid.NewString(),
			CreatedAt:  now,
			LastActive: now,
		},
	}

	s.mu.Lock()
	s.sessions[sess.meta.ID] = sess
	s.mu.Unlock()

	meta := sess.meta
	return &meta, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	meta := sess.meta
	return &meta, nil
}

func (s *MemoryStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.meta.LastActive = s.now().UTC()
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, sessionID string, msg Message) error {
	fillMessageDefaults(&msg, s.now)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	sess.meta.LastActive = msg.CreatedAt
	sess.messages = append(sess.messages, msg)
	if over := len(sess.messages) - s.maxHistory; over > 0 {
		sess.messages = append(sess.messages[:0], sess.messages[over:]...)
	}
	return nil
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.meta.LastActive.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.sessions = make(map[string]*memorySession)
	s.mu.Unlock()
	return nil
}
