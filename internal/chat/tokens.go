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
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens for history-window trimming. Uses tiktoken
// with cl100k_base encoding, a close approximation for Claude models.
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

var (
	globalCounter   *TokenCounter
	counterInitOnce sync.Once
)

// GetTokenCounter returns the shared token counter instance.
func GetTokenCounter() *TokenCounter {
	counterInitOnce.Do(func() {
		tkm, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// Encoding files unavailable (e.g. offline). Fall back to
			// character-based estimation.
			globalCounter = &TokenCounter{}
			return
		}
		globalCounter = &TokenCounter{encoder: tkm}
	})
	return globalCounter
}

// CountTokens returns the token count for text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc.encoder == nil {
		return len(text) / 4
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	return len(tc.encoder.Encode(text, nil, nil))
}
