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
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	llmtypes "github.com/pelagic-labs/driftchat/pkg/llm/types"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// retryInitialDelay is the first backoff step; each retry doubles it.
var retryInitialDelay = time.Second

// chatWithRetry wraps provider Chat calls with exponential backoff
// (1s, 2s, 4s, ...). Only transport and overload failures are retried;
// client errors and context cancellation fail immediately.
func chatWithRetry(ctx context.Context, llm llmtypes.LLMProvider, messages []llmtypes.Message, tools []tool.Tool, maxRetries int, logger *zap.Logger) (*llmtypes.LLMResponse, error) {
	if maxRetries <= 0 {
		return llm.Chat(ctx, messages, tools)
	}

	var lastErr error
	delay := retryInitialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		response, err := llm.Chat(ctx, messages, tools)
		if err == nil {
			if attempt > 0 {
				logger.Info("llm retry succeeded", zap.Int("attempt", attempt+1))
			}
			return response, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("llm call failed (attempt %d/%d): %w",
				attempt+1, maxRetries+1, err)
		}
		if !retryableLLMError(err) {
			return nil, fmt.Errorf("llm call failed: %w", err)
		}
		if attempt >= maxRetries {
			break
		}

		logger.Warn("llm call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("llm call failed (attempt %d/%d): %w",
				attempt+1, maxRetries+1, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	logger.Error("llm retries exhausted",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil, fmt.Errorf("llm call failed after %d attempts: %w", maxRetries+1, lastErr)
}

// retryableLLMError reports whether an error is worth retrying. Rate
// limits (429) and server-side failures heal with backoff; other client
// errors are caller bugs and never will.
func retryableLLMError(err error) bool {
	msg := err.Error()
	if strings.Contains(msg, "status 429") {
		return true
	}
	if strings.Contains(msg, "status 4") {
		return false
	}
	return true
}
