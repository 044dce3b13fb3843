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
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleChatStream runs the pipeline and replays the result as
// server-sent events: status events while the request is in flight,
// the answer as word-chunk token events, an optional visualization
// event, then done. Failures surface as an error event before the
// stream closes.
func (s *Server) handleChatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// Disable nginx buffering so events reach the client as written.
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	send := func(event string, payload interface{}) bool {
		if c.Request.Context().Err() != nil {
			return false
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("stream event marshal failed", zap.Error(err))
			return false
		}
		if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if !send("status", gin.H{"stage": "classifying"}) {
		return
	}

	res, err := s.chat.Send(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("chat stream failed",
			zap.String("request_id", requestID(c)),
			zap.Error(err))
		send("error", gin.H{"error": "failed to process message"})
		return
	}

	if !send("status", gin.H{"stage": "routing", "intent": res.Intent}) {
		return
	}
	if !send("status", gin.H{"stage": "running", "agent_path": res.AgentPath}) {
		return
	}

	// SplitAfter keeps the separators, so concatenating the chunks
	// reproduces the answer byte for byte.
	for _, chunk := range strings.SplitAfter(res.Response, " ") {
		if chunk == "" {
			continue
		}
		if !send("token", gin.H{"text": chunk}) {
			return
		}
	}

	if res.Visualization != nil {
		if !send("visualization", res.Visualization) {
			return
		}
	}

	send("done", gin.H{
		"session_id": res.SessionID,
		"message_id": res.MessageID,
		"intent":     res.Intent,
	})
}
