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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/chat"
	"github.com/pelagic-labs/driftchat/internal/session"
	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

// chatRequest is the body of /chat/message and /chat/stream.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// chatResponse is one completed chat turn.
type chatResponse struct {
	Response      string                       `json:"response"`
	SessionID     string                       `json:"session_id"`
	MessageID     string                       `json:"message_id"`
	Intent        string                       `json:"intent"`
	AgentPath     []string                     `json:"agent_path"`
	Visualization *visualization.Visualization `json:"visualization,omitempty"`
	Timestamp     time.Time                    `json:"timestamp"`
}

func toChatResponse(res *chat.Result) chatResponse {
	return chatResponse{
		Response:      res.Response,
		SessionID:     res.SessionID,
		MessageID:     res.MessageID,
		Intent:        res.Intent,
		AgentPath:     res.AgentPath,
		Visualization: res.Visualization,
		Timestamp:     res.Timestamp,
	}
}

func (s *Server) handleChatMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := s.chat.Send(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		s.logger.Error("chat message failed",
			zap.String("request_id", requestID(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	c.JSON(http.StatusOK, toChatResponse(res))
}

func (s *Server) handleGetHistory(c *gin.Context) {
	id := c.Param("id")
	sess, messages, err := s.chat.History(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		s.logger.Error("history lookup failed",
			zap.String("session_id", id),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
		"messages":   messages,
	})
}

func (s *Server) handleDeleteHistory(c *gin.Context) {
	id := c.Param("id")
	if err := s.chat.DeleteSession(c.Request.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		s.logger.Error("session delete failed",
			zap.String("session_id", id),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleVariables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variables": argo.Variables()})
}

func (s *Server) handleMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, argo.Metadata())
}

func (s *Server) handleBasins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"basins": argo.Basins()})
}

// handleExport fetches a region and streams it as a spreadsheet.
// Omitted spatial bounds default to the full globe; an omitted depth
// ceiling defaults to 2000 dbar.
func (s *Server) handleExport(c *gin.Context) {
	var params argo.QueryParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if params.Variable == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variable is required"})
		return
	}
	if params.LatMin == 0 && params.LatMax == 0 && params.LonMin == 0 && params.LonMax == 0 {
		defaults := argo.DefaultParams()
		params.LatMin, params.LatMax = defaults.LatMin, defaults.LatMax
		params.LonMin, params.LonMax = defaults.LonMin, defaults.LonMax
	}
	if params.DepthMax == 0 {
		params.DepthMax = 2000
	}
	if err := params.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, _ := s.manager.GetRegion(c.Request.Context(), params)
	if ds == nil || ds.NProfiles() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data matched the query"})
		return
	}

	f, err := argo.ExportXLSX(ds, params.Variable)
	if err != nil {
		if errors.Is(err, argo.ErrVariableNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}
	defer func() { _ = f.Close() }()

	filename := fmt.Sprintf("argo_%s_%s.xlsx",
		strings.ToLower(params.Variable), time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		s.logger.Warn("export write aborted", zap.Error(err))
	}
}
