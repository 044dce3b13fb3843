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

// Package server exposes the chat pipeline and the Argo data layer over
// HTTP. Routes live under /api/v1; the health endpoint sits at the root
// and bypasses rate limiting.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/chat"
	"github.com/pelagic-labs/driftchat/pkg/argo"
)

const shutdownTimeout = 10 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Config holds the HTTP server settings.
type Config struct {
	Host string
	Port int

	// CORSOrigins lists allowed origins; "*" allows any. Empty means "*".
	CORSOrigins []string

	// RateLimitPerMinute caps requests per client IP per minute. Applied
	// only when RateLimitEnabled is true.
	RateLimitPerMinute int
	RateLimitEnabled   bool

	Version string
	Logger  *zap.Logger
}

// Server bundles the router and its dependencies.
type Server struct {
	cfg     Config
	chat    *chat.Service
	manager *argo.Manager
	checks  map[string]HealthCheck
	engine  *gin.Engine
	logger  *zap.Logger
	started time.Time
}

// New builds the router with middleware and routes registered. The
// checks map feeds the health endpoint; keys name the dependency.
func New(cfg Config, chatService *chat.Service, manager *argo.Manager, checks map[string]HealthCheck) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 20
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(cfg.Logger))
	engine.Use(CORS(cfg.CORSOrigins))
	if cfg.RateLimitEnabled {
		engine.Use(newRateLimiter(cfg.RateLimitPerMinute).middleware())
	}

	s := &Server{
		cfg:     cfg,
		chat:    chatService,
		manager: manager,
		checks:  checks,
		engine:  engine,
		logger:  cfg.Logger,
		started: time.Now(),
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the listener fails. Shutdown drains in-flight requests for up to
// ten seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.Addr(),
		Handler:     s.engine,
		ReadTimeout: 30 * time.Second,
		// SSE responses stream until the pipeline finishes; no write
		// deadline.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/chat/message", s.handleChatMessage)
		v1.POST("/chat/stream", s.handleChatStream)
		v1.GET("/chat/history/:id", s.handleGetHistory)
		v1.DELETE("/chat/history/:id", s.handleDeleteHistory)

		v1.GET("/data/variables", s.handleVariables)
		v1.GET("/data/metadata", s.handleMetadata)
		v1.GET("/data/basins", s.handleBasins)
		v1.POST("/data/export", s.handleExport)
	}
}
