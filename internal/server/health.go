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
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 5 * time.Second

// handleHealth reports liveness plus per-dependency checks. The
// response is always 200; a failing dependency degrades the status
// field rather than the endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	checks := make(map[string]string, len(s.checks))

	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := check(ctx)
		cancel()

		if err != nil {
			status = "degraded"
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"version":        s.cfg.Version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"checks":         checks,
	})
}
