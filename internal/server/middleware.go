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
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requestIDKey is the gin context key for the request ID.
const requestIDKey = "request_id"

// requestIDHeader carries the ID on requests and responses.
const requestIDHeader = "X-Request-ID"

// RequestID honors an incoming X-Request-ID header or assigns a short
// generated one, stores it in the gin context, and echoes it on the
// response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()[:8]
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestID returns the ID stored by the RequestID middleware.
func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestID(c)),
		)
	}
}

// CORS sets the cross-origin headers and short-circuits OPTIONS
// preflight requests. An empty origin list allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowed := allowedOrigin(origins, c.GetHeader("Origin")); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// allowedOrigin resolves the Access-Control-Allow-Origin value for a
// request origin. Wildcard entries win; otherwise the origin must match
// exactly.
func allowedOrigin(origins []string, origin string) string {
	if len(origins) == 0 {
		return "*"
	}
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// rateLimiter enforces a per-IP sliding window. Timestamps of accepted
// requests are kept per IP and pruned as the window moves.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limit:  perMinute,
		window: time.Minute,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// allow records a request for ip and reports whether it fits the
// window. remaining is the budget left after this request; reset is
// when the oldest counted request leaves the window.
func (rl *rateLimiter) allow(ip string) (ok bool, remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.hits[ip][:0]
	for _, t := range rl.hits[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.hits[ip] = kept
		return false, 0, kept[0].Add(rl.window)
	}

	kept = append(kept, now)
	rl.hits[ip] = kept
	return true, rl.limit - len(kept), kept[0].Add(rl.window)
}

// middleware rejects over-limit requests with 429 and standard
// rate-limit headers. The health endpoint is exempt so probes keep
// working under load.
func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		ok, remaining, reset := rl.allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !ok {
			retryAfter := int(reset.Sub(rl.now()).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit exceeded: %d requests per minute", rl.limit),
			})
			return
		}
		c.Next()
	}
}
