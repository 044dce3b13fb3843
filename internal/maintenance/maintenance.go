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

// Package maintenance runs the background housekeeping jobs: the
// session expiry sweep and the optional scheduled cache refresh.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/session"
)

const (
	// DefaultSweepSpec runs the session expiry sweep every ten minutes.
	DefaultSweepSpec = "*/10 * * * *"

	// DefaultPrecacheSpec refreshes the dataset cache nightly at 02:00.
	DefaultPrecacheSpec = "0 2 * * *"

	sweepTimeout    = 30 * time.Second
	precacheTimeout = 15 * time.Minute
)

// WarmFunc refreshes the dataset cache for the common query set.
type WarmFunc func(ctx context.Context) error

// Config holds the maintenance schedules. Specs use the standard
// five-field cron format.
type Config struct {
	SessionSweepSpec string
	PrecacheSpec     string
	PrecacheEnabled  bool
	Logger           *zap.Logger
}

// Runner owns the cron engine. Jobs run on the engine's goroutine; the
// serve command starts and stops the runner around the HTTP server's
// lifetime.
type Runner struct {
	cron   *cron.Cron
	store  session.Store
	warm   WarmFunc
	logger *zap.Logger
}

// New registers the jobs and validates their specs. The warm function
// is required only when the precache schedule is enabled.
func New(store session.Store, warm WarmFunc, cfg Config) (*Runner, error) {
	if cfg.SessionSweepSpec == "" {
		cfg.SessionSweepSpec = DefaultSweepSpec
	}
	if cfg.PrecacheSpec == "" {
		cfg.PrecacheSpec = DefaultPrecacheSpec
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &Runner{
		cron:   cron.New(),
		store:  store,
		warm:   warm,
		logger: cfg.Logger,
	}

	if _, err := r.cron.AddFunc(cfg.SessionSweepSpec, r.runSweep); err != nil {
		return nil, fmt.Errorf("invalid session sweep spec %q: %w", cfg.SessionSweepSpec, err)
	}

	if cfg.PrecacheEnabled {
		if warm == nil {
			return nil, fmt.Errorf("precache schedule enabled without a warm function")
		}
		if _, err := r.cron.AddFunc(cfg.PrecacheSpec, r.runPrecache); err != nil {
			return nil, fmt.Errorf("invalid precache spec %q: %w", cfg.PrecacheSpec, err)
		}
	}

	return r, nil
}

// Start begins executing the schedules.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("Maintenance scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish, bounded
// by the context.
func (r *Runner) Stop(ctx context.Context) {
	cronCtx := r.cron.Stop()
	select {
	case <-cronCtx.Done():
		r.logger.Info("Maintenance scheduler stopped")
	case <-ctx.Done():
		r.logger.Warn("Maintenance shutdown timed out, a job may still be running")
	}
}

// SweepSessions removes expired sessions immediately, outside the
// schedule.
func (r *Runner) SweepSessions(ctx context.Context) (int, error) {
	return r.store.DeleteExpired(ctx)
}

func (r *Runner) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := r.store.DeleteExpired(ctx)
	if err != nil {
		r.logger.Error("Session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("Expired sessions removed", zap.Int("count", n))
	}
}

func (r *Runner) runPrecache() {
	ctx, cancel := context.WithTimeout(context.Background(), precacheTimeout)
	defer cancel()

	r.logger.Info("Scheduled cache refresh starting")
	if err := r.warm(ctx); err != nil {
		r.logger.Error("Scheduled cache refresh failed", zap.Error(err))
		return
	}
	r.logger.Info("Scheduled cache refresh complete")
}
