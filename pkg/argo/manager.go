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

// Package argo fetches, caches, and summarizes Argo oceanographic float
// data. The Manager fronts two upstream sources with a primary/fallback
// strategy and a file cache, applies quality-control filtering, and
// provides trajectory extraction and per-variable statistics. Supporting
// files define the variable and basin catalogs, great-circle geometry,
// query-size estimation, and XLSX export.
package argo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/log"
)

const (
	// DefaultFetchTimeout bounds one upstream fetch attempt.
	DefaultFetchTimeout = 45 * time.Second

	// DefaultLookbackDays is the date window applied to queries that
	// carry no explicit date bounds.
	DefaultLookbackDays = 90
)

// qcGoodFlags are the Argo quality-control flags treated as usable data:
// 1 (good) and 2 (probably good).
var qcGoodFlags = map[int]bool{1: true, 2: true}

// ManagerOptions configures a Manager. Primary is required; everything
// else has a usable zero-value default.
type ManagerOptions struct {
	Primary      Source
	Fallback     Source
	CacheDir     string
	FetchTimeout time.Duration
	LookbackDays int
}

// Manager answers data queries cache-first, then primary source, then
// fallback. A query that fails everywhere yields a nil dataset, never an
// error: "no data" is an answer the agents must be able to relay.
type Manager struct {
	primary  Source
	fallback Source
	cache    *fileCache
	timeout  time.Duration
	lookback int
	now      func() time.Time
}

// NewManager builds a Manager and ensures its cache directory exists.
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Primary == nil {
		return nil, fmt.Errorf("argo: primary source is required")
	}
	if opts.CacheDir == "" {
		opts.CacheDir = "./data/argo_cache"
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}

	cache, err := newFileCache(opts.CacheDir)
	if err != nil {
		return nil, err
	}

	return &Manager{
		primary:  opts.Primary,
		fallback: opts.Fallback,
		cache:    cache,
		timeout:  opts.FetchTimeout,
		lookback: opts.LookbackDays,
		now:      time.Now,
	}, nil
}

// LookbackDays returns the default date window length.
func (m *Manager) LookbackDays() int { return m.lookback }

// WithDateDefaults fills missing date bounds with the default lookback
// window ending today. Explicit dates pass through unchanged.
func (m *Manager) WithDateDefaults(p QueryParams) QueryParams {
	p.StartDate, p.EndDate = applyDateDefaults(p.StartDate, p.EndDate, m.lookback, m.now())
	return p
}

// GetRegion fetches all profiles inside the query bounds. Missing date
// bounds are defaulted first, so the cache key reflects the window that was
// actually fetched. The boolean reports a cache hit. A nil dataset means
// every source failed.
func (m *Manager) GetRegion(ctx context.Context, params QueryParams) (*Dataset, bool) {
	params = m.WithDateDefaults(params)
	key := regionCacheKey(params)

	if ds, ok := m.cache.Get(key); ok {
		log.Info("argo cache hit", zap.String("key", key))
		return ds, true
	}

	log.Info("argo cache miss, fetching region",
		zap.String("key", key),
		zap.Float64("lat_min", params.LatMin), zap.Float64("lat_max", params.LatMax),
		zap.Float64("lon_min", params.LonMin), zap.Float64("lon_max", params.LonMax),
		zap.String("start", params.StartDate), zap.String("end", params.EndDate))

	ds := m.tryFetch(ctx, m.primary, func(ctx context.Context, src Source) (*Dataset, error) {
		return src.FetchRegion(ctx, params)
	})
	if ds == nil && m.fallback != nil {
		ds = m.tryFetch(ctx, m.fallback, func(ctx context.Context, src Source) (*Dataset, error) {
			return src.FetchRegion(ctx, params)
		})
	}
	if ds == nil {
		log.Error("all sources failed for region query", zap.String("key", key))
		return nil, false
	}

	applyQCFilter(ds)
	m.cache.Put(key, ds)
	return ds, false
}

// GetFloat fetches a float's full profile history by WMO number. The
// boolean reports a cache hit; nil means every source failed.
func (m *Manager) GetFloat(ctx context.Context, wmoID int) (*Dataset, bool) {
	key := floatCacheKey(wmoID)

	if ds, ok := m.cache.Get(key); ok {
		log.Info("argo float cache hit",
			zap.Int("wmo_id", wmoID), zap.String("key", key))
		return ds, true
	}

	log.Info("argo float cache miss, fetching", zap.Int("wmo_id", wmoID))

	ds := m.tryFetch(ctx, m.primary, func(ctx context.Context, src Source) (*Dataset, error) {
		return src.FetchFloat(ctx, wmoID, QueryParams{})
	})
	if ds == nil && m.fallback != nil {
		ds = m.tryFetch(ctx, m.fallback, func(ctx context.Context, src Source) (*Dataset, error) {
			return src.FetchFloat(ctx, wmoID, QueryParams{})
		})
	}
	if ds == nil {
		log.Error("all sources failed for float query", zap.Int("wmo_id", wmoID))
		return nil, false
	}

	applyQCFilter(ds)
	m.cache.Put(key, ds)
	return ds, false
}

// Warm fetches a region and caches it, reporting whether the data was
// already cached. Used by the precache command and scheduled refresh.
func (m *Manager) Warm(ctx context.Context, params QueryParams, force bool) (cached bool, profiles int, err error) {
	params = m.WithDateDefaults(params)
	key := regionCacheKey(params)

	if !force {
		if ds, ok := m.cache.Get(key); ok {
			return true, ds.NProfiles(), nil
		}
	}

	ds := m.tryFetch(ctx, m.primary, func(ctx context.Context, src Source) (*Dataset, error) {
		return src.FetchRegion(ctx, params)
	})
	if ds == nil && m.fallback != nil {
		ds = m.tryFetch(ctx, m.fallback, func(ctx context.Context, src Source) (*Dataset, error) {
			return src.FetchRegion(ctx, params)
		})
	}
	if ds == nil {
		return false, 0, fmt.Errorf("all sources failed")
	}

	applyQCFilter(ds)
	m.cache.Put(key, ds)
	return false, ds.NProfiles(), nil
}

type fetchOutcome struct {
	ds  *Dataset
	err error
}

// tryFetch runs one source fetch on a worker goroutine and waits at most
// the configured timeout. On timeout the worker is abandoned rather than
// cancelled; the buffered channel lets it finish and be collected without
// leaking a blocked goroutine.
func (m *Manager) tryFetch(ctx context.Context, src Source, fetch func(context.Context, Source) (*Dataset, error)) *Dataset {
	done := make(chan fetchOutcome, 1)
	go func() {
		ds, err := fetch(ctx, src)
		done <- fetchOutcome{ds: ds, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			log.Warn("source fetch failed",
				zap.String("source", src.Name()), zap.Error(out.err))
			return nil
		}
		if out.ds != nil {
			log.Info("fetched profiles",
				zap.String("source", src.Name()),
				zap.Int("profiles", out.ds.NProfiles()))
		}
		return out.ds
	case <-time.After(m.timeout):
		log.Warn("source fetch timed out",
			zap.String("source", src.Name()),
			zap.Duration("timeout", m.timeout))
		return nil
	}
}

// applyQCFilter NaNs out every measurement whose quality flag is not 1 or
// 2. Variables without flags pass through untouched.
func applyQCFilter(ds *Dataset) {
	if ds == nil {
		return
	}
	for i := range ds.Profiles {
		p := &ds.Profiles[i]
		for name, values := range p.Variables {
			flags, ok := p.QCFlags[name]
			if !ok {
				continue
			}
			for j := range values {
				if j >= len(flags) {
					break
				}
				if !qcGoodFlags[flags[j]] {
					values[j] = math.NaN()
				}
			}
		}
	}
}

// Trajectory extracts a float's path: positions and timestamps sorted by
// time. Returns nil for a nil or empty dataset.
func (m *Manager) Trajectory(ds *Dataset) *Trajectory {
	if ds == nil || len(ds.Profiles) == 0 {
		return nil
	}

	idx := make([]int, len(ds.Profiles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ds.Profiles[idx[a]].Timestamp.Before(ds.Profiles[idx[b]].Timestamp)
	})

	t := &Trajectory{
		Latitudes:  make([]float64, len(idx)),
		Longitudes: make([]float64, len(idx)),
		Timestamps: make([]string, len(idx)),
	}
	for i, j := range idx {
		p := &ds.Profiles[j]
		t.Latitudes[i] = p.Latitude
		t.Longitudes[i] = p.Longitude
		t.Timestamps[i] = p.Timestamp.Format("2006-01-02T15:04:05")
	}
	return t
}

// Statistics summarizes one variable across the dataset. An absent
// variable or a variable with no valid values yields a typed error; the
// tool layer turns it into a structured failure for the model.
func (m *Manager) Statistics(ds *Dataset, variable string) (*VariableStats, error) {
	if ds == nil {
		return nil, fmt.Errorf("no dataset: %w", ErrVariableNotFound)
	}
	if !ds.Has(variable) {
		return nil, fmt.Errorf("%q: %w", variable, ErrVariableNotFound)
	}
	valid := validValues(ds.Values(variable))
	if len(valid) == 0 {
		return nil, fmt.Errorf("%q: %w", variable, ErrNoValidValues)
	}
	stats := computeStats(valid)
	return &stats, nil
}
