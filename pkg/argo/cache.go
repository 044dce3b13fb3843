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
package argo

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/log"
)

// cacheKeyLen is the number of hex characters kept from the digest. Half a
// SHA-256 is far beyond collision concerns for a query cache and keeps
// filenames short.
const cacheKeyLen = 32

// regionCacheKey derives a deterministic key from the spatial and temporal
// query fields. The variable is deliberately excluded: one cached dataset
// serves every variable over the same region. Keys are built from a
// canonical JSON encoding (map keys sort lexically), so field order in the
// caller never matters.
func regionCacheKey(p QueryParams) string {
	fields := map[string]interface{}{
		"lat_min":    p.LatMin,
		"lat_max":    p.LatMax,
		"lon_min":    p.LonMin,
		"lon_max":    p.LonMax,
		"depth_min":  p.DepthMin,
		"depth_max":  p.DepthMax,
		"start_date": nullableString(p.StartDate),
		"end_date":   nullableString(p.EndDate),
	}
	return hashFields(fields)
}

// floatCacheKey derives a deterministic key for a single-float query.
func floatCacheKey(wmoID int) string {
	return hashFields(map[string]interface{}{
		"type":   "float",
		"wmo_id": wmoID,
	})
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func hashFields(fields map[string]interface{}) string {
	// encoding/json writes map keys in sorted order, which makes the
	// encoding canonical.
	encoded, err := json.Marshal(fields)
	if err != nil {
		// Only plain strings and numbers reach here; Marshal cannot fail.
		panic(fmt.Sprintf("cache key encoding: %v", err))
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])[:cacheKeyLen]
}

// fileCache persists datasets as JSON files named by query key. NaN
// measurements are stored as JSON nulls and restored on read.
type fileCache struct {
	dir string
}

func newFileCache(dir string) (*fileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &fileCache{dir: dir}, nil
}

func (c *fileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Has reports whether a cache file exists for the key.
func (c *fileCache) Has(key string) bool {
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Get loads the cached dataset for the key. A missing or undecodable file
// is a miss; corrupt entries are removed so the next fetch can repopulate.
func (c *fileCache) Get(key string) (*Dataset, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var rec cachedDataset
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn("discarding corrupt cache entry",
			zap.String("key", key), zap.Error(err))
		_ = os.Remove(c.path(key))
		return nil, false
	}
	return rec.dataset(), true
}

// Put writes the dataset to the cache. Failures are logged, not returned;
// a cold cache only costs the next query a refetch.
func (c *fileCache) Put(key string, ds *Dataset) {
	raw, err := json.Marshal(newCachedDataset(ds))
	if err != nil {
		log.Warn("failed to encode dataset for cache",
			zap.String("key", key), zap.Error(err))
		return
	}
	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		log.Warn("failed to write cache entry",
			zap.String("key", key), zap.Error(err))
		return
	}
	log.Info("cached dataset",
		zap.String("key", key), zap.Int("profiles", ds.NProfiles()))
}

// cachedDataset is the on-disk shape of a Dataset. Measurement arrays use
// pointers so NaN survives the JSON round trip as null.
type cachedDataset struct {
	Profiles  []cachedProfile `json:"profiles"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}

type cachedProfile struct {
	FloatID     string                `json:"float_id"`
	CycleNumber int                   `json:"cycle_number"`
	Latitude    float64               `json:"latitude"`
	Longitude   float64               `json:"longitude"`
	Timestamp   time.Time             `json:"timestamp"`
	Variables   map[string][]*float64 `json:"variables"`
	QCFlags     map[string][]int      `json:"qc_flags,omitempty"`
}

func newCachedDataset(ds *Dataset) cachedDataset {
	rec := cachedDataset{
		Profiles:  make([]cachedProfile, len(ds.Profiles)),
		Source:    ds.Source,
		FetchedAt: ds.FetchedAt,
	}
	for i, p := range ds.Profiles {
		cp := cachedProfile{
			FloatID:     p.FloatID,
			CycleNumber: p.CycleNumber,
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			Timestamp:   p.Timestamp,
			Variables:   make(map[string][]*float64, len(p.Variables)),
			QCFlags:     p.QCFlags,
		}
		for name, values := range p.Variables {
			encoded := make([]*float64, len(values))
			for j, v := range values {
				if !isNaN(v) {
					v := v
					encoded[j] = &v
				}
			}
			cp.Variables[name] = encoded
		}
		rec.Profiles[i] = cp
	}
	return rec
}

func (rec cachedDataset) dataset() *Dataset {
	ds := &Dataset{
		Profiles:  make([]Profile, len(rec.Profiles)),
		Source:    rec.Source,
		FetchedAt: rec.FetchedAt,
	}
	for i, cp := range rec.Profiles {
		p := Profile{
			FloatID:     cp.FloatID,
			CycleNumber: cp.CycleNumber,
			Latitude:    cp.Latitude,
			Longitude:   cp.Longitude,
			Timestamp:   cp.Timestamp,
			Variables:   make(map[string][]float64, len(cp.Variables)),
			QCFlags:     cp.QCFlags,
		}
		for name, encoded := range cp.Variables {
			values := make([]float64, len(encoded))
			for j, v := range encoded {
				if v == nil {
					values[j] = math.NaN()
				} else {
					values[j] = *v
				}
			}
			p.Variables[name] = values
		}
		ds.Profiles[i] = p
	}
	return ds
}
