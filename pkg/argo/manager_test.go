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
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource is a scripted Source for manager tests.
type stubSource struct {
	name        string
	ds          *Dataset
	err         error
	delay       time.Duration
	regionCalls atomic.Int64
	floatCalls  atomic.Int64
}

func (s *stubSource) FetchRegion(ctx context.Context, params QueryParams) (*Dataset, error) {
	s.regionCalls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.snapshot()
}

func (s *stubSource) FetchFloat(ctx context.Context, wmoID int, params QueryParams) (*Dataset, error) {
	s.floatCalls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.snapshot()
}

// snapshot deep-copies the scripted dataset so QC filtering in one call
// cannot bleed into the next.
func (s *stubSource) snapshot() (*Dataset, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.ds == nil {
		return nil, nil
	}
	out := &Dataset{Source: s.name, FetchedAt: s.ds.FetchedAt}
	for _, p := range s.ds.Profiles {
		cp := p
		cp.Variables = make(map[string][]float64, len(p.Variables))
		for k, v := range p.Variables {
			cp.Variables[k] = append([]float64(nil), v...)
		}
		out.Profiles = append(out.Profiles, cp)
	}
	return out, nil
}

func (s *stubSource) Name() string { return s.name }

// threeProfileDataset is the canonical fixture: three surfacings with one
// good temperature reading each.
func threeProfileDataset() *Dataset {
	mk := func(id string, cycle int, lat, lon, temp float64, day int) Profile {
		return Profile{
			FloatID:     id,
			CycleNumber: cycle,
			Latitude:    lat,
			Longitude:   lon,
			Timestamp:   time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC),
			Variables: map[string][]float64{
				VarTemperature: {temp},
				VarPressure:    {10},
			},
			QCFlags: map[string][]int{
				VarTemperature: {1},
				VarPressure:    {1},
			},
		}
	}
	return &Dataset{
		Profiles: []Profile{
			mk("690001", 1, 10, -30, 10, 1),
			mk("690001", 2, 11, -31, 12, 2),
			mk("690001", 3, 12, -32, 14, 3),
		},
	}
}

func newTestManager(t *testing.T, primary, fallback Source) *Manager {
	t.Helper()
	m, err := NewManager(ManagerOptions{
		Primary:      primary,
		Fallback:     fallback,
		CacheDir:     t.TempDir(),
		FetchTimeout: 2 * time.Second,
		LookbackDays: 90,
	})
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	return m
}

func TestNewManager_RequiresPrimary(t *testing.T) {
	_, err := NewManager(ManagerOptions{})
	assert.Error(t, err)
}

func TestManager_EndToEndStatistics(t *testing.T) {
	primary := &stubSource{name: "erddap", ds: threeProfileDataset()}
	m := newTestManager(t, primary, nil)

	ds, cached := m.GetRegion(context.Background(), DefaultParams())
	require.NotNil(t, ds)
	assert.False(t, cached)
	assert.Equal(t, 3, ds.NProfiles())

	stats, err := m.Statistics(ds, VarTemperature)
	require.NoError(t, err)
	assert.Equal(t, 12.0, stats.Mean)
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 14.0, stats.Max)
	assert.Equal(t, 3, stats.Count)
}

func TestManager_SecondQueryHitsCache(t *testing.T) {
	primary := &stubSource{name: "erddap", ds: threeProfileDataset()}
	m := newTestManager(t, primary, nil)

	_, cached := m.GetRegion(context.Background(), DefaultParams())
	assert.False(t, cached)
	require.Equal(t, int64(1), primary.regionCalls.Load())

	ds, cached := m.GetRegion(context.Background(), DefaultParams())
	require.NotNil(t, ds)
	assert.True(t, cached)
	assert.Equal(t, int64(1), primary.regionCalls.Load(), "cache hit must not refetch")
}

func TestManager_FallsBackWhenPrimaryFails(t *testing.T) {
	primary := &stubSource{name: "erddap", err: errors.New("upstream down")}
	fallback := &stubSource{name: "gdac", ds: threeProfileDataset()}
	m := newTestManager(t, primary, fallback)

	ds, _ := m.GetRegion(context.Background(), DefaultParams())
	require.NotNil(t, ds)
	assert.Equal(t, "gdac", ds.Source)
	assert.Equal(t, int64(1), primary.regionCalls.Load())
	assert.Equal(t, int64(1), fallback.regionCalls.Load())
}

func TestManager_NilWhenAllSourcesFail(t *testing.T) {
	primary := &stubSource{name: "erddap", err: errors.New("down")}
	fallback := &stubSource{name: "gdac", err: errors.New("also down")}
	m := newTestManager(t, primary, fallback)

	ds, cached := m.GetRegion(context.Background(), DefaultParams())
	assert.Nil(t, ds)
	assert.False(t, cached)
}

func TestManager_TimeoutAbandonsSlowSource(t *testing.T) {
	primary := &stubSource{name: "erddap", ds: threeProfileDataset(), delay: 200 * time.Millisecond}
	fallback := &stubSource{name: "gdac", ds: threeProfileDataset()}

	m, err := NewManager(ManagerOptions{
		Primary:      primary,
		Fallback:     fallback,
		CacheDir:     t.TempDir(),
		FetchTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	ds, _ := m.GetRegion(context.Background(), DefaultParams())
	require.NotNil(t, ds)
	assert.Equal(t, "gdac", ds.Source, "slow primary should be abandoned for the fallback")
}

func TestManager_QCFilterMasksBadFlags(t *testing.T) {
	ds := &Dataset{
		Profiles: []Profile{{
			FloatID: "690002",
			Variables: map[string][]float64{
				VarTemperature: {10, 20, 30, 40, 50},
			},
			QCFlags: map[string][]int{
				VarTemperature: {1, 2, 3, 4, 9},
			},
		}},
	}

	applyQCFilter(ds)

	temps := ds.Profiles[0].Variables[VarTemperature]
	assert.Equal(t, 10.0, temps[0], "flag 1 is good")
	assert.Equal(t, 20.0, temps[1], "flag 2 is probably good")
	assert.True(t, math.IsNaN(temps[2]), "flag 3 must be masked")
	assert.True(t, math.IsNaN(temps[3]), "flag 4 must be masked")
	assert.True(t, math.IsNaN(temps[4]), "flag 9 must be masked")
}

func TestManager_QCFilterSkipsUnflaggedVariables(t *testing.T) {
	ds := &Dataset{
		Profiles: []Profile{{
			Variables: map[string][]float64{
				VarSalinity: {35.1, 35.2},
			},
		}},
	}

	applyQCFilter(ds)

	assert.Equal(t, []float64{35.1, 35.2}, ds.Profiles[0].Variables[VarSalinity])
}

func TestManager_QCFilterAppliedOnFetch(t *testing.T) {
	raw := threeProfileDataset()
	raw.Profiles[1].QCFlags[VarTemperature] = []int{4}
	primary := &stubSource{name: "erddap", ds: raw}
	m := newTestManager(t, primary, nil)

	ds, _ := m.GetRegion(context.Background(), DefaultParams())
	require.NotNil(t, ds)

	stats, err := m.Statistics(ds, VarTemperature)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count, "the flagged value must not count")
	assert.Equal(t, 12.0, stats.Mean)
}

func TestManager_GetFloatCachesByWMO(t *testing.T) {
	primary := &stubSource{name: "erddap", ds: threeProfileDataset()}
	m := newTestManager(t, primary, nil)

	ds, cached := m.GetFloat(context.Background(), 690001)
	require.NotNil(t, ds)
	assert.False(t, cached)

	_, cached = m.GetFloat(context.Background(), 690001)
	assert.True(t, cached)
	assert.Equal(t, int64(1), primary.floatCalls.Load())

	// A different float is a different cache entry.
	_, cached = m.GetFloat(context.Background(), 690002)
	assert.False(t, cached)
	assert.Equal(t, int64(2), primary.floatCalls.Load())
}

func TestManager_TrajectorySortsByTime(t *testing.T) {
	ds := &Dataset{
		Profiles: []Profile{
			{Latitude: 3, Longitude: 30, Timestamp: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)},
			{Latitude: 1, Longitude: 10, Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
			{Latitude: 2, Longitude: 20, Timestamp: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
	m := newTestManager(t, &stubSource{name: "erddap"}, nil)

	tr := m.Trajectory(ds)
	require.NotNil(t, tr)
	assert.Equal(t, []float64{1, 2, 3}, tr.Latitudes)
	assert.Equal(t, []float64{10, 20, 30}, tr.Longitudes)
	assert.Equal(t, "2024-05-01T00:00:00", tr.Timestamps[0])
	assert.Equal(t, "2024-05-03T00:00:00", tr.Timestamps[2])
}

func TestManager_TrajectoryNilForEmptyDataset(t *testing.T) {
	m := newTestManager(t, &stubSource{name: "erddap"}, nil)
	assert.Nil(t, m.Trajectory(nil))
	assert.Nil(t, m.Trajectory(&Dataset{}))
}

func TestManager_StatisticsErrors(t *testing.T) {
	m := newTestManager(t, &stubSource{name: "erddap"}, nil)

	_, err := m.Statistics(nil, VarTemperature)
	assert.ErrorIs(t, err, ErrVariableNotFound)

	ds := &Dataset{Profiles: []Profile{{
		Variables: map[string][]float64{VarTemperature: {math.NaN(), math.NaN()}},
	}}}
	_, err = m.Statistics(ds, VarSalinity)
	assert.ErrorIs(t, err, ErrVariableNotFound)

	_, err = m.Statistics(ds, VarTemperature)
	assert.ErrorIs(t, err, ErrNoValidValues)
}

func TestManager_WithDateDefaults(t *testing.T) {
	m := newTestManager(t, &stubSource{name: "erddap"}, nil)

	p := m.WithDateDefaults(QueryParams{})
	assert.Equal(t, "2024-03-17", p.StartDate)
	assert.Equal(t, "2024-06-15", p.EndDate)

	explicit := m.WithDateDefaults(QueryParams{StartDate: "2020-01-01", EndDate: "2020-06-01"})
	assert.Equal(t, "2020-01-01", explicit.StartDate)
	assert.Equal(t, "2020-06-01", explicit.EndDate)
}

func TestManager_WarmRespectsForce(t *testing.T) {
	primary := &stubSource{name: "erddap", ds: threeProfileDataset()}
	m := newTestManager(t, primary, nil)

	cached, n, err := m.Warm(context.Background(), DefaultParams(), false)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, n)

	cached, _, err = m.Warm(context.Background(), DefaultParams(), false)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, int64(1), primary.regionCalls.Load())

	_, _, err = m.Warm(context.Background(), DefaultParams(), true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), primary.regionCalls.Load(), "force must refetch")
}
