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
package argotools

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// driftingFloat builds a dataset of n profiles drifting northeast, one per
// day, so trajectories come out time-ordered and distinct.
func driftingFloat(n int) *argo.Dataset {
	ds := &argo.Dataset{}
	for i := 0; i < n; i++ {
		p := profileAt(10+0.01*float64(i), -30+0.01*float64(i), 1, []float64{15, 14, 13})
		p.CycleNumber = i + 1
		p.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		ds.Profiles = append(ds.Profiles, p)
	}
	return ds
}

func TestTruncateTrajectory(t *testing.T) {
	full := &argo.Trajectory{TotalPoints: 120}
	for i := 0; i < 120; i++ {
		full.Latitudes = append(full.Latitudes, float64(i))
		full.Longitudes = append(full.Longitudes, float64(-i))
		full.Timestamps = append(full.Timestamps, fmt.Sprintf("2024-01-01T00:00:%02d", i%60))
	}

	out := truncateTrajectory(full, maxTrajectoryPoints)
	require.NotNil(t, out)
	assert.Len(t, out.Latitudes, maxTrajectoryPoints)
	assert.Len(t, out.Longitudes, maxTrajectoryPoints)
	assert.Len(t, out.Timestamps, maxTrajectoryPoints)
	assert.True(t, out.Truncated)
	assert.Equal(t, 120, out.TotalPoints)

	// Endpoints survive downsampling.
	assert.Equal(t, 0.0, out.Latitudes[0])
	assert.Equal(t, 119.0, out.Latitudes[len(out.Latitudes)-1])

	// Indices stay monotonic.
	assert.True(t, sortFloatsIncreasing(out.Latitudes))

	// The original is untouched.
	assert.Len(t, full.Latitudes, 120)
	assert.False(t, full.Truncated)
}

func TestTruncateTrajectory_ShortPathUntouched(t *testing.T) {
	full := &argo.Trajectory{
		Latitudes:   []float64{1, 2, 3},
		Longitudes:  []float64{4, 5, 6},
		Timestamps:  []string{"a", "b", "c"},
		TotalPoints: 3,
	}
	out := truncateTrajectory(full, maxTrajectoryPoints)
	assert.Same(t, full, out)
	assert.False(t, out.Truncated)
}

func sortFloatsIncreasing(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return false
		}
	}
	return true
}

func TestFloatTrajectoryTool(t *testing.T) {
	ft := NewFloatTrajectoryTool(newToolManager(t, driftingFloat(120)))

	result, err := ft.Execute(context.Background(), map[string]interface{}{"wmo_id": 6902746.0})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := dataMap(t, result)
	assert.Equal(t, 6902746, data["wmo_id"])
	assert.Equal(t, 120, data["n_profiles"])
	assert.Equal(t, "trajectory_map", data["chart_hint"])

	trajectory, ok := data["trajectory"].(*argo.Trajectory)
	require.True(t, ok)
	assert.Len(t, trajectory.Latitudes, maxTrajectoryPoints)
	assert.True(t, trajectory.Truncated)
	assert.Equal(t, 120, trajectory.TotalPoints)
}

func TestFloatTrajectoryTool_RequiresWMOID(t *testing.T) {
	ft := NewFloatTrajectoryTool(newToolManager(t, nil))

	result, err := ft.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, tool.CodeInvalidParams, result.Error.Code)
}

func TestFloatTrajectoryTool_FloatNotFound(t *testing.T) {
	m, err := argo.NewManager(argo.ManagerOptions{
		Primary:  &scriptedSource{name: "erddap", err: errNoFloat},
		CacheDir: t.TempDir(),
	})
	require.NoError(t, err)
	ft := NewFloatTrajectoryTool(m)

	result, err := ft.Execute(context.Background(), map[string]interface{}{"wmo_id": 123.0})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "float_not_found", result.Error.Code)
}

var errNoFloat = fmt.Errorf("float unknown upstream")

func TestFloatInfoTool(t *testing.T) {
	it := NewFloatInfoTool(newToolManager(t, driftingFloat(10)))

	result, err := it.Execute(context.Background(), map[string]interface{}{"wmo_id": 6902746.0})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := dataMap(t, result)
	assert.Equal(t, 10, data["n_profiles"])
	assert.Equal(t, "2024-01-01", data["first_profile"])
	assert.Equal(t, "2024-01-10", data["last_profile"])
	assert.Contains(t, data["variables"], argo.VarTemperature)
	assert.Contains(t, data["variables"], argo.VarPressure)

	region := data["region"].(map[string]float64)
	assert.InDelta(t, 10.0, region["lat_min"], 1e-9)
	assert.InDelta(t, 10.09, region["lat_max"], 1e-9)
}

func TestFloatProfileTool_PicksMostRecent(t *testing.T) {
	ds := driftingFloat(3)
	// Put a NaN level in the latest profile so pair filtering is visible.
	ds.Profiles[2].Variables[argo.VarTemperature] = []float64{20, math.NaN(), 18}
	pt := NewFloatProfileTool(newToolManager(t, ds))

	result, err := pt.Execute(context.Background(), map[string]interface{}{"wmo_id": 6902746.0})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := dataMap(t, result)
	assert.Equal(t, 3, data["cycle_number"])
	assert.Equal(t, "2024-01-03T00:00:00", data["time"])
	assert.Equal(t, "depth_profile", data["chart_hint"])

	// The NaN level drops out of both arrays together.
	assert.Equal(t, []float64{5, 25}, data["depths"])
	assert.Equal(t, []float64{20, 18}, data["values"])
	assert.Equal(t, 2, data["n_levels"])
	assert.NotContains(t, data, "truncated")
}

func TestFloatProfileTool_VariableAbsent(t *testing.T) {
	pt := NewFloatProfileTool(newToolManager(t, driftingFloat(2)))

	result, err := pt.Execute(context.Background(), map[string]interface{}{
		"wmo_id": 6902746.0, "variable": "DOXY",
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "variable_not_found", result.Error.Code)
}

func TestCompareFloatsTool(t *testing.T) {
	ct := NewCompareFloatsTool(newToolManager(t, driftingFloat(4)))

	result, err := ct.Execute(context.Background(), map[string]interface{}{
		"wmo_ids": []interface{}{6902746.0, 6902747.0},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := dataMap(t, result)
	assert.Equal(t, argo.VarTemperature, data["variable"])
	assert.Equal(t, "bar_chart", data["chart_hint"])

	comparisons := data["comparisons"].([]map[string]interface{})
	require.Len(t, comparisons, 2)
	for _, c := range comparisons {
		assert.Equal(t, 4, c["n_profiles"])
		assert.Equal(t, 14.0, c["mean"])
		assert.Equal(t, 13.0, c["min"])
		assert.Equal(t, 15.0, c["max"])
	}
}

func TestCompareFloatsTool_EnforcesBounds(t *testing.T) {
	ct := NewCompareFloatsTool(newToolManager(t, nil))

	result, err := ct.Execute(context.Background(), map[string]interface{}{
		"wmo_ids": []interface{}{6902746.0},
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, tool.CodeInvalidParams, result.Error.Code)

	six := make([]interface{}, 6)
	for i := range six {
		six[i] = float64(6902740 + i)
	}
	result, err = ct.Execute(context.Background(), map[string]interface{}{"wmo_ids": six})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, tool.CodeInvalidParams, result.Error.Code)
}

func TestCompareFloatsTool_ReportsPerFloatErrors(t *testing.T) {
	// Variable present in the data for both floats but DOXY is requested,
	// so each row carries an error instead of statistics.
	ct := NewCompareFloatsTool(newToolManager(t, driftingFloat(2)))

	result, err := ct.Execute(context.Background(), map[string]interface{}{
		"wmo_ids":  []interface{}{6902746.0, 6902747.0},
		"variable": "DOXY",
	})
	require.NoError(t, err)
	require.True(t, result.Success, "comparison succeeds even when rows fail")

	comparisons := dataMap(t, result)["comparisons"].([]map[string]interface{})
	require.Len(t, comparisons, 2)
	for _, c := range comparisons {
		assert.Contains(t, c, "error")
		assert.NotContains(t, c, "mean")
	}
}
