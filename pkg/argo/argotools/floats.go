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

	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// Caps keeping float payloads inside the model's context budget. The full
// history stays cached; only the response is downsampled.
const (
	maxTrajectoryPoints = 50
	maxDepthLevels      = 200

	minCompareFloats = 2
	maxCompareFloats = 5
)

// truncateTrajectory downsamples to at most maxPoints evenly spaced
// entries, always keeping the first and last so start and end markers stay
// accurate. The input is never mutated.
func truncateTrajectory(t *argo.Trajectory, maxPoints int) *argo.Trajectory {
	if t == nil {
		return nil
	}
	n := len(t.Latitudes)
	if n <= maxPoints {
		return t
	}

	out := &argo.Trajectory{
		Latitudes:   make([]float64, maxPoints),
		Longitudes:  make([]float64, maxPoints),
		Timestamps:  make([]string, maxPoints),
		TotalPoints: n,
		Truncated:   true,
	}
	for i := 0; i < maxPoints; i++ {
		j := i * (n - 1) / (maxPoints - 1)
		out.Latitudes[i] = t.Latitudes[j]
		out.Longitudes[i] = t.Longitudes[j]
		out.Timestamps[i] = t.Timestamps[j]
	}
	return out
}

func wmoIDParam(params map[string]interface{}) (int, *tool.Result) {
	id, ok := intParam(params, "wmo_id", 0)
	if !ok || id <= 0 {
		return 0, tool.Fail(tool.CodeInvalidParams,
			"wmo_id is required and must be a positive WMO float identifier, e.g. 6902746")
	}
	return id, nil
}

func floatNotFound(wmoID int) *tool.Result {
	return &tool.Result{
		Success: false,
		Error: &tool.Error{
			Code:       "float_not_found",
			Message:    fmt.Sprintf("no data found for float %d", wmoID),
			Suggestion: "Check the WMO ID, or use find_nearest_profiles to locate active floats.",
		},
	}
}

// FloatTrajectoryTool returns a float's chronological path for map display.
type FloatTrajectoryTool struct {
	manager *argo.Manager
}

// NewFloatTrajectoryTool creates the trajectory tool.
func NewFloatTrajectoryTool(manager *argo.Manager) *FloatTrajectoryTool {
	return &FloatTrajectoryTool{manager: manager}
}

// Name returns the tool name.
func (t *FloatTrajectoryTool) Name() string {
	return "get_float_trajectory"
}

// Description returns the tool description for the model.
func (t *FloatTrajectoryTool) Description() string {
	return "Get the trajectory (drift path) of an Argo float as time-ordered positions. " +
		"Use this when the user asks to plot or show a float's path on a map."
}

// InputSchema returns the JSON schema for the tool input.
func (t *FloatTrajectoryTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Trajectory parameters",
		map[string]*tool.JSONSchema{
			"wmo_id": tool.NewIntegerSchema("WMO float identifier, e.g. 6902746"),
		},
		[]string{"wmo_id"},
	)
}

// Execute fetches the float and extracts its path.
func (t *FloatTrajectoryTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	wmoID, fail := wmoIDParam(params)
	if fail != nil {
		return fail, nil
	}

	ds, cached := t.manager.GetFloat(ctx, wmoID)
	if ds == nil {
		return floatNotFound(wmoID), nil
	}
	trajectory := truncateTrajectory(t.manager.Trajectory(ds), maxTrajectoryPoints)
	if trajectory == nil {
		return floatNotFound(wmoID), nil
	}

	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"wmo_id":     wmoID,
			"n_profiles": ds.NProfiles(),
			"trajectory": trajectory,
			"chart_hint": "trajectory_map",
		},
		CacheHit: cached,
	}, nil
}

var _ tool.Tool = (*FloatTrajectoryTool)(nil)

// FloatInfoTool summarizes a float: profile count, active period, and the
// region it has covered.
type FloatInfoTool struct {
	manager *argo.Manager
}

// NewFloatInfoTool creates the float info tool.
func NewFloatInfoTool(manager *argo.Manager) *FloatInfoTool {
	return &FloatInfoTool{manager: manager}
}

// Name returns the tool name.
func (t *FloatInfoTool) Name() string {
	return "get_float_info"
}

// Description returns the tool description for the model.
func (t *FloatInfoTool) Description() string {
	return "Get metadata about an Argo float: how many profiles it has reported, " +
		"when it was first and last heard from, and the bounding region of its drift."
}

// InputSchema returns the JSON schema for the tool input.
func (t *FloatInfoTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Float info parameters",
		map[string]*tool.JSONSchema{
			"wmo_id": tool.NewIntegerSchema("WMO float identifier, e.g. 6902746"),
		},
		[]string{"wmo_id"},
	)
}

// Execute fetches the float and summarizes it.
func (t *FloatInfoTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	wmoID, fail := wmoIDParam(params)
	if fail != nil {
		return fail, nil
	}

	ds, cached := t.manager.GetFloat(ctx, wmoID)
	if ds == nil || ds.NProfiles() == 0 {
		return floatNotFound(wmoID), nil
	}

	first := ds.Profiles[0]
	latMin, latMax := first.Latitude, first.Latitude
	lonMin, lonMax := first.Longitude, first.Longitude
	earliest, latest := first.Timestamp, first.Timestamp
	for i := range ds.Profiles {
		p := &ds.Profiles[i]
		if p.Latitude < latMin {
			latMin = p.Latitude
		}
		if p.Latitude > latMax {
			latMax = p.Latitude
		}
		if p.Longitude < lonMin {
			lonMin = p.Longitude
		}
		if p.Longitude > lonMax {
			lonMax = p.Longitude
		}
		if p.Timestamp.Before(earliest) {
			earliest = p.Timestamp
		}
		if p.Timestamp.After(latest) {
			latest = p.Timestamp
		}
	}

	variables := make([]string, 0, 4)
	for _, name := range argo.VariableNames() {
		if ds.Has(name) {
			variables = append(variables, name)
		}
	}

	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"wmo_id":        wmoID,
			"n_profiles":    ds.NProfiles(),
			"first_profile": earliest.Format("2006-01-02"),
			"last_profile":  latest.Format("2006-01-02"),
			"region": map[string]float64{
				"lat_min": latMin, "lat_max": latMax,
				"lon_min": lonMin, "lon_max": lonMax,
			},
			"variables": variables,
		},
		CacheHit: cached,
	}, nil
}

var _ tool.Tool = (*FloatInfoTool)(nil)

// FloatProfileTool returns a float's most recent depth profile for one
// variable, ready for depth-profile plotting.
type FloatProfileTool struct {
	manager *argo.Manager
}

// NewFloatProfileTool creates the float profile tool.
func NewFloatProfileTool(manager *argo.Manager) *FloatProfileTool {
	return &FloatProfileTool{manager: manager}
}

// Name returns the tool name.
func (t *FloatProfileTool) Name() string {
	return "get_float_profile"
}

// Description returns the tool description for the model.
func (t *FloatProfileTool) Description() string {
	return "Get the most recent depth profile from an Argo float: " +
		"paired depth and value arrays for one variable, for depth-profile plotting."
}

// InputSchema returns the JSON schema for the tool input.
func (t *FloatProfileTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Profile parameters",
		map[string]*tool.JSONSchema{
			"wmo_id": tool.NewIntegerSchema("WMO float identifier, e.g. 6902746"),
			"variable": tool.NewStringSchema("Variable to extract").
				WithEnum(argo.VariableNames()...).WithDefault(argo.VarTemperature),
		},
		[]string{"wmo_id"},
	)
}

// Execute fetches the float and extracts its latest profile.
func (t *FloatProfileTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	wmoID, fail := wmoIDParam(params)
	if fail != nil {
		return fail, nil
	}
	variable, fail := canonicalVariable(params, argo.VarTemperature)
	if fail != nil {
		return fail, nil
	}

	ds, cached := t.manager.GetFloat(ctx, wmoID)
	if ds == nil || ds.NProfiles() == 0 {
		return floatNotFound(wmoID), nil
	}

	latest := &ds.Profiles[0]
	for i := range ds.Profiles {
		if ds.Profiles[i].Timestamp.After(latest.Timestamp) {
			latest = &ds.Profiles[i]
		}
	}

	pressure := latest.Pressure()
	values := latest.Variables[variable]
	if len(values) == 0 {
		return variableNotFound(variable), nil
	}

	depths := make([]float64, 0, len(values))
	kept := make([]float64, 0, len(values))
	for i, v := range values {
		if i >= len(pressure) || isNaN(pressure[i]) || isNaN(v) {
			continue
		}
		depths = append(depths, pressure[i])
		kept = append(kept, v)
	}

	total := len(depths)
	truncated := total > maxDepthLevels
	if truncated {
		depths = depths[:maxDepthLevels]
		kept = kept[:maxDepthLevels]
	}

	data := map[string]interface{}{
		"wmo_id":       wmoID,
		"cycle_number": latest.CycleNumber,
		"time":         latest.Timestamp.Format("2006-01-02T15:04:05"),
		"variable":     variable,
		"depths":       depths,
		"values":       kept,
		"n_levels":     total,
		"chart_hint":   "depth_profile",
	}
	if truncated {
		data["truncated"] = true
	}

	return &tool.Result{
		Success:  true,
		Data:     data,
		CacheHit: cached,
	}, nil
}

var _ tool.Tool = (*FloatProfileTool)(nil)

// CompareFloatsTool compares one variable's statistics across floats.
type CompareFloatsTool struct {
	manager *argo.Manager
}

// NewCompareFloatsTool creates the float comparison tool.
func NewCompareFloatsTool(manager *argo.Manager) *CompareFloatsTool {
	return &CompareFloatsTool{manager: manager}
}

// Name returns the tool name.
func (t *CompareFloatsTool) Name() string {
	return "compare_floats"
}

// Description returns the tool description for the model.
func (t *CompareFloatsTool) Description() string {
	return "Compare one variable's statistics across 2 to 5 Argo floats. " +
		"Returns per-float mean, min, max, and profile counts for side-by-side comparison."
}

// InputSchema returns the JSON schema for the tool input.
func (t *CompareFloatsTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Comparison parameters",
		map[string]*tool.JSONSchema{
			"wmo_ids": tool.NewArraySchema("WMO float identifiers to compare",
				tool.NewIntegerSchema("WMO float identifier")).
				WithItemsBounds(minCompareFloats, maxCompareFloats),
			"variable": tool.NewStringSchema("Variable to compare").
				WithEnum(argo.VariableNames()...).WithDefault(argo.VarTemperature),
		},
		[]string{"wmo_ids"},
	)
}

// Execute fetches each float and collects its statistics.
func (t *CompareFloatsTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	ids := intSliceParam(params, "wmo_ids")
	if len(ids) < minCompareFloats {
		return tool.Fail(tool.CodeInvalidParams,
			fmt.Sprintf("need at least %d float IDs to compare", minCompareFloats)), nil
	}
	if len(ids) > maxCompareFloats {
		return tool.Fail(tool.CodeInvalidParams,
			fmt.Sprintf("cannot compare more than %d floats at once", maxCompareFloats)), nil
	}
	variable, fail := canonicalVariable(params, argo.VarTemperature)
	if fail != nil {
		return fail, nil
	}

	comparisons := make([]map[string]interface{}, 0, len(ids))
	for _, wmoID := range ids {
		ds, _ := t.manager.GetFloat(ctx, wmoID)
		if ds == nil {
			comparisons = append(comparisons, map[string]interface{}{
				"wmo_id": wmoID,
				"error":  fmt.Sprintf("no data found for float %d", wmoID),
			})
			continue
		}

		stats, err := t.manager.Statistics(ds, variable)
		if err != nil {
			comparisons = append(comparisons, map[string]interface{}{
				"wmo_id": wmoID,
				"error":  fmt.Sprintf("no %s data for float %d", variable, wmoID),
			})
			continue
		}

		comparisons = append(comparisons, map[string]interface{}{
			"wmo_id":     wmoID,
			"n_profiles": ds.NProfiles(),
			"mean":       stats.Mean,
			"min":        stats.Min,
			"max":        stats.Max,
		})
	}

	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"variable":    variable,
			"comparisons": comparisons,
			"chart_hint":  "bar_chart",
		},
	}, nil
}

var _ tool.Tool = (*CompareFloatsTool)(nil)
