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

// Package argotools exposes the Argo data manager to the language model as
// a set of tools: region queries, geographic search, per-float lookups,
// and statistical analysis. Every tool converts data-layer failures into
// structured results so nothing escapes the tool boundary as a Go error.
package argotools

import (
	"fmt"
	"math"

	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// Profile-count thresholds used when a tool estimates query size before
// fetching.
const (
	DefaultLargeProfiles = 10_000
	DefaultMaxProfiles   = 50_000
)

// Deps carries the shared dependencies and limits for the tool set.
type Deps struct {
	Manager *argo.Manager

	// LargeProfiles is the estimate above which a region query result
	// carries a size warning. Default 10000.
	LargeProfiles int

	// MaxProfiles is the estimate above which a region query is refused.
	// Default 50000.
	MaxProfiles int
}

func (d Deps) withDefaults() Deps {
	if d.LargeProfiles <= 0 {
		d.LargeProfiles = DefaultLargeProfiles
	}
	if d.MaxProfiles <= 0 {
		d.MaxProfiles = DefaultMaxProfiles
	}
	return d
}

// RegisterAll registers the full Argo tool set on the registry.
func RegisterAll(registry *tool.Registry, deps Deps) {
	deps = deps.withDefaults()
	registry.Register(NewQueryRegionTool(deps))
	registry.Register(NewBasinInfoTool())
	registry.Register(NewNearestProfilesTool(deps.Manager))
	registry.Register(NewStatisticsTool(deps.Manager))
	registry.Register(NewAnomaliesTool(deps.Manager))
	registry.Register(NewFloatTrajectoryTool(deps.Manager))
	registry.Register(NewFloatInfoTool(deps.Manager))
	registry.Register(NewFloatProfileTool(deps.Manager))
	registry.Register(NewCompareFloatsTool(deps.Manager))
}

// --- parameter coercion ---
//
// Tool parameters arrive as map[string]interface{} decoded from model
// output; numbers are float64 regardless of schema type.

func isNaN(v float64) bool { return math.IsNaN(v) }

func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func intParam(params map[string]interface{}, key string, fallback int) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return fallback, false
	}
}

func intSliceParam(params map[string]interface{}, key string) []int {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	return out
}

// regionParams assembles QueryParams from tool input, defaulting to global
// coverage at standard depths.
func regionParams(params map[string]interface{}) argo.QueryParams {
	defaults := argo.DefaultParams()
	return argo.QueryParams{
		LatMin:    floatParam(params, "lat_min", defaults.LatMin),
		LatMax:    floatParam(params, "lat_max", defaults.LatMax),
		LonMin:    floatParam(params, "lon_min", defaults.LonMin),
		LonMax:    floatParam(params, "lon_max", defaults.LonMax),
		DepthMin:  floatParam(params, "depth_min", defaults.DepthMin),
		DepthMax:  floatParam(params, "depth_max", defaults.DepthMax),
		StartDate: stringParam(params, "start_date", ""),
		EndDate:   stringParam(params, "end_date", ""),
	}
}

// canonicalVariable validates a variable parameter, returning a failure
// result ready to hand back to the model when the name is unknown.
func canonicalVariable(params map[string]interface{}, fallback string) (string, *tool.Result) {
	raw := stringParam(params, "variable", fallback)
	name, ok := argo.CanonicalVariable(raw)
	if !ok {
		return "", &tool.Result{
			Success: false,
			Error: &tool.Error{
				Code:    tool.CodeInvalidParams,
				Message: fmt.Sprintf("invalid variable %q, must be one of %v", raw, argo.VariableNames()),
			},
		}
	}
	return name, nil
}

// fetchFailure is the shared failure shape for exhausted data sources.
func fetchFailure() *tool.Result {
	return &tool.Result{
		Success: false,
		Error: &tool.Error{
			Code:      "fetch_failed",
			Message:   "failed to fetch data from all sources",
			Retryable: true,
			Suggestion: "The upstream archives may be slow or unreachable. " +
				"Try again, or narrow the region and time window.",
		},
	}
}

// variableNotFound reports a variable absent from the fetched dataset.
func variableNotFound(variable string) *tool.Result {
	return &tool.Result{
		Success: false,
		Error: &tool.Error{
			Code:    "variable_not_found",
			Message: fmt.Sprintf("variable %q not found in fetched data", variable),
			Suggestion: "The core archive carries TEMP, PSAL, and PRES. " +
				"Dissolved oxygen (DOXY) requires biogeochemical floats that this dataset does not include.",
		},
	}
}

// regionSchemaProps returns the shared spatial/temporal schema fragment.
func regionSchemaProps() map[string]*tool.JSONSchema {
	return map[string]*tool.JSONSchema{
		"lat_min":    tool.NewNumberSchema("Minimum latitude").WithRange(-90, 90).WithDefault(-90.0),
		"lat_max":    tool.NewNumberSchema("Maximum latitude").WithRange(-90, 90).WithDefault(90.0),
		"lon_min":    tool.NewNumberSchema("Minimum longitude").WithRange(-180, 180).WithDefault(-180.0),
		"lon_max":    tool.NewNumberSchema("Maximum longitude").WithRange(-180, 180).WithDefault(180.0),
		"depth_min":  tool.NewNumberSchema("Minimum depth in meters").WithDefault(0.0),
		"depth_max":  tool.NewNumberSchema("Maximum depth in meters").WithDefault(2000.0),
		"start_date": tool.NewStringSchema("Start date as YYYY-MM-DD or YYYY-MM (default: 90 days ago)"),
		"end_date":   tool.NewStringSchema("End date as YYYY-MM-DD or YYYY-MM (default: today)"),
	}
}
