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

// Caps on the payload handed back to the model. The full dataset stays in
// the cache; only the tool response is trimmed.
const (
	maxSampleLocations = 20
	maxValuesSample    = 100
)

// QueryRegionTool queries Argo profiles by region, depth, and time, and
// summarizes one variable over the result.
type QueryRegionTool struct {
	manager  *argo.Manager
	largeAt  int
	refuseAt int
}

// NewQueryRegionTool creates the region query tool.
func NewQueryRegionTool(deps Deps) *QueryRegionTool {
	deps = deps.withDefaults()
	return &QueryRegionTool{
		manager:  deps.Manager,
		largeAt:  deps.LargeProfiles,
		refuseAt: deps.MaxProfiles,
	}
}

// Name returns the tool name.
func (t *QueryRegionTool) Name() string {
	return "query_argo_region"
}

// Description returns the tool description for the model.
func (t *QueryRegionTool) Description() string {
	return "Query Argo oceanographic data by region, depth, and time. " +
		"Returns profile and measurement counts, statistics for the requested variable, " +
		"sample locations, and a sample of values. " +
		"Dates default to the last 90 days when omitted."
}

// InputSchema returns the JSON schema for the tool input.
func (t *QueryRegionTool) InputSchema() *tool.JSONSchema {
	props := regionSchemaProps()
	props["variable"] = tool.NewStringSchema("Variable to summarize").
		WithEnum(argo.VariableNames()...)
	return tool.NewObjectSchema(
		"Region query parameters",
		props,
		[]string{"variable"},
	)
}

// Execute runs the query.
func (t *QueryRegionTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	variable, fail := canonicalVariable(params, "")
	if fail != nil {
		return fail, nil
	}

	query := regionParams(params)
	query.Variable = variable
	if err := query.Validate(); err != nil {
		return tool.Fail(tool.CodeInvalidParams, err.Error()), nil
	}

	// Estimate before fetching so an over-broad query fails fast instead
	// of hammering the upstream archive.
	query = t.manager.WithDateDefaults(query)
	estimate := argo.EstimateQuerySize(query)
	if estimate.Profiles > t.refuseAt {
		return &tool.Result{
			Success: false,
			Error: &tool.Error{
				Code: "query_too_large",
				Message: fmt.Sprintf(
					"query would match an estimated %d profiles (limit %d)",
					estimate.Profiles, t.refuseAt),
				Suggestion: "Narrow the region, shorten the date range, or restrict the depth window.",
			},
		}, nil
	}

	ds, cached := t.manager.GetRegion(ctx, query)
	if ds == nil {
		return fetchFailure(), nil
	}
	if !ds.Has(variable) {
		return variableNotFound(variable), nil
	}

	stats, err := t.manager.Statistics(ds, variable)
	if err != nil {
		return variableNotFound(variable), nil
	}

	lats, lons := ds.Locations()
	locations := make([]map[string]float64, 0, maxSampleLocations)
	for i := 0; i < len(lats) && i < maxSampleLocations; i++ {
		locations = append(locations, map[string]float64{"lat": lats[i], "lon": lons[i]})
	}

	values := ds.Values(variable)
	sample := make([]float64, 0, maxValuesSample)
	for _, v := range values {
		if len(sample) == maxValuesSample {
			break
		}
		if !isNaN(v) {
			sample = append(sample, v)
		}
	}

	data := map[string]interface{}{
		"variable":       variable,
		"n_profiles":     ds.NProfiles(),
		"n_measurements": stats.Count,
		"statistics":     stats,
		"region": map[string]interface{}{
			"lat_min":    query.LatMin,
			"lat_max":    query.LatMax,
			"lon_min":    query.LonMin,
			"lon_max":    query.LonMax,
			"depth_min":  query.DepthMin,
			"depth_max":  query.DepthMax,
			"start_date": query.StartDate,
			"end_date":   query.EndDate,
		},
		"sample_locations": locations,
		"values_sample":    sample,
	}
	if estimate.Profiles > t.largeAt {
		data["warning"] = fmt.Sprintf(
			"large query: an estimated %d profiles matched; results may be slow to refresh",
			estimate.Profiles)
	}

	return &tool.Result{
		Success:  true,
		Data:     data,
		CacheHit: cached,
		Metadata: map[string]interface{}{"source": ds.Source},
	}, nil
}

var _ tool.Tool = (*QueryRegionTool)(nil)
