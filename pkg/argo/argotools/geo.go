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
	"sort"
	"strings"

	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

const (
	defaultSearchRadiusKm = 100.0
	maxNearestProfiles    = 20
)

// NearestProfilesTool finds profiles close to a point: a bounding-box
// prefilter sized from the radius, then exact haversine distances.
type NearestProfilesTool struct {
	manager *argo.Manager
}

// NewNearestProfilesTool creates the nearest-profiles tool.
func NewNearestProfilesTool(manager *argo.Manager) *NearestProfilesTool {
	return &NearestProfilesTool{manager: manager}
}

// Name returns the tool name.
func (t *NearestProfilesTool) Name() string {
	return "find_nearest_profiles"
}

// Description returns the tool description for the model.
func (t *NearestProfilesTool) Description() string {
	return "Find Argo profiles nearest to a geographic coordinate. " +
		"Returns up to 20 profiles sorted by great-circle distance within the search radius."
}

// InputSchema returns the JSON schema for the tool input.
func (t *NearestProfilesTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Nearest-profile search parameters",
		map[string]*tool.JSONSchema{
			"lat":       tool.NewNumberSchema("Target latitude").WithRange(-90, 90),
			"lon":       tool.NewNumberSchema("Target longitude").WithRange(-180, 180),
			"radius_km": tool.NewNumberSchema("Search radius in kilometers").WithDefault(defaultSearchRadiusKm),
		},
		[]string{"lat", "lon"},
	)
}

// Execute runs the search.
func (t *NearestProfilesTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	lat := floatParam(params, "lat", math.NaN())
	lon := floatParam(params, "lon", math.NaN())
	if isNaN(lat) || isNaN(lon) {
		return tool.Fail(tool.CodeInvalidParams, "lat and lon are required"), nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return tool.Fail(tool.CodeInvalidParams,
			fmt.Sprintf("coordinate (%g, %g) out of range", lat, lon)), nil
	}
	radius := floatParam(params, "radius_km", defaultSearchRadiusKm)
	if radius <= 0 {
		radius = defaultSearchRadiusKm
	}

	latMin, latMax, lonMin, lonMax := argo.RadiusToBounds(lat, lon, radius)
	query := argo.DefaultParams()
	query.LatMin, query.LatMax = latMin, latMax
	query.LonMin, query.LonMax = lonMin, lonMax

	ds, cached := t.manager.GetRegion(ctx, query)
	if ds == nil {
		return fetchFailure(), nil
	}

	type hit struct {
		Index      int     `json:"index"`
		Latitude   float64 `json:"latitude"`
		Longitude  float64 `json:"longitude"`
		DistanceKm float64 `json:"distance_km"`
	}

	lats, lons := ds.Locations()
	hits := make([]hit, 0, len(lats))
	for i := range lats {
		d := argo.HaversineKm(lat, lon, lats[i], lons[i])
		if d <= radius {
			hits = append(hits, hit{
				Index:      i,
				Latitude:   lats[i],
				Longitude:  lons[i],
				DistanceKm: math.Round(d*100) / 100,
			})
		}
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].DistanceKm < hits[b].DistanceKm })

	total := len(hits)
	if len(hits) > maxNearestProfiles {
		hits = hits[:maxNearestProfiles]
	}

	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"target":     map[string]float64{"lat": lat, "lon": lon},
			"radius_km":  radius,
			"n_profiles": total,
			"profiles":   hits,
		},
		CacheHit: cached,
	}, nil
}

var _ tool.Tool = (*NearestProfilesTool)(nil)

// BasinInfoTool returns the bounding box for a named ocean basin. It needs
// no data access; the basin table is static.
type BasinInfoTool struct{}

// NewBasinInfoTool creates the basin info tool.
func NewBasinInfoTool() *BasinInfoTool {
	return &BasinInfoTool{}
}

// Name returns the tool name.
func (t *BasinInfoTool) Name() string {
	return "get_ocean_basin_info"
}

// Description returns the tool description for the model.
func (t *BasinInfoTool) Description() string {
	return "Return latitude/longitude bounds and a description for a named ocean basin. " +
		"Use the bounds as region parameters for data queries. " +
		"Known basins: " + strings.Join(argo.BasinNames(), ", ") + "."
}

// InputSchema returns the JSON schema for the tool input.
func (t *BasinInfoTool) InputSchema() *tool.JSONSchema {
	return tool.NewObjectSchema(
		"Basin lookup parameters",
		map[string]*tool.JSONSchema{
			"basin": tool.NewStringSchema("Ocean basin name, e.g. 'north_atlantic' or 'Mediterranean'"),
		},
		[]string{"basin"},
	)
}

// Execute looks up the basin.
func (t *BasinInfoTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	name := stringParam(params, "basin", "")
	basin, ok := argo.BasinByName(name)
	if !ok {
		return &tool.Result{
			Success: false,
			Error: &tool.Error{
				Code:       "unknown_basin",
				Message:    fmt.Sprintf("unknown basin %q", name),
				Suggestion: "Available basins: " + strings.Join(argo.BasinNames(), ", "),
			},
		}, nil
	}

	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"basin":       basin.Name,
			"lat_min":     basin.LatMin,
			"lat_max":     basin.LatMax,
			"lon_min":     basin.LonMin,
			"lon_max":     basin.LonMax,
			"description": basin.Description,
		},
	}, nil
}

var _ tool.Tool = (*BasinInfoTool)(nil)
