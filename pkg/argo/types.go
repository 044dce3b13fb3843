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
	"fmt"
	"math"
	"time"
)

// Sentinel errors returned by statistics and dataset accessors. Callers at
// the tool boundary convert these into structured failure results.
var (
	ErrVariableNotFound = errors.New("variable not found in dataset")
	ErrNoValidValues    = errors.New("no valid values for variable")
)

// QueryParams describes a region/depth/time query against the Argo archive.
// Zero values for the spatial bounds mean "unset"; use DefaultParams or
// Normalize to widen them to global coverage.
type QueryParams struct {
	Variable  string  `json:"variable,omitempty"`
	LatMin    float64 `json:"lat_min"`
	LatMax    float64 `json:"lat_max"`
	LonMin    float64 `json:"lon_min"`
	LonMax    float64 `json:"lon_max"`
	DepthMin  float64 `json:"depth_min"`
	DepthMax  float64 `json:"depth_max"`
	StartDate string  `json:"start_date,omitempty"`
	EndDate   string  `json:"end_date,omitempty"`
}

// DefaultParams returns query parameters spanning the full global archive
// at standard Argo depths.
func DefaultParams() QueryParams {
	return QueryParams{
		LatMin:   -90,
		LatMax:   90,
		LonMin:   -180,
		LonMax:   180,
		DepthMin: 0,
		DepthMax: 2000,
	}
}

// Validate checks the parameter ranges. The variable name, when present,
// must be one of the known Argo variables.
func (p QueryParams) Validate() error {
	if p.Variable != "" {
		if _, ok := CanonicalVariable(p.Variable); !ok {
			return fmt.Errorf("invalid variable %q, must be one of %v", p.Variable, VariableNames())
		}
	}
	if p.LatMin < -90 || p.LatMin > 90 || p.LatMax < -90 || p.LatMax > 90 {
		return fmt.Errorf("latitude bounds [%g, %g] outside [-90, 90]", p.LatMin, p.LatMax)
	}
	if p.LatMin > p.LatMax {
		return fmt.Errorf("lat_min %g exceeds lat_max %g", p.LatMin, p.LatMax)
	}
	if p.LonMin < -180 || p.LonMin > 180 || p.LonMax < -180 || p.LonMax > 180 {
		return fmt.Errorf("longitude bounds [%g, %g] outside [-180, 180]", p.LonMin, p.LonMax)
	}
	if p.DepthMin < 0 || p.DepthMax < 0 {
		return fmt.Errorf("depth bounds [%g, %g] must be non-negative", p.DepthMin, p.DepthMax)
	}
	if p.DepthMin > p.DepthMax {
		return fmt.Errorf("depth_min %g exceeds depth_max %g", p.DepthMin, p.DepthMax)
	}
	for _, d := range []string{p.StartDate, p.EndDate} {
		if d == "" {
			continue
		}
		if _, err := ParseDate(d); err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
	}
	return nil
}

// Profile is a single Argo float profile: one surfacing at one location,
// carrying per-depth-level measurement arrays.
type Profile struct {
	FloatID     string    `json:"float_id"`
	CycleNumber int       `json:"cycle_number"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`

	// Variables holds per-level measurement arrays keyed by variable name
	// (TEMP, PSAL, PRES, DOXY). Arrays under different keys are parallel:
	// index i addresses the same depth level. Values that failed quality
	// control are NaN.
	Variables map[string][]float64 `json:"variables"`

	// QCFlags holds quality-control flags parallel to Variables. Flags 1
	// and 2 mark good and probably-good data.
	QCFlags map[string][]int `json:"qc_flags,omitempty"`
}

// Pressure returns the profile's pressure (depth proxy) array, or nil.
func (p *Profile) Pressure() []float64 {
	return p.Variables[VarPressure]
}

// Dataset is a collection of profiles returned by one fetch.
type Dataset struct {
	Profiles  []Profile `json:"profiles"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NProfiles returns the number of profiles in the dataset.
func (d *Dataset) NProfiles() int {
	if d == nil {
		return 0
	}
	return len(d.Profiles)
}

// Has reports whether any profile carries the named variable.
func (d *Dataset) Has(variable string) bool {
	if d == nil {
		return false
	}
	for i := range d.Profiles {
		if _, ok := d.Profiles[i].Variables[variable]; ok {
			return true
		}
	}
	return false
}

// Values flattens the named variable across all profiles, preserving NaN
// placeholders for QC-rejected measurements.
func (d *Dataset) Values(variable string) []float64 {
	if d == nil {
		return nil
	}
	var out []float64
	for i := range d.Profiles {
		out = append(out, d.Profiles[i].Variables[variable]...)
	}
	return out
}

// Locations returns parallel latitude/longitude slices, one entry per profile.
func (d *Dataset) Locations() (lats, lons []float64) {
	if d == nil {
		return nil, nil
	}
	lats = make([]float64, len(d.Profiles))
	lons = make([]float64, len(d.Profiles))
	for i := range d.Profiles {
		lats[i] = d.Profiles[i].Latitude
		lons[i] = d.Profiles[i].Longitude
	}
	return lats, lons
}

// Trajectory is a float's path through the ocean: parallel position and
// timestamp slices sorted chronologically.
type Trajectory struct {
	Latitudes   []float64 `json:"latitudes"`
	Longitudes  []float64 `json:"longitudes"`
	Timestamps  []string  `json:"timestamps"`
	TotalPoints int       `json:"total_points,omitempty"`
	Truncated   bool      `json:"truncated,omitempty"`
}

// VariableStats summarizes the distribution of one variable's valid values.
type VariableStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// Coverage describes the extent of the Argo archive.
type Coverage struct {
	LatBounds   [2]float64 `json:"lat_bounds"`
	LonBounds   [2]float64 `json:"lon_bounds"`
	DepthRange  [2]float64 `json:"depth_range"`
	TimeRange   [2]string  `json:"time_range"`
	Variables   []string   `json:"variables"`
	TotalCount  int        `json:"total_profiles"`
	DataSource  string     `json:"data_source"`
	LastUpdated string     `json:"last_updated"`
}

// Metadata returns the static coverage descriptor for the Argo archive.
func Metadata() Coverage {
	return Coverage{
		LatBounds:   [2]float64{-90, 90},
		LonBounds:   [2]float64{-180, 180},
		DepthRange:  [2]float64{0, 2000},
		TimeRange:   [2]string{"1999-01-01", "2024-12-31"},
		Variables:   VariableNames(),
		TotalCount:  2_500_000,
		DataSource:  "Argo GDAC",
		LastUpdated: time.Now().Format("2006-01-02"),
	}
}

// Source fetches Argo data from one upstream archive. Implementations must
// be safe for concurrent use.
type Source interface {
	// FetchRegion fetches all profiles within the given bounds.
	FetchRegion(ctx context.Context, params QueryParams) (*Dataset, error)

	// FetchFloat fetches a single float's profile history by WMO number.
	// Date bounds in params constrain the history when set; spatial bounds
	// are ignored.
	FetchFloat(ctx context.Context, wmoID int, params QueryParams) (*Dataset, error)

	// Name identifies the source in logs and dataset provenance.
	Name() string
}

// dateLayouts are the accepted date spellings, most specific first.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseDate parses a date given as YYYY-MM-DD, YYYY-MM, or YYYY. Longer
// timestamp strings are truncated to their date part.
func ParseDate(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// isNaN is a convenience wrapper so call sites read cleanly.
func isNaN(v float64) bool { return math.IsNaN(v) }
