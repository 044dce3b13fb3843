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

// Package visualization builds Plotly chart specifications from tool
// results. Deterministic builders cover the chart shapes the data tools
// produce; the agent layer falls back to a model-generated spec only when
// nothing structured matches.
package visualization

import "fmt"

// ChartType tags the visualization so the frontend picks the right
// renderer.
type ChartType string

const (
	ChartTypeDepthProfile  ChartType = "depth_profile"
	ChartTypeTimeSeries    ChartType = "time_series"
	ChartTypeBarChart      ChartType = "bar_chart"
	ChartTypeScatterMap    ChartType = "scatter_map"
	ChartTypeTrajectoryMap ChartType = "trajectory_map"
	ChartTypeNone          ChartType = "none"
)

// chartTypes is the closed set of valid chart_type tags.
var chartTypes = map[ChartType]bool{
	ChartTypeDepthProfile:  true,
	ChartTypeTimeSeries:    true,
	ChartTypeBarChart:      true,
	ChartTypeScatterMap:    true,
	ChartTypeTrajectoryMap: true,
	ChartTypeNone:          true,
}

// Visualization is the chart payload attached to a chat response.
// PlotlyJSON is the ready-to-render figure and is nil exactly when
// ChartType is "none".
type Visualization struct {
	ChartType   ChartType `json:"chart_type"`
	PlotlyJSON  *Figure   `json:"plotly_json"`
	Description string    `json:"description"`
}

// Validate checks tag/payload coherence.
func (v *Visualization) Validate() error {
	if !chartTypes[v.ChartType] {
		return fmt.Errorf("unknown chart_type %q", v.ChartType)
	}
	if v.ChartType == ChartTypeNone {
		if v.PlotlyJSON != nil {
			return fmt.Errorf("chart_type %q must not carry a figure", ChartTypeNone)
		}
		return nil
	}
	if v.PlotlyJSON == nil {
		return fmt.Errorf("chart_type %q requires a figure", v.ChartType)
	}
	if len(v.PlotlyJSON.Data) == 0 {
		return fmt.Errorf("chart_type %q requires at least one trace", v.ChartType)
	}
	return nil
}

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly data series. X and Y are interface{} because axes
// mix numeric values, dates, and category labels depending on the chart.
type Trace struct {
	Type   string      `json:"type"`
	Mode   string      `json:"mode,omitempty"`
	X      interface{} `json:"x,omitempty"`
	Y      interface{} `json:"y,omitempty"`
	Lat    []float64   `json:"lat,omitempty"`
	Lon    []float64   `json:"lon,omitempty"`
	Text   []string    `json:"text,omitempty"`
	Name   string      `json:"name,omitempty"`
	Marker *Marker     `json:"marker,omitempty"`
	Line   *Line       `json:"line,omitempty"`
}

// Marker styles trace points. Color takes a single CSS color or a value
// array paired with a colorscale.
type Marker struct {
	Color      interface{} `json:"color,omitempty"`
	Size       int         `json:"size,omitempty"`
	Colorscale string      `json:"colorscale,omitempty"`
	Colorbar   *Colorbar   `json:"colorbar,omitempty"`
}

// Colorbar labels a color scale.
type Colorbar struct {
	Title string `json:"title"`
}

// Line styles trace lines.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Layout is the Plotly layout fragment the builders emit.
type Layout struct {
	Title    string `json:"title,omitempty"`
	XAxis    *Axis  `json:"xaxis,omitempty"`
	YAxis    *Axis  `json:"yaxis,omitempty"`
	BarMode  string `json:"barmode,omitempty"`
	Template string `json:"template,omitempty"`
	Height   int    `json:"height,omitempty"`
	Geo      *Geo   `json:"geo,omitempty"`
}

// Axis labels one axis. Depth axes set AutoRange "reversed" so the ocean
// surface renders at the top.
type Axis struct {
	Title     string `json:"title,omitempty"`
	AutoRange string `json:"autorange,omitempty"`
}

// Geo configures the base map for geographic traces.
type Geo struct {
	ShowLand   bool        `json:"showland"`
	LandColor  string      `json:"landcolor,omitempty"`
	ShowOcean  bool        `json:"showocean"`
	OceanColor string      `json:"oceancolor,omitempty"`
	Projection *Projection `json:"projection,omitempty"`
}

// Projection names the map projection.
type Projection struct {
	Type string `json:"type"`
}
