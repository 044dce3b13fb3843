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
package visualization

import (
	"fmt"

	"github.com/pelagic-labs/driftchat/pkg/argo"
)

// Ocean-themed palette: blues then teal, cycled across bar series.
var oceanPalette = []string{"#0077b6", "#00b4d8", "#90e0ef", "#2a9d8f"}

const chartTemplate = "plotly_white"

// VariableUnit returns the display unit for a variable code, or "" for
// unknown codes.
func VariableUnit(variable string) string {
	name, ok := argo.CanonicalVariable(variable)
	if !ok {
		return ""
	}
	for _, info := range argo.Variables() {
		if info.Name == name {
			return info.Unit
		}
	}
	return ""
}

// axisLabel formats "TEMP (degC)" style axis titles.
func axisLabel(variable, unit string) string {
	if unit == "" {
		return variable
	}
	return fmt.Sprintf("%s (%s)", variable, unit)
}

// DepthProfile builds a variable-vs-depth line chart with the depth axis
// reversed so the surface is at the top.
func DepthProfile(depths, values []float64, variable, unit, title string) *Visualization {
	if title == "" {
		title = fmt.Sprintf("%s Depth Profile", variable)
	}
	return &Visualization{
		ChartType: ChartTypeDepthProfile,
		PlotlyJSON: &Figure{
			Data: []Trace{
				{
					Type:   "scatter",
					Mode:   "lines+markers",
					X:      values,
					Y:      depths,
					Name:   variable,
					Marker: &Marker{Color: oceanPalette[0], Size: 4},
					Line:   &Line{Color: oceanPalette[0], Width: 2},
				},
			},
			Layout: Layout{
				Title:    title,
				XAxis:    &Axis{Title: axisLabel(variable, unit)},
				YAxis:    &Axis{Title: "Depth (m)", AutoRange: "reversed"},
				Template: chartTemplate,
				Height:   500,
			},
		},
		Description: fmt.Sprintf("Depth profile of %s", variable),
	}
}

// TimeSeries builds a variable-over-time line chart.
func TimeSeries(times []string, values []float64, variable, unit, title string) *Visualization {
	if title == "" {
		title = fmt.Sprintf("%s Over Time", variable)
	}
	return &Visualization{
		ChartType: ChartTypeTimeSeries,
		PlotlyJSON: &Figure{
			Data: []Trace{
				{
					Type:   "scatter",
					Mode:   "lines+markers",
					X:      times,
					Y:      values,
					Name:   variable,
					Marker: &Marker{Color: oceanPalette[1], Size: 4},
					Line:   &Line{Color: oceanPalette[1], Width: 2},
				},
			},
			Layout: Layout{
				Title:    title,
				XAxis:    &Axis{Title: "Date"},
				YAxis:    &Axis{Title: axisLabel(variable, unit)},
				Template: chartTemplate,
				Height:   400,
			},
		},
		Description: fmt.Sprintf("Time series of %s", variable),
	}
}

// BarChart builds a grouped bar chart: one series per label, bars at the
// given categories.
func BarChart(categories []string, values [][]float64, labels []string, variable, unit, title string) *Visualization {
	if title == "" {
		title = fmt.Sprintf("%s Comparison", variable)
	}
	traces := make([]Trace, 0, len(values))
	for i := range values {
		name := ""
		if i < len(labels) {
			name = labels[i]
		}
		traces = append(traces, Trace{
			Type:   "bar",
			X:      categories,
			Y:      values[i],
			Name:   name,
			Marker: &Marker{Color: oceanPalette[i%len(oceanPalette)]},
		})
	}
	return &Visualization{
		ChartType: ChartTypeBarChart,
		PlotlyJSON: &Figure{
			Data: traces,
			Layout: Layout{
				Title:    title,
				XAxis:    &Axis{Title: "Category"},
				YAxis:    &Axis{Title: axisLabel(variable, unit)},
				BarMode:  "group",
				Template: chartTemplate,
				Height:   400,
			},
		},
		Description: fmt.Sprintf("Comparison of %s across categories", variable),
	}
}

// ScatterMap builds a geographic scatter of measurement locations colored
// by value.
func ScatterMap(lats, lons, values []float64, variable, unit, title string) *Visualization {
	if title == "" {
		title = fmt.Sprintf("%s Spatial Distribution", variable)
	}
	text := make([]string, len(values))
	for i, v := range values {
		text[i] = fmt.Sprintf("%.2f %s", v, unit)
	}
	return &Visualization{
		ChartType: ChartTypeScatterMap,
		PlotlyJSON: &Figure{
			Data: []Trace{
				{
					Type: "scattergeo",
					Lat:  lats,
					Lon:  lons,
					Text: text,
					Name: variable,
					Marker: &Marker{
						Color:      values,
						Colorscale: "Viridis",
						Colorbar:   &Colorbar{Title: axisLabel(variable, unit)},
						Size:       6,
					},
				},
			},
			Layout: Layout{
				Title:    title,
				Geo:      oceanBaseMap(),
				Template: chartTemplate,
				Height:   500,
			},
		},
		Description: fmt.Sprintf("Geographic distribution of %s", variable),
	}
}

// TrajectoryMap builds a float drift path: a connected line over the base
// map with timestamps as hover text.
func TrajectoryMap(lats, lons []float64, timestamps []string, label, title string) *Visualization {
	if title == "" {
		title = fmt.Sprintf("Float %s Trajectory", label)
	}
	return &Visualization{
		ChartType: ChartTypeTrajectoryMap,
		PlotlyJSON: &Figure{
			Data: []Trace{
				{
					Type:   "scattergeo",
					Mode:   "lines+markers",
					Lat:    lats,
					Lon:    lons,
					Text:   timestamps,
					Name:   label,
					Marker: &Marker{Color: oceanPalette[0], Size: 5},
					Line:   &Line{Color: oceanPalette[1], Width: 2},
				},
			},
			Layout: Layout{
				Title:    title,
				Geo:      oceanBaseMap(),
				Template: chartTemplate,
				Height:   500,
			},
		},
		Description: fmt.Sprintf("Drift trajectory of float %s", label),
	}
}

// None is the declared absence of a chart.
func None(description string) *Visualization {
	if description == "" {
		description = "Could not generate visualization for this data."
	}
	return &Visualization{
		ChartType:   ChartTypeNone,
		Description: description,
	}
}

func oceanBaseMap() *Geo {
	return &Geo{
		ShowLand:   true,
		LandColor:  "#e8e8e8",
		ShowOcean:  true,
		OceanColor: "#cce5ff",
		Projection: &Projection{Type: "natural earth"},
	}
}
