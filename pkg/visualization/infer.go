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
	"strconv"

	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

// SourceResult pairs a tool name with its result. Order matters: Infer
// walks the slice front to back and the first result that yields a chart
// wins.
type SourceResult struct {
	Name   string
	Result *tool.Result
}

// Infer derives a chart from tool results without calling a model. It
// returns nil when no result carries chartable data, leaving the decision
// to the caller.
//
// Per result the checks run in order: an explicit chart_hint from the
// tool, then a location sample (scatter map), then summary statistics
// (bar chart).
func Infer(results []SourceResult) *Visualization {
	for _, sr := range results {
		if sr.Result == nil || !sr.Result.Success {
			continue
		}
		data, ok := sr.Result.Data.(map[string]interface{})
		if !ok {
			continue
		}

		if hint, ok := data["chart_hint"].(string); ok {
			if viz := fromHint(hint, data); viz != nil {
				return viz
			}
		}
		if viz := scatterMapFrom(data); viz != nil {
			return viz
		}
		if viz := statsSummaryFrom(data); viz != nil {
			return viz
		}
	}
	return nil
}

func fromHint(hint string, data map[string]interface{}) *Visualization {
	switch ChartType(hint) {
	case ChartTypeTrajectoryMap:
		return trajectoryFrom(data)
	case ChartTypeDepthProfile:
		return depthProfileFrom(data)
	case ChartTypeBarChart:
		if viz := comparisonBarFrom(data); viz != nil {
			return viz
		}
		return statsSummaryFrom(data)
	default:
		return nil
	}
}

func trajectoryFrom(data map[string]interface{}) *Visualization {
	traj, ok := data["trajectory"].(*argo.Trajectory)
	if !ok || len(traj.Latitudes) == 0 {
		return nil
	}
	label := ""
	if wmo, ok := intValue(data["wmo_id"]); ok {
		label = strconv.Itoa(wmo)
	}
	return TrajectoryMap(traj.Latitudes, traj.Longitudes, traj.Timestamps, label, "")
}

func depthProfileFrom(data map[string]interface{}) *Visualization {
	depths := floatSlice(data["depths"])
	values := floatSlice(data["values"])
	n := len(depths)
	if len(values) < n {
		n = len(values)
	}
	if n == 0 {
		return nil
	}
	variable := stringValue(data["variable"])
	title := ""
	if wmo, ok := intValue(data["wmo_id"]); ok {
		title = fmt.Sprintf("%s Profile for Float %d", variable, wmo)
	}
	return DepthProfile(depths[:n], values[:n], variable, VariableUnit(variable), title)
}

func scatterMapFrom(data map[string]interface{}) *Visualization {
	locations, ok := data["sample_locations"].([]map[string]float64)
	if !ok {
		return nil
	}
	values := floatSlice(data["values_sample"])
	n := len(locations)
	if len(values) < n {
		n = len(values)
	}
	if n == 0 {
		return nil
	}
	lats := make([]float64, n)
	lons := make([]float64, n)
	for i := 0; i < n; i++ {
		lats[i] = locations[i]["lat"]
		lons[i] = locations[i]["lon"]
	}
	variable := stringValue(data["variable"])
	return ScatterMap(lats, lons, values[:n], variable, VariableUnit(variable), "")
}

func statsSummaryFrom(data map[string]interface{}) *Visualization {
	stats, ok := data["statistics"].(*argo.VariableStats)
	if !ok || stats == nil || stats.Count == 0 {
		return nil
	}
	variable := stringValue(data["variable"])
	return BarChart(
		[]string{"Mean", "Median", "Min", "Max"},
		[][]float64{{stats.Mean, stats.Median, stats.Min, stats.Max}},
		[]string{variable},
		variable,
		VariableUnit(variable),
		fmt.Sprintf("%s Statistics Summary", variable),
	)
}

// comparisonBarFrom charts the per-float rows produced by float
// comparisons. Rows that report an error are skipped.
func comparisonBarFrom(data map[string]interface{}) *Visualization {
	rows, ok := data["comparisons"].([]map[string]interface{})
	if !ok {
		return nil
	}
	var (
		labels []string
		series [][]float64
	)
	for _, row := range rows {
		if _, failed := row["error"]; failed {
			continue
		}
		mean, okMean := floatValue(row["mean"])
		min, okMin := floatValue(row["min"])
		max, okMax := floatValue(row["max"])
		if !okMean || !okMin || !okMax {
			continue
		}
		label := "Float"
		if wmo, ok := intValue(row["wmo_id"]); ok {
			label = fmt.Sprintf("Float %d", wmo)
		}
		labels = append(labels, label)
		series = append(series, []float64{mean, min, max})
	}
	if len(series) == 0 {
		return nil
	}
	variable := stringValue(data["variable"])
	return BarChart(
		[]string{"Mean", "Min", "Max"},
		series,
		labels,
		variable,
		VariableUnit(variable),
		fmt.Sprintf("%s Comparison Across Floats", variable),
	)
}

// Extraction helpers tolerate both the native types tools produce and the
// generic types a JSON round trip leaves behind.

func floatSlice(v interface{}) []float64 {
	switch s := v.(type) {
	case []float64:
		return s
	case []interface{}:
		out := make([]float64, 0, len(s))
		for _, e := range s {
			f, ok := floatValue(e)
			if !ok {
				return nil
			}
			out = append(out, f)
		}
		return out
	default:
		return nil
	}
}

func floatValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
