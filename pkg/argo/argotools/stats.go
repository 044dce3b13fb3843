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
	"errors"
	"fmt"
	"math"

	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/tool"
)

const (
	defaultAnomalyThreshold = 3.0
	maxAnomalySamples       = 10
	minAnomalyValues        = 3
)

// StatisticsTool fetches a region and summarizes one variable.
type StatisticsTool struct {
	manager *argo.Manager
}

// NewStatisticsTool creates the statistics tool.
func NewStatisticsTool(manager *argo.Manager) *StatisticsTool {
	return &StatisticsTool{manager: manager}
}

// Name returns the tool name.
func (t *StatisticsTool) Name() string {
	return "calculate_statistics"
}

// Description returns the tool description for the model.
func (t *StatisticsTool) Description() string {
	return "Calculate mean, standard deviation, min, max, median, and count " +
		"for one variable over a region and time window. " +
		"Use this when the user asks for averages, ranges, or summaries."
}

// InputSchema returns the JSON schema for the tool input.
func (t *StatisticsTool) InputSchema() *tool.JSONSchema {
	props := regionSchemaProps()
	props["variable"] = tool.NewStringSchema("Variable to summarize").
		WithEnum(argo.VariableNames()...)
	return tool.NewObjectSchema(
		"Statistics query parameters",
		props,
		[]string{"variable"},
	)
}

// Execute fetches and summarizes.
func (t *StatisticsTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	variable, fail := canonicalVariable(params, "")
	if fail != nil {
		return fail, nil
	}

	query := regionParams(params)
	query.Variable = variable
	if err := query.Validate(); err != nil {
		return tool.Fail(tool.CodeInvalidParams, err.Error()), nil
	}

	ds, cached := t.manager.GetRegion(ctx, query)
	if ds == nil {
		return fetchFailure(), nil
	}

	stats, err := t.manager.Statistics(ds, variable)
	if err != nil {
		if errors.Is(err, argo.ErrNoValidValues) {
			return tool.Fail("no_valid_values",
				fmt.Sprintf("no valid values for %q in the fetched data", variable)), nil
		}
		return variableNotFound(variable), nil
	}

	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"variable":   variable,
			"n_profiles": ds.NProfiles(),
			"statistics": stats,
			"chart_hint": "bar_chart",
		},
		CacheHit: cached,
		Metadata: map[string]interface{}{"source": ds.Source},
	}, nil
}

var _ tool.Tool = (*StatisticsTool)(nil)

// AnomaliesTool flags measurements whose z-score exceeds a threshold.
type AnomaliesTool struct {
	manager *argo.Manager
}

// NewAnomaliesTool creates the anomaly detection tool.
func NewAnomaliesTool(manager *argo.Manager) *AnomaliesTool {
	return &AnomaliesTool{manager: manager}
}

// Name returns the tool name.
func (t *AnomaliesTool) Name() string {
	return "detect_anomalies"
}

// Description returns the tool description for the model.
func (t *AnomaliesTool) Description() string {
	return "Detect anomalous measurements of one variable over a region: " +
		"values more than a threshold number of standard deviations from the mean. " +
		"Returns the anomaly count, rate, and up to 10 examples."
}

// InputSchema returns the JSON schema for the tool input.
func (t *AnomaliesTool) InputSchema() *tool.JSONSchema {
	props := regionSchemaProps()
	props["variable"] = tool.NewStringSchema("Variable to scan").
		WithEnum(argo.VariableNames()...)
	props["threshold"] = tool.NewNumberSchema("Z-score threshold for flagging").
		WithDefault(defaultAnomalyThreshold)
	return tool.NewObjectSchema(
		"Anomaly detection parameters",
		props,
		[]string{"variable"},
	)
}

// Execute fetches and scans for outliers.
func (t *AnomaliesTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	variable, fail := canonicalVariable(params, "")
	if fail != nil {
		return fail, nil
	}
	threshold := floatParam(params, "threshold", defaultAnomalyThreshold)
	if threshold <= 0 {
		threshold = defaultAnomalyThreshold
	}

	query := regionParams(params)
	query.Variable = variable
	if err := query.Validate(); err != nil {
		return tool.Fail(tool.CodeInvalidParams, err.Error()), nil
	}

	ds, cached := t.manager.GetRegion(ctx, query)
	if ds == nil {
		return fetchFailure(), nil
	}
	if !ds.Has(variable) {
		return variableNotFound(variable), nil
	}

	var valid []float64
	for _, v := range ds.Values(variable) {
		if !isNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < minAnomalyValues {
		return tool.Fail("insufficient_data",
			fmt.Sprintf("need at least %d valid values for anomaly detection, got %d",
				minAnomalyValues, len(valid))), nil
	}

	var sum float64
	for _, v := range valid {
		sum += v
	}
	mean := sum / float64(len(valid))
	var sqDiff float64
	for _, v := range valid {
		d := v - mean
		sqDiff += d * d
	}
	std := math.Sqrt(sqDiff / float64(len(valid)))

	type anomaly struct {
		Index  int     `json:"index"`
		Value  float64 `json:"value"`
		ZScore float64 `json:"z_score"`
	}

	var count int
	samples := make([]anomaly, 0, maxAnomalySamples)
	if std > 0 {
		for i, v := range valid {
			z := (v - mean) / std
			if math.Abs(z) > threshold {
				count++
				if len(samples) < maxAnomalySamples {
					samples = append(samples, anomaly{
						Index:  i,
						Value:  v,
						ZScore: math.Round(z*100) / 100,
					})
				}
			}
		}
	}

	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"variable":     variable,
			"threshold":    threshold,
			"mean":         mean,
			"std":          std,
			"n_values":     len(valid),
			"n_anomalies":  count,
			"anomaly_rate": float64(count) / float64(len(valid)),
			"anomalies":    samples,
		},
		CacheHit: cached,
	}, nil
}

var _ tool.Tool = (*AnomaliesTool)(nil)
