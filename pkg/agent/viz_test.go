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
package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagic-labs/driftchat/pkg/argo"
	"github.com/pelagic-labs/driftchat/pkg/tool"
	"github.com/pelagic-labs/driftchat/pkg/visualization"
)

func trajectoryResult() *tool.Result {
	return &tool.Result{
		Success: true,
		Data: map[string]interface{}{
			"chart_hint": "trajectory_map",
			"wmo_id":     6902746,
			"trajectory": &argo.Trajectory{
				Latitudes:   []float64{45.1, 45.3, 45.6},
				Longitudes:  []float64{-30.2, -30.0, -29.7},
				Timestamps:  []string{"2026-07-01", "2026-07-11", "2026-07-21"},
				TotalPoints: 3,
			},
		},
	}
}

func TestVizPrefersInferredChart(t *testing.T) {
	llm := scripted()
	agent := NewVizAgent(llm, DefaultMaxLLMRetries, nil)

	state := NewState(nil, "map float 6902746")
	state.AddResult("get_float_trajectory_round1", trajectoryResult())

	agent.Run(context.Background(), state)

	require.NotNil(t, state.Visualization)
	assert.Equal(t, visualization.ChartTypeTrajectoryMap, state.Visualization.ChartType)
	require.NotNil(t, state.Visualization.PlotlyJSON)

	// Inference succeeded, so the model was never consulted
	assert.Zero(t, llm.callCount())
}

func TestVizModelFallbackParsesFencedSpec(t *testing.T) {
	spec := "Here is the chart you asked for:\n```json\n" +
		`{"chart_type": "bar_chart", "plotly_json": {"data": [{"type": "bar", "x": ["TEMP"], "y": [14.2]}], "layout": {"title": "Mean Temperature"}}, "description": "Mean temperature"}` +
		"\n```\nLet me know if you need anything else."

	llm := scripted(textReply(spec))
	agent := NewVizAgent(llm, DefaultMaxLLMRetries, nil)

	state := NewState(nil, "chart something")
	agent.Run(context.Background(), state)

	require.Equal(t, 1, llm.callCount())
	require.NotNil(t, state.Visualization)
	assert.Equal(t, visualization.ChartTypeBarChart, state.Visualization.ChartType)
	require.NotNil(t, state.Visualization.PlotlyJSON)
	require.Len(t, state.Visualization.PlotlyJSON.Data, 1)
	assert.Equal(t, "Mean Temperature", state.Visualization.PlotlyJSON.Layout.Title)
	assert.Equal(t, "Mean temperature", state.Visualization.Description)
}

func TestVizModelFallbackSendsResultsPayload(t *testing.T) {
	llm := scripted(textReply(`{"chart_type": "none", "plotly_json": null, "description": "nothing to chart"}`))
	agent := NewVizAgent(llm, DefaultMaxLLMRetries, nil)

	state := NewState(nil, "chart the comparison")
	state.AddResult("get_ocean_basin_info_round1", &tool.Result{
		Success: true,
		Data:    map[string]interface{}{"basin": "north_atlantic"},
	})

	agent.Run(context.Background(), state)

	require.Equal(t, 1, llm.callCount())
	call := llm.call(0)
	assert.Equal(t, vizSystemPrompt, call.messages[0].Content)
	assert.Contains(t, call.messages[1].Content, "get_ocean_basin_info_round1")
	assert.Contains(t, call.messages[1].Content, "north_atlantic")

	require.NotNil(t, state.Visualization)
	assert.Equal(t, visualization.ChartTypeNone, state.Visualization.ChartType)
	assert.Equal(t, "nothing to chart", state.Visualization.Description)
}

func TestVizModelGarbageDegradesToNone(t *testing.T) {
	tests := []struct {
		name  string
		reply scriptedReply
	}{
		{"no json at all", textReply("I cannot produce a chart for this.")},
		{"unknown chart type", textReply(`{"chart_type": "pie_chart", "plotly_json": {"data": [{"type": "pie"}]}, "description": ""}`)},
		{"figure missing traces", textReply(`{"chart_type": "bar_chart", "plotly_json": {"data": []}, "description": ""}`)},
		{"model error", errorReply("bad request: status 400")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := scripted(tt.reply)
			agent := NewVizAgent(llm, DefaultMaxLLMRetries, nil)

			state := NewState(nil, "chart something")
			agent.Run(context.Background(), state)

			require.NotNil(t, state.Visualization)
			assert.Equal(t, visualization.ChartTypeNone, state.Visualization.ChartType)
			assert.Nil(t, state.Visualization.PlotlyJSON)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extractJSON(`{"a": 1}`))
	assert.Equal(t, `{"a": 1}`, extractJSON("Sure thing:\n```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": {"b": 2}}`, extractJSON(`prefix {"a": {"b": 2}} suffix`))
	assert.Equal(t, "no braces here", extractJSON("no braces here"))
}
