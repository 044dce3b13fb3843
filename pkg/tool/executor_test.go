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
package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_UnknownTool(t *testing.T) {
	exec := NewExecutor(NewRegistry())

	result := exec.Execute(context.Background(), "missing", nil)

	require.NotNil(t, result)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, CodeUnknownTool, result.Error.Code)
	assert.Contains(t, result.Error.Message, "missing")
}

func TestExecutor_UnknownTool_SuggestsAvailable(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "query_argo_region"})
	exec := NewExecutor(reg)

	result := exec.Execute(context.Background(), "query_argo", nil)

	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Suggestion, "query_argo_region")
}

func TestExecutor_ToolError_BecomesResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "failing", err: errBoom})
	exec := NewExecutor(reg)

	result := exec.Execute(context.Background(), "failing", nil)

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, CodeExecutionFailed, result.Error.Code)
	assert.Equal(t, "boom", result.Error.Message)
}

func TestExecutor_Success_StampsExecutionTime(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{
		name:   "ok",
		result: &Result{Success: true, Data: "payload", ExecutionTimeMs: 99999},
	})
	exec := NewExecutor(reg)

	result := exec.Execute(context.Background(), "ok", nil)

	assert.True(t, result.Success)
	assert.Equal(t, "payload", result.Data)
	// Executor timing is authoritative; the tool's own value is overwritten.
	assert.Less(t, result.ExecutionTimeMs, int64(99999))
}

func TestExecutor_NilResult_BecomesSuccess(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "silent"})
	exec := NewExecutor(reg)

	result := exec.Execute(context.Background(), "silent", nil)

	require.NotNil(t, result)
	assert.True(t, result.Success)
}

func TestExecutor_SchemaValidation(t *testing.T) {
	schema := NewObjectSchema("test params", map[string]*JSONSchema{
		"variable": NewStringSchema("variable code").WithEnum("TEMP", "PSAL"),
		"lat_min":  NewNumberSchema("southern bound").WithRange(-90, 90),
	}, []string{"variable"})

	reg := NewRegistry()
	reg.Register(&mockTool{
		name:   "typed",
		schema: schema,
		result: &Result{Success: true},
	})
	exec := NewExecutor(reg)

	tests := []struct {
		name     string
		params   map[string]interface{}
		wantOK   bool
		wantCode string
	}{
		{
			name:   "valid params",
			params: map[string]interface{}{"variable": "TEMP", "lat_min": 10.0},
			wantOK: true,
		},
		{
			name:     "missing required field",
			params:   map[string]interface{}{"lat_min": 10.0},
			wantOK:   false,
			wantCode: CodeInvalidParams,
		},
		{
			name:     "enum violation",
			params:   map[string]interface{}{"variable": "WIND"},
			wantOK:   false,
			wantCode: CodeInvalidParams,
		},
		{
			name:     "range violation",
			params:   map[string]interface{}{"variable": "TEMP", "lat_min": 120.0},
			wantOK:   false,
			wantCode: CodeInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := exec.Execute(context.Background(), "typed", tt.params)
			assert.Equal(t, tt.wantOK, result.Success)
			if !tt.wantOK {
				require.NotNil(t, result.Error)
				assert.Equal(t, tt.wantCode, result.Error.Code)
			}
		})
	}
}

func TestExecutor_NilSchema_SkipsValidation(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&mockTool{name: "loose", result: &Result{Success: true}})
	exec := NewExecutor(reg)

	result := exec.Execute(context.Background(), "loose", map[string]interface{}{"anything": true})
	assert.True(t, result.Success)
}
