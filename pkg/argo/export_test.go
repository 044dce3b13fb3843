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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportXLSX(t *testing.T) {
	ds := &Dataset{
		Profiles: []Profile{
			{
				FloatID:     "6902746",
				CycleNumber: 3,
				Latitude:    42.5,
				Longitude:   -30.0,
				Timestamp:   time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC),
				Variables: map[string][]float64{
					VarTemperature: {18.5, math.NaN()},
					VarPressure:    {5, 100},
				},
				QCFlags: map[string][]int{
					VarTemperature: {1, 4},
				},
			},
		},
	}

	f, err := ExportXLSX(ds, "temp")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	header, err := f.GetCellValue(exportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "wmo_id", header)

	varHeader, err := f.GetCellValue(exportSheet, "G1")
	require.NoError(t, err)
	assert.Equal(t, "TEMP", varHeader)

	wmo, err := f.GetCellValue(exportSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "6902746", wmo)

	value, err := f.GetCellValue(exportSheet, "G2")
	require.NoError(t, err)
	assert.Equal(t, "18.5", value)

	// The NaN measurement on the second level leaves its cell empty.
	missing, err := f.GetCellValue(exportSheet, "G3")
	require.NoError(t, err)
	assert.Equal(t, "", missing)

	qc, err := f.GetCellValue(exportSheet, "H3")
	require.NoError(t, err)
	assert.Equal(t, "4", qc)
}

func TestExportXLSX_RejectsUnknownVariable(t *testing.T) {
	_, err := ExportXLSX(&Dataset{}, "CHLA")
	assert.Error(t, err)
}

func TestExportXLSX_RejectsAbsentVariable(t *testing.T) {
	ds := &Dataset{Profiles: []Profile{{
		Variables: map[string][]float64{VarTemperature: {10}},
	}}}
	_, err := ExportXLSX(ds, "DOXY")
	assert.ErrorIs(t, err, ErrVariableNotFound)
}
