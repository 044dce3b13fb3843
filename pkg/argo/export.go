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
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Profiles"

// ExportXLSX flattens a dataset into a spreadsheet: one row per profile and
// depth level, with the requested variable's value and QC flag. Cells for
// QC-rejected (NaN) measurements stay empty. The caller owns closing the
// returned file.
func ExportXLSX(ds *Dataset, variable string) (*excelize.File, error) {
	name, ok := CanonicalVariable(variable)
	if !ok {
		return nil, fmt.Errorf("invalid variable %q, must be one of %v", variable, VariableNames())
	}
	if !ds.Has(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrVariableNotFound)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	header := []interface{}{
		"wmo_id", "cycle_number", "time", "latitude", "longitude",
		"pressure_dbar", name, name + "_qc",
	}
	if err := setRow(f, 1, header); err != nil {
		_ = f.Close()
		return nil, err
	}

	row := 2
	for i := range ds.Profiles {
		p := &ds.Profiles[i]
		pressure := p.Pressure()
		values := p.Variables[name]
		flags := p.QCFlags[name]

		for level := range values {
			cells := []interface{}{
				p.FloatID,
				p.CycleNumber,
				p.Timestamp.Format("2006-01-02T15:04:05"),
				p.Latitude,
				p.Longitude,
			}
			if level < len(pressure) && !isNaN(pressure[level]) {
				cells = append(cells, pressure[level])
			} else {
				cells = append(cells, nil)
			}
			if !isNaN(values[level]) {
				cells = append(cells, values[level])
			} else {
				cells = append(cells, nil)
			}
			if level < len(flags) {
				cells = append(cells, flags[level])
			} else {
				cells = append(cells, nil)
			}

			if err := setRow(f, row, cells); err != nil {
				_ = f.Close()
				return nil, err
			}
			row++
		}
	}

	return f, nil
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	for col, v := range cells {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, v); err != nil {
			return fmt.Errorf("writing cell %s: %w", cell, err)
		}
	}
	return nil
}
