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

import "strings"

// Canonical Argo variable names.
const (
	VarTemperature = "TEMP"
	VarSalinity    = "PSAL"
	VarPressure    = "PRES"
	VarOxygen      = "DOXY"
)

// VariableInfo describes one measurable Argo variable.
type VariableInfo struct {
	Name         string     `json:"name"`
	DisplayName  string     `json:"display_name"`
	Unit         string     `json:"unit"`
	Description  string     `json:"description"`
	TypicalRange [2]float64 `json:"typical_range"`
}

var variables = []VariableInfo{
	{
		Name:         VarTemperature,
		DisplayName:  "Temperature",
		Unit:         "degC",
		Description:  "In-situ sea water temperature",
		TypicalRange: [2]float64{-2, 35},
	},
	{
		Name:         VarSalinity,
		DisplayName:  "Salinity",
		Unit:         "PSU",
		Description:  "Practical salinity",
		TypicalRange: [2]float64{30, 40},
	},
	{
		Name:         VarPressure,
		DisplayName:  "Pressure",
		Unit:         "dbar",
		Description:  "Sea water pressure (approximately depth in meters)",
		TypicalRange: [2]float64{0, 2000},
	},
	{
		Name:         VarOxygen,
		DisplayName:  "Dissolved Oxygen",
		Unit:         "umol/kg",
		Description:  "Dissolved oxygen concentration",
		TypicalRange: [2]float64{0, 400},
	},
}

// Variables returns descriptors for every variable the archive exposes.
func Variables() []VariableInfo {
	out := make([]VariableInfo, len(variables))
	copy(out, variables)
	return out
}

// VariableNames returns the canonical variable names in declaration order.
func VariableNames() []string {
	names := make([]string, len(variables))
	for i, v := range variables {
		names[i] = v.Name
	}
	return names
}

// CanonicalVariable upper-cases and validates a variable name. The second
// return is false when the name is not a known Argo variable.
func CanonicalVariable(name string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, v := range variables {
		if v.Name == upper {
			return upper, true
		}
	}
	return "", false
}
