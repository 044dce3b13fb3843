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

import "time"

// profileDensity is the rough global average Argo sampling density, in
// profiles per square degree per day.
const profileDensity = 0.15

// undatedQueryDays approximates the archive span when a query carries no
// date bounds (~25 years of Argo operations).
const undatedQueryDays = 365 * 25

// Estimate predicts how much data a query would pull before fetching it.
type Estimate struct {
	AreaDeg2 int `json:"area_deg2"`
	Days     int `json:"days"`
	Profiles int `json:"estimated_profiles"`
}

// EstimateQuerySize predicts the profile count a query would return:
// area in square degrees times day span times the global sampling density,
// scaled down for narrow depth windows.
func EstimateQuerySize(p QueryParams) Estimate {
	area := int(abs(p.LatMax-p.LatMin) * abs(p.LonMax-p.LonMin))

	days := undatedQueryDays
	if p.StartDate != "" && p.EndDate != "" {
		d0, err0 := ParseDate(p.StartDate)
		d1, err1 := ParseDate(p.EndDate)
		if err0 == nil && err1 == nil {
			days = int(d1.Sub(d0).Hours() / 24)
			if days < 1 {
				days = 1
			}
		}
	}

	depthFraction := (p.DepthMax - p.DepthMin) / 2000
	if depthFraction > 1 {
		depthFraction = 1
	}
	if depthFraction < 0 {
		depthFraction = 0
	}

	return Estimate{
		AreaDeg2: area,
		Days:     days,
		Profiles: int(float64(area) * float64(days) * profileDensity * depthFraction),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// applyDateDefaults fills missing date bounds. Explicit dates pass through
// unchanged; when both are missing the window is the defaultDays ending at
// now; a single missing bound is derived from the other, never extending
// past now.
func applyDateDefaults(startDate, endDate string, defaultDays int, now time.Time) (string, string) {
	const layout = "2006-01-02"
	today := now.UTC()

	switch {
	case startDate != "" && endDate != "":
		return startDate, endDate

	case startDate == "" && endDate == "":
		return today.AddDate(0, 0, -defaultDays).Format(layout), today.Format(layout)

	case startDate == "":
		end, err := ParseDate(endDate)
		if err != nil {
			end = today
		}
		return end.AddDate(0, 0, -defaultDays).Format(layout), endDate

	default: // endDate == ""
		start, err := ParseDate(startDate)
		if err != nil {
			start = today.AddDate(0, 0, -defaultDays)
		}
		end := start.AddDate(0, 0, defaultDays)
		if end.After(today) {
			end = today
		}
		return startDate, end.Format(layout)
	}
}
