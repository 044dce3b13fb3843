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
	"sort"
	"strings"
)

// Basin holds the bounding box and a short description of a named ocean
// basin. Longitude bounds may wrap the antimeridian (min > max) for the
// Pacific basins.
type Basin struct {
	Name        string  `json:"name"`
	LatMin      float64 `json:"lat_min"`
	LatMax      float64 `json:"lat_max"`
	LonMin      float64 `json:"lon_min"`
	LonMax      float64 `json:"lon_max"`
	Description string  `json:"description"`
}

var basins = map[string]Basin{
	"atlantic": {
		Name: "atlantic", LatMin: -60, LatMax: 60, LonMin: -80, LonMax: 0,
		Description: "Atlantic Ocean between the Americas and Europe/Africa",
	},
	"pacific": {
		Name: "pacific", LatMin: -60, LatMax: 60, LonMin: 100, LonMax: -100,
		Description: "Pacific Ocean, the largest basin, spanning the antimeridian",
	},
	"indian": {
		Name: "indian", LatMin: -60, LatMax: 30, LonMin: 20, LonMax: 120,
		Description: "Indian Ocean between Africa, Asia, and Australia",
	},
	"southern": {
		Name: "southern", LatMin: -90, LatMax: -60, LonMin: -180, LonMax: 180,
		Description: "Southern Ocean encircling Antarctica",
	},
	"arctic": {
		Name: "arctic", LatMin: 60, LatMax: 90, LonMin: -180, LonMax: 180,
		Description: "Arctic Ocean around the North Pole",
	},
	"mediterranean": {
		Name: "mediterranean", LatMin: 30, LatMax: 46, LonMin: -6, LonMax: 36,
		Description: "Mediterranean Sea between Europe and North Africa",
	},
	"north_atlantic": {
		Name: "north_atlantic", LatMin: 20, LatMax: 60, LonMin: -80, LonMax: 0,
		Description: "North Atlantic, home of the Gulf Stream and deep water formation",
	},
	"south_atlantic": {
		Name: "south_atlantic", LatMin: -60, LatMax: 0, LonMin: -70, LonMax: 20,
		Description: "South Atlantic between South America and Africa",
	},
	"north_pacific": {
		Name: "north_pacific", LatMin: 20, LatMax: 60, LonMin: 100, LonMax: -100,
		Description: "North Pacific, including the Kuroshio and subpolar gyres",
	},
	"south_pacific": {
		Name: "south_pacific", LatMin: -60, LatMax: 0, LonMin: 150, LonMax: -70,
		Description: "South Pacific subtropical gyre region",
	},
}

// BasinByName looks up a basin by name. Lookup is case-insensitive and
// tolerates spaces in place of underscores ("North Atlantic").
func BasinByName(name string) (Basin, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	b, ok := basins[key]
	return b, ok
}

// BasinNames returns all known basin names, sorted.
func BasinNames() []string {
	names := make([]string, 0, len(basins))
	for name := range basins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Basins returns all basin descriptors in name order.
func Basins() []Basin {
	out := make([]Basin, 0, len(basins))
	for _, name := range BasinNames() {
		out = append(out, basins[name])
	}
	return out
}
