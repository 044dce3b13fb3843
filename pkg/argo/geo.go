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

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1R := lat1 * math.Pi / 180
	lat2R := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1R)*math.Cos(lat2R)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// RadiusToBounds converts a center point and radius into an approximate
// bounding box for prefiltering. One degree of latitude spans about 111 km;
// longitude degrees shrink with the cosine of latitude, clamped so polar
// queries stay finite.
func RadiusToBounds(lat, lon, radiusKm float64) (latMin, latMax, lonMin, lonMax float64) {
	latDelta := radiusKm / 111.0
	lonDelta := radiusKm / (111.0 * math.Max(math.Cos(lat*math.Pi/180), 0.01))

	latMin = math.Max(-90, lat-latDelta)
	latMax = math.Min(90, lat+latDelta)
	lonMin = lon - lonDelta
	lonMax = lon + lonDelta
	return latMin, latMax, lonMin, lonMax
}
