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
	"sort"
)

// validValues drops NaN entries, returning only real measurements.
func validValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !isNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// computeStats summarizes a slice of valid (non-NaN) values. The slice must
// be non-empty. Std is the population standard deviation; the median of an
// even-length slice is the mean of the two middle values.
func computeStats(valid []float64) VariableStats {
	sorted := make([]float64, len(valid))
	copy(sorted, valid)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	mean := sum / float64(n)

	var sqDiff float64
	for _, v := range sorted {
		d := v - mean
		sqDiff += d * d
	}

	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return VariableStats{
		Mean:   mean,
		Std:    math.Sqrt(sqDiff / float64(n)),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Median: median,
		Count:  n,
	}
}

// Percentile returns the p-th percentile (0-100) of the values using linear
// interpolation between closest ranks. NaN entries are ignored.
func Percentile(values []float64, p float64) float64 {
	valid := validValues(values)
	if len(valid) == 0 {
		return math.NaN()
	}
	sort.Float64s(valid)
	if len(valid) == 1 {
		return valid[0]
	}

	rank := p / 100 * float64(len(valid)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return valid[lower]
	}
	frac := rank - float64(lower)
	return valid[lower] + frac*(valid[upper]-valid[lower])
}
