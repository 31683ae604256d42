// Package formulas holds the small numeric helpers shared by the event study.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
// Returns NaN for an empty slice so callers can't mistake "no data" for zero.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// Sum adds up data.
func Sum(data []float64) float64 {
	return floats.Sum(data)
}

// Median returns the middle value of data, averaging the two middle values
// for an even count. Returns NaN for an empty slice. data is not modified.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// CompoundReturn calculates the cumulative return of a run of periodic
// returns: (1+r1)*(1+r2)*...*(1+rN) - 1.
//
// The product is accumulated in excess-return form, c' = c + r + c*r, which
// is algebraically identical but keeps a single return exact (no 1+r-1
// rounding).
func CompoundReturn(returns []float64) float64 {
	c := 0.0
	for _, r := range returns {
		c = c + r + c*r
	}
	return c
}

// ShareAtLeast returns the fraction of values that are >= threshold.
// Returns NaN for an empty slice.
func ShareAtLeast(data []float64, threshold float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	count := 0
	for _, v := range data {
		if v >= threshold {
			count++
		}
	}
	return float64(count) / float64(len(data))
}
