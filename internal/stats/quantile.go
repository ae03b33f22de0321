// Package stats holds the order statistics shared by cleaning and profiling.
// Every function expects its input sorted ascending.
package stats

import (
	"math"
	"sort"
)

// Quantile uses linear interpolation between closest ranks (R type 7).
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// LowerRank returns the closest observed value at or below the q position.
func LowerRank(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	return sorted[int(math.Floor(q*float64(len(sorted)-1)))]
}

// MedianMAD returns the median and the median absolute deviation.
func MedianMAD(sorted []float64) (median, mad float64) {
	median = Quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, Quantile(dev, 0.5)
}
