package features

import (
	"math"
	"sort"
)

// interKeyIntervals converts a series of second-resolution timestamps into
// millisecond gaps between consecutive entries. Empty when fewer than two
// timestamps exist.
func interKeyIntervals(timestamps []float64) []float64 {
	if len(timestamps) < 2 {
		return nil
	}
	ikis := make([]float64, 0, len(timestamps)-1)
	for i := 0; i+1 < len(timestamps); i++ {
		ikis = append(ikis, (timestamps[i+1]-timestamps[i])*1000.0)
	}
	return ikis
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// populationStdDev computes the standard deviation against the full series,
// not a sample estimate (divisor n, not n-1).
func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

func minMax(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// autocorrLag1 estimates the lag-1 autocorrelation of the series: the series
// is mean-centered, then the sum of products of consecutive centered values
// is divided by the sum of squared centered values. A constant series has a
// zero denominator and yields 0; so does a series shorter than two values.
//
// Successive human typing delays are correlated (rhythm); uniform-random or
// fixed-delay bots produce values near zero.
func autocorrLag1(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var num, denom float64
	for i, x := range xs {
		c := x - m
		denom += c * c
		if i > 0 {
			num += c * (xs[i-1] - m)
		}
	}
	if denom == 0 {
		return 0
	}
	return num / denom
}
