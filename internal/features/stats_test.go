package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterKeyIntervals(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []float64
		want       []float64
	}{
		{name: "empty", timestamps: nil, want: nil},
		{name: "single", timestamps: []float64{1.0}, want: nil},
		{name: "pair", timestamps: []float64{1.0, 1.05}, want: []float64{50}},
		{name: "series", timestamps: []float64{0, 0.03, 0.08, 0.10}, want: []float64{30, 50, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interKeyIntervals(tt.timestamps)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestDescriptiveStats(t *testing.T) {
	xs := []float64{30, 50, 20, 50, 50, 50}

	assert.InDelta(t, 250.0/6.0, mean(xs), 1e-9)
	assert.InDelta(t, 12.133516, populationStdDev(xs), 1e-5)
	assert.InDelta(t, 50.0, median(xs), 1e-9)

	lo, hi := minMax(xs)
	assert.Equal(t, 20.0, lo)
	assert.Equal(t, 50.0, hi)
}

func TestDescriptiveStats_EmptyGuards(t *testing.T) {
	assert.Zero(t, mean(nil))
	assert.Zero(t, populationStdDev(nil))
	assert.Zero(t, median(nil))
	lo, hi := minMax(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestMedian_OddLength(t *testing.T) {
	assert.Equal(t, 30.0, median([]float64{50, 30, 10}))
}

func TestPopulationStdDev_IsNotSampleStdDev(t *testing.T) {
	// Population variance of {1, 3} is 1 (divisor n); a sample estimate
	// would be 2 (divisor n-1).
	assert.InDelta(t, 1.0, populationStdDev([]float64{1, 3}), 1e-9)
}

func TestAutocorrLag1(t *testing.T) {
	t.Run("alternating series is strongly negative", func(t *testing.T) {
		// Centered values alternate +-20, so the estimate is -(n-1)/n.
		got := autocorrLag1([]float64{10, 50, 10, 50, 10, 50})
		assert.InDelta(t, -5.0/6.0, got, 1e-9)
	})

	t.Run("constant series has guarded zero denominator", func(t *testing.T) {
		assert.Zero(t, autocorrLag1([]float64{5, 5, 5, 5}))
	})

	t.Run("fewer than two values", func(t *testing.T) {
		assert.Zero(t, autocorrLag1(nil))
		assert.Zero(t, autocorrLag1([]float64{42}))
	})

	t.Run("trending series is positive", func(t *testing.T) {
		got := autocorrLag1([]float64{10, 20, 30, 40, 50, 40, 30, 20})
		assert.Greater(t, got, 0.0)
	})
}
