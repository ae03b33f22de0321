package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 10}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.5, 3},
		{0.25, 2},
		{0.95, 8.8},
		{1, 10},
		{1.5, 10},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(xs, tt.q), 1e-9, "q=%v", tt.q)
	}
	assert.Zero(t, Quantile(nil, 0.5))
}

func TestLowerRankReturnsObservedValues(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 10}
	assert.Equal(t, 4.0, LowerRank(xs, 0.95))
	assert.Equal(t, 3.0, LowerRank(xs, 0.5))
	assert.Equal(t, 1.0, LowerRank(xs, -1))
	assert.Equal(t, 10.0, LowerRank(xs, 1))
	assert.Zero(t, LowerRank(nil, 0.5))

	// Clipping to a lower-rank limit leaves the limit unchanged.
	limit := LowerRank(xs, 0.95)
	clipped := []float64{1, 2, 3, 4, limit}
	assert.Equal(t, limit, LowerRank(clipped, 0.95))
}

func TestMedianMAD(t *testing.T) {
	med, mad := MedianMAD([]float64{1, 1, 2, 2, 4, 6, 9})
	assert.Equal(t, 2.0, med)
	assert.Equal(t, 1.0, mad)

	med, mad = MedianMAD(nil)
	assert.Zero(t, med)
	assert.Zero(t, mad)
}
