package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegress_PerfectLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{3, 5, 7, 9, 11} // y = 2x + 1

	slope, p, err := Regress(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, slope, 1e-12)
	assert.InDelta(t, 0.0, p, 1e-9)
}

func TestRegress_SignificantTrend(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		noise := 0.1
		if i%2 == 0 {
			noise = -0.1
		}
		ys[i] = x + noise
	}

	slope, p, err := Regress(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, slope, 0.05)
	assert.Less(t, p, 0.05)
}

func TestRegress_NoTrend(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []float64{1, 5, 1, 5, 1, 5}

	slope, p, err := Regress(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, slope, 0.5)
	assert.Greater(t, p, 0.05)
}

func TestRegress_Errors(t *testing.T) {
	_, _, err := Regress([]float64{1, 2}, []float64{1, 2})
	assert.Error(t, err, "fewer than 3 points")

	_, _, err = Regress([]float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err, "mismatched lengths")

	_, _, err = Regress([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.Error(t, err, "no variance in x")
}

func TestStudentTTwoSided(t *testing.T) {
	// t = 0 carries no evidence against the null
	assert.InDelta(t, 1.0, studentTTwoSided(0, 8), 1e-12)

	// Known quantile: t = 2.306 at df = 8 is the 97.5th percentile,
	// so the two-sided p-value is 0.05
	assert.InDelta(t, 0.05, studentTTwoSided(2.306, 8), 0.001)

	// Symmetry
	assert.InDelta(t, studentTTwoSided(1.5, 10), studentTTwoSided(-1.5, 10), 1e-12)

	// Large |t| drives p toward zero
	assert.Less(t, studentTTwoSided(50, 8), 1e-6)
}
