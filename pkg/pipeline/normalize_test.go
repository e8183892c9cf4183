package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	res := Normalize([]float64{-0.2, 0.1, 0.05, 0.3})
	require.Len(t, res.Scaled, 4)
	assert.False(t, res.Degenerate)
	assert.Zero(t, res.Invalid)

	assert.Equal(t, 0.0, res.Scaled[0])
	assert.Equal(t, 1.0, res.Scaled[3])
	assert.InDelta(t, 0.6, res.Scaled[1], 1e-12)
	for _, v := range res.Scaled {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
	}{
		{name: "single row", scores: []float64{0}},
		{name: "all equal", scores: []float64{0.12, 0.12, 0.12}},
		{name: "no valid scores", scores: []float64{math.NaN(), math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.scores)
			assert.True(t, res.Degenerate)
			require.Len(t, res.Scaled, len(tt.scores))
			for _, v := range res.Scaled {
				assert.True(t, math.IsNaN(v))
			}
		})
	}
}

func TestNormalizeInvalidScores(t *testing.T) {
	res := Normalize([]float64{1, math.NaN(), 3, math.Inf(1)})
	assert.Equal(t, 2, res.Invalid)
	assert.False(t, res.Degenerate)
	assert.Equal(t, 0.0, res.Scaled[0])
	assert.True(t, math.IsNaN(res.Scaled[1]))
	assert.Equal(t, 1.0, res.Scaled[2])
	assert.True(t, math.IsNaN(res.Scaled[3]))
}
