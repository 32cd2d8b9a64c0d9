package ingestion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("normalizes to unit length", func(t *testing.T) {
		result := NormalizeVector([]float32{3, 4})
		require.Len(t, result, 2)
		assert.InDelta(t, 0.6, result[0], 0.0001)
		assert.InDelta(t, 0.8, result[1], 0.0001)
	})

	t.Run("unit vector is unchanged", func(t *testing.T) {
		result := NormalizeVector([]float32{1, 0, 0})
		assert.Equal(t, []float32{1, 0, 0}, result)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		result := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, result)
	})

	t.Run("empty vector", func(t *testing.T) {
		result := NormalizeVector([]float32{})
		assert.Empty(t, result)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		input := []float32{3, 4}
		NormalizeVector(input)
		assert.Equal(t, []float32{3, 4}, input)
	})

	t.Run("result has magnitude one", func(t *testing.T) {
		result := NormalizeVector([]float32{0.1, -2.5, 7.3, 0.004})
		var magnitude float64
		for _, v := range result {
			magnitude += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(magnitude), 0.0001)
	})
}
