package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		period   int
		expected []float64
		isNil    bool
	}{
		{
			name:     "Basic SMA",
			prices:   []float64{1, 2, 3, 4, 5},
			period:   3,
			expected: []float64{math.NaN(), math.NaN(), 2, 3, 4},
		},
		{
			name:     "Period of one",
			prices:   []float64{1, 2, 3},
			period:   1,
			expected: []float64{1, 2, 3},
		},
		{
			name:   "Insufficient data",
			prices: []float64{1, 2},
			period: 3,
			isNil:  true,
		},
		{
			name:   "Invalid period",
			prices: []float64{1, 2, 3},
			period: 0,
			isNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateSMA(tt.prices, tt.period)
			if tt.isNil {
				assert.Nil(t, result)
				return
			}
			assert.Equal(t, len(tt.expected), len(result))
			for i := range tt.expected {
				if math.IsNaN(tt.expected[i]) {
					assert.True(t, math.IsNaN(result[i]), "Expected NaN at index %d", i)
				} else {
					assert.InDelta(t, tt.expected[i], result[i], 1e-9, "SMA mismatch at index %d", i)
				}
			}
		})
	}
}

func TestCalculateEMA(t *testing.T) {
	t.Run("Seeded with SMA of first window", func(t *testing.T) {
		ema := CalculateEMA([]float64{1, 2, 3, 4, 5}, 3)
		assert.NotNil(t, ema)
		assert.True(t, math.IsNaN(ema[0]))
		assert.True(t, math.IsNaN(ema[1]))
		assert.InDelta(t, 2.0, ema[2], 1e-9)
		assert.InDelta(t, 3.0, ema[3], 1e-9)
		assert.InDelta(t, 4.0, ema[4], 1e-9)
	})

	t.Run("Flat prices stay flat", func(t *testing.T) {
		ema := CalculateEMA([]float64{7, 7, 7, 7, 7, 7}, 4)
		for i := 3; i < len(ema); i++ {
			assert.InDelta(t, 7.0, ema[i], 1e-9)
		}
	})

	t.Run("Insufficient data", func(t *testing.T) {
		assert.Nil(t, CalculateEMA([]float64{1, 2}, 3))
	})

	t.Run("Invalid period", func(t *testing.T) {
		assert.Nil(t, CalculateEMA([]float64{1, 2, 3}, -1))
	})
}
