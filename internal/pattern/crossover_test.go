package pattern

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/signal-bot/internal/candle"
)

// candlesFromCloses builds a valid candle series around closing prices.
func candlesFromCloses(closes []float64) []candle.Candle {
	now := time.Now().Truncate(time.Minute)
	candles := make([]candle.Candle, len(closes))
	for i, c := range closes {
		candles[i] = candle.Candle{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
			Symbol:    "TEST",
			Timeframe: "1m",
			Source:    "test",
		}
	}
	return candles
}

func TestMACrossover(t *testing.T) {
	detector := NewMACrossover(2, 3)

	t.Run("Bullish crossover", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 10, 10, 10, 20})
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "bullish_crossover", events[0].Type)
		assert.Equal(t, Bullish, events[0].Direction)
		assert.Equal(t, 4, events[0].Index)
	})

	t.Run("Bearish crossover", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 10, 10, 10, 2})
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "bearish_crossover", events[0].Type)
		assert.Equal(t, Bearish, events[0].Direction)
		assert.Equal(t, 4, events[0].Index)
	})

	t.Run("No crossover on flat prices", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 10, 10, 10, 10, 10})
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Insufficient history", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 11})
		_, err := detector.Detect(candles)
		assert.Error(t, err)
	})

	t.Run("Never bullish and bearish at the same index", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		closes := make([]float64, 300)
		price := 100.0
		for i := range closes {
			price += rng.Float64()*4 - 2
			closes[i] = price
		}

		events, err := detector.Detect(candlesFromCloses(closes))
		require.NoError(t, err)

		seen := make(map[int]Direction)
		for _, e := range events {
			prev, ok := seen[e.Index]
			if ok {
				assert.Equal(t, prev, e.Direction, "both directions at index %d", e.Index)
			}
			seen[e.Index] = e.Direction
		}
	})
}
