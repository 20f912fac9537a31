package pattern

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/signal-bot/internal/candle"
)

// failingDetector always errors, to exercise Scan degradation.
type failingDetector struct{}

func (f *failingDetector) Name() string        { return "Failing" }
func (f *failingDetector) Description() string { return "always fails" }
func (f *failingDetector) Detect([]candle.Candle) ([]Event, error) {
	return nil, fmt.Errorf("boom")
}

func TestScan(t *testing.T) {
	t.Run("Faulty detector does not abort others", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 10, 10, 10, 20})
		detectors := []Detector{&failingDetector{}, NewMACrossover(2, 3)}

		events := Scan(candles, detectors, zerolog.Nop())
		require.Len(t, events, 1)
		assert.Equal(t, "bullish_crossover", events[0].Type)
	})

	t.Run("Short history yields empty events, not an error", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 11})
		events := Scan(candles, Defaults(), zerolog.Nop())
		assert.Empty(t, events)
	})

	t.Run("Empty input", func(t *testing.T) {
		events := Scan(nil, Defaults(), zerolog.Nop())
		assert.Empty(t, events)
	})
}

func TestVolumeSpike(t *testing.T) {
	detector := NewVolumeSpike(3, 2.0)
	now := time.Now().Truncate(time.Minute)

	mkCandle := func(i int, volume float64) candle.Candle {
		return candle.Candle{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: volume, Symbol: "TEST", Timeframe: "1m", Source: "test",
		}
	}

	t.Run("Spike above twice the average", func(t *testing.T) {
		candles := []candle.Candle{mkCandle(0, 10), mkCandle(1, 10), mkCandle(2, 10), mkCandle(3, 100)}
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "volume_spike", events[0].Type)
		assert.Equal(t, Neutral, events[0].Direction)
		assert.Equal(t, 3, events[0].Index)
		assert.Greater(t, events[0].Strength, 0.0)
		assert.LessOrEqual(t, events[0].Strength, 1.0)
	})

	t.Run("Steady volume produces nothing", func(t *testing.T) {
		candles := []candle.Candle{mkCandle(0, 10), mkCandle(1, 11), mkCandle(2, 9), mkCandle(3, 10)}
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Insufficient history", func(t *testing.T) {
		_, err := detector.Detect([]candle.Candle{mkCandle(0, 10)})
		assert.Error(t, err)
	})
}

func TestBollingerBreakout(t *testing.T) {
	detector := NewBollingerBreakout(3, 1.0)

	t.Run("Close above the upper band", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 11, 10, 15})
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		require.NotEmpty(t, events)

		last := events[len(events)-1]
		assert.Equal(t, "volatility_breakout", last.Type)
		assert.Equal(t, Bullish, last.Direction)
		assert.Equal(t, 3, last.Index)
		assert.Greater(t, last.Strength, 0.0)
	})

	t.Run("Close below the lower band", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 11, 10, 5})
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		require.NotEmpty(t, events)

		last := events[len(events)-1]
		assert.Equal(t, "volatility_breakdown", last.Type)
		assert.Equal(t, Bearish, last.Direction)
	})

	t.Run("Constant prices collapse the bands and produce nothing", func(t *testing.T) {
		candles := candlesFromCloses([]float64{10, 10, 10, 10})
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestIchimokuCross(t *testing.T) {
	detector := NewIchimokuCross()

	rampAfter := func(n, flat int, step float64) []float64 {
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 100
			if i >= flat {
				closes[i] = 100 + float64(i-flat+1)*step
			}
		}
		return closes
	}

	t.Run("Bullish Tenkan/Kijun cross", func(t *testing.T) {
		candles := candlesFromCloses(rampAfter(80, 52, 1))
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		require.NotEmpty(t, events)
		assert.Equal(t, "tenkan_kijun_bullish_cross", events[0].Type)
		assert.Equal(t, Bullish, events[0].Direction)
	})

	t.Run("Bearish Tenkan/Kijun cross", func(t *testing.T) {
		candles := candlesFromCloses(rampAfter(80, 52, -1))
		events, err := detector.Detect(candles)
		require.NoError(t, err)
		require.NotEmpty(t, events)
		assert.Equal(t, "tenkan_kijun_bearish_cross", events[0].Type)
		assert.Equal(t, Bearish, events[0].Direction)
	})

	t.Run("Insufficient history", func(t *testing.T) {
		_, err := detector.Detect(candlesFromCloses(rampAfter(40, 20, 1)))
		assert.Error(t, err)
	})
}

func TestEngulfing(t *testing.T) {
	detector := NewEngulfing()
	now := time.Now().Truncate(time.Minute)

	t.Run("Bullish engulfing", func(t *testing.T) {
		previous := candle.Candle{
			Timestamp: now, Open: 105, High: 107, Low: 100, Close: 102, Volume: 1000,
		}
		current := candle.Candle{
			Timestamp: now.Add(time.Minute), Open: 101, High: 108, Low: 99, Close: 106, Volume: 1600,
		}
		events, err := detector.Detect([]candle.Candle{previous, current})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "bullish_engulfing", events[0].Type)
		assert.Equal(t, Bullish, events[0].Direction)
		assert.GreaterOrEqual(t, events[0].Strength, StrengthWeak)
	})

	t.Run("Bearish engulfing", func(t *testing.T) {
		previous := candle.Candle{
			Timestamp: now, Open: 100, High: 107, Low: 99, Close: 105, Volume: 1000,
		}
		current := candle.Candle{
			Timestamp: now.Add(time.Minute), Open: 107, High: 108, Low: 98, Close: 99, Volume: 1600,
		}
		events, err := detector.Detect([]candle.Candle{previous, current})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "bearish_engulfing", events[0].Type)
		assert.Equal(t, Bearish, events[0].Direction)
	})

	t.Run("Insufficient history", func(t *testing.T) {
		_, err := detector.Detect([]candle.Candle{{Timestamp: now, Open: 1, High: 2, Low: 0.5, Close: 1.5}})
		assert.Error(t, err)
	})
}

func TestDoji(t *testing.T) {
	detector := NewDoji()
	now := time.Now().Truncate(time.Minute)

	t.Run("Small body is a doji", func(t *testing.T) {
		c := candle.Candle{
			Timestamp: now, Open: 100, High: 105, Low: 95, Close: 100.2, Volume: 10,
		}
		events, err := detector.Detect([]candle.Candle{c})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "doji", events[0].Type)
		assert.Equal(t, Neutral, events[0].Direction)
	})

	t.Run("Large body is not a doji", func(t *testing.T) {
		c := candle.Candle{
			Timestamp: now, Open: 96, High: 105, Low: 95, Close: 104, Volume: 10,
		}
		events, err := detector.Detect([]candle.Candle{c})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
