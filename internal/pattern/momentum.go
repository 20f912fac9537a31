package pattern

import (
	"fmt"
	"math"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/indicator"
)

// RSIExtremes detects oversold and overbought momentum conditions.
type RSIExtremes struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIExtremes creates a momentum extremes detector.
func NewRSIExtremes(period int, oversold, overbought float64) *RSIExtremes {
	return &RSIExtremes{period: period, oversold: oversold, overbought: overbought}
}

// Name returns the detector name
func (r *RSIExtremes) Name() string { return "RSI Extremes" }

// Description returns the detector description
func (r *RSIExtremes) Description() string {
	return fmt.Sprintf("Detects RSI(%d) below %.0f (oversold) or above %.0f (overbought)",
		r.period, r.oversold, r.overbought)
}

// Detect finds momentum extreme events. Oversold is bullish,
// overbought bearish; strength is the distance past the threshold
// scaled into [0,1].
func (r *RSIExtremes) Detect(candles []candle.Candle) ([]Event, error) {
	if len(candles) <= r.period {
		return nil, fmt.Errorf("need more than %d candles to detect RSI extremes", r.period)
	}

	rsi := indicator.CalculateRSI(candle.Closes(candles), r.period)
	if rsi == nil {
		return nil, fmt.Errorf("RSI unavailable")
	}

	var events []Event
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case v < r.oversold:
			events = append(events, Event{
				Type:      "oversold",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  clamp01((r.oversold - v) / r.oversold),
				Direction: Bullish,
			})
		case v > r.overbought:
			events = append(events, Event{
				Type:      "overbought",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  clamp01((v - r.overbought) / (100 - r.overbought)),
				Direction: Bearish,
			})
		}
	}
	return events, nil
}
