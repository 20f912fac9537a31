package pattern

import (
	"fmt"
	"math"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/indicator"
)

// BollingerBreakout detects closes outside the Bollinger Bands.
type BollingerBreakout struct {
	period int
	stdDev float64
}

// NewBollingerBreakout creates a volatility breakout detector.
func NewBollingerBreakout(period int, stdDev float64) *BollingerBreakout {
	return &BollingerBreakout{period: period, stdDev: stdDev}
}

// Name returns the detector name
func (b *BollingerBreakout) Name() string { return "Bollinger Breakout" }

// Description returns the detector description
func (b *BollingerBreakout) Description() string {
	return fmt.Sprintf("Detects closes outside the Bollinger(%d, %.1f) bands", b.period, b.stdDev)
}

// Detect finds volatility breakout events. A close above the upper
// band is bullish, below the lower band bearish; strength is the
// distance past the band relative to the band width.
func (b *BollingerBreakout) Detect(candles []candle.Candle) ([]Event, error) {
	if len(candles) < b.period {
		return nil, fmt.Errorf("need at least %d candles to detect Bollinger breakouts", b.period)
	}

	closes := candle.Closes(candles)
	bb := indicator.CalculateBollingerBands(closes, b.period, b.stdDev)
	if bb == nil {
		return nil, fmt.Errorf("Bollinger Bands unavailable")
	}

	var events []Event
	for i := b.period - 1; i < len(candles); i++ {
		if math.IsNaN(bb.Upper[i]) {
			continue
		}
		width := bb.Upper[i] - bb.Lower[i]
		if width <= 0 {
			continue
		}
		switch {
		case closes[i] > bb.Upper[i]:
			events = append(events, Event{
				Type:      "volatility_breakout",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  clamp01((closes[i] - bb.Upper[i]) / width),
				Direction: Bullish,
			})
		case closes[i] < bb.Lower[i]:
			events = append(events, Event{
				Type:      "volatility_breakdown",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  clamp01((bb.Lower[i] - closes[i]) / width),
				Direction: Bearish,
			})
		}
	}
	return events, nil
}
