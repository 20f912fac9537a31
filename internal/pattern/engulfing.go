package pattern

import (
	"fmt"
	"math"

	"github.com/amirphl/signal-bot/internal/candle"
)

// Engulfing detects bullish and bearish engulfing candles.
type Engulfing struct{}

// NewEngulfing creates an engulfing pattern detector.
func NewEngulfing() *Engulfing {
	return &Engulfing{}
}

// Name returns the detector name
func (e *Engulfing) Name() string { return "Engulfing" }

// Description returns the detector description
func (e *Engulfing) Description() string {
	return "Detects candles whose body completely engulfs the previous candle's body"
}

// Detect finds engulfing events in the given candles.
func (e *Engulfing) Detect(candles []candle.Candle) ([]Event, error) {
	if len(candles) < 2 {
		return nil, fmt.Errorf("need at least 2 candles to detect engulfing patterns")
	}

	var events []Event
	for i := 1; i < len(candles); i++ {
		current, previous := candles[i], candles[i-1]
		if current.Validate() != nil || previous.Validate() != nil {
			continue
		}

		if current.IsBullish() && previous.IsBearish() && engulfs(current, previous) {
			events = append(events, Event{
				Type:      "bullish_engulfing",
				Index:     i,
				Timestamp: current.Timestamp,
				Strength:  engulfingStrength(current, previous),
				Direction: Bullish,
			})
		} else if current.IsBearish() && previous.IsBullish() && engulfs(current, previous) {
			events = append(events, Event{
				Type:      "bearish_engulfing",
				Index:     i,
				Timestamp: current.Timestamp,
				Strength:  engulfingStrength(current, previous),
				Direction: Bearish,
			})
		}
	}
	return events, nil
}

// engulfs reports whether the current candle's body completely covers
// the previous candle's body.
func engulfs(current, previous candle.Candle) bool {
	currentHigh := math.Max(current.Open, current.Close)
	currentLow := math.Min(current.Open, current.Close)
	previousHigh := math.Max(previous.Open, previous.Close)
	previousLow := math.Min(previous.Open, previous.Close)
	return currentHigh >= previousHigh && currentLow <= previousLow
}

// engulfingStrength scales with how much larger the engulfing body is
// and gets a boost on elevated volume.
func engulfingStrength(current, previous candle.Candle) float64 {
	previousBody := previous.BodySize()
	if previousBody == 0 {
		return StrengthWeak
	}
	ratio := current.BodySize() / previousBody
	strength := clamp01(ratio / 2.0)
	if current.Volume > previous.Volume*1.5 {
		strength = clamp01(strength * 1.2)
	}
	return math.Max(strength, StrengthWeak)
}
