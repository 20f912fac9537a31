package pattern

import (
	"fmt"

	"github.com/amirphl/signal-bot/internal/candle"
)

// Doji detects indecision candles with a very small body.
type Doji struct{}

// NewDoji creates a doji pattern detector.
func NewDoji() *Doji {
	return &Doji{}
}

// Name returns the detector name
func (d *Doji) Name() string { return "Doji" }

// Description returns the detector description
func (d *Doji) Description() string {
	return "Detects doji candles whose body is under 10% of the total range"
}

// Detect finds doji events. A doji signals indecision, so events carry
// a neutral direction; strength grows as the body shrinks.
func (d *Doji) Detect(candles []candle.Candle) ([]Event, error) {
	if len(candles) < 1 {
		return nil, fmt.Errorf("need at least 1 candle to detect doji patterns")
	}

	var events []Event
	for i, c := range candles {
		if c.Validate() != nil {
			continue
		}
		totalRange := c.High - c.Low
		if totalRange == 0 {
			continue
		}
		bodyRatio := c.BodySize() / totalRange
		if bodyRatio < 0.1 {
			events = append(events, Event{
				Type:      "doji",
				Index:     i,
				Timestamp: c.Timestamp,
				Strength:  clamp01(StrengthWeak + (0.1-bodyRatio)/0.1*(StrengthMedium-StrengthWeak)),
				Direction: Neutral,
			})
		}
	}
	return events, nil
}
