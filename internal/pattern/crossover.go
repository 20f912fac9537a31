package pattern

import (
	"fmt"
	"math"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/indicator"
)

// MACrossover detects crossovers between a short and a long simple
// moving average.
type MACrossover struct {
	shortPeriod int
	longPeriod  int
}

// NewMACrossover creates a moving-average crossover detector.
func NewMACrossover(shortPeriod, longPeriod int) *MACrossover {
	return &MACrossover{shortPeriod: shortPeriod, longPeriod: longPeriod}
}

// Name returns the detector name
func (m *MACrossover) Name() string { return "MA Crossover" }

// Description returns the detector description
func (m *MACrossover) Description() string {
	return fmt.Sprintf("Detects crossovers between the %d and %d period simple moving averages",
		m.shortPeriod, m.longPeriod)
}

// Detect finds crossover events. A bullish crossover requires the
// short MA at or below the long MA on the prior bar and strictly above
// it on the current bar; bearish is the reverse. The two conditions
// are mutually exclusive at any index.
func (m *MACrossover) Detect(candles []candle.Candle) ([]Event, error) {
	if len(candles) <= m.longPeriod {
		return nil, fmt.Errorf("need more than %d candles to detect MA crossovers", m.longPeriod)
	}

	closes := candle.Closes(candles)
	short := indicator.CalculateSMA(closes, m.shortPeriod)
	long := indicator.CalculateSMA(closes, m.longPeriod)
	if short == nil || long == nil {
		return nil, fmt.Errorf("moving averages unavailable")
	}

	var events []Event
	for i := m.longPeriod; i < len(candles); i++ {
		if math.IsNaN(short[i-1]) || math.IsNaN(long[i-1]) {
			continue
		}
		switch {
		case short[i-1] <= long[i-1] && short[i] > long[i]:
			events = append(events, Event{
				Type:      "bullish_crossover",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  1.0,
				Direction: Bullish,
			})
		case short[i-1] >= long[i-1] && short[i] < long[i]:
			events = append(events, Event{
				Type:      "bearish_crossover",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  1.0,
				Direction: Bearish,
			})
		}
	}
	return events, nil
}
