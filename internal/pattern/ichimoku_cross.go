package pattern

import (
	"fmt"
	"math"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/indicator"
)

// IchimokuCross detects Tenkan-sen / Kijun-sen trend crossovers.
type IchimokuCross struct{}

// NewIchimokuCross creates an Ichimoku trend crossover detector.
func NewIchimokuCross() *IchimokuCross {
	return &IchimokuCross{}
}

// Name returns the detector name
func (c *IchimokuCross) Name() string { return "Ichimoku Cross" }

// Description returns the detector description
func (c *IchimokuCross) Description() string {
	return "Detects Tenkan-sen crossing the Kijun-sen, a trend change signal"
}

// Detect finds Tenkan/Kijun crossover events using the same prior-bar
// confirmation rule as the MA crossover detector.
func (c *IchimokuCross) Detect(candles []candle.Candle) ([]Event, error) {
	if len(candles) < indicator.IchimokuSenkouBPeriod {
		return nil, fmt.Errorf("need at least %d candles to detect Ichimoku crosses",
			indicator.IchimokuSenkouBPeriod)
	}

	ich := indicator.CalculateIchimoku(
		candle.Highs(candles), candle.Lows(candles), candle.Closes(candles))
	if ich == nil {
		return nil, fmt.Errorf("Ichimoku lines unavailable")
	}

	var events []Event
	for i := 1; i < len(candles); i++ {
		if math.IsNaN(ich.Tenkan[i-1]) || math.IsNaN(ich.Kijun[i-1]) ||
			math.IsNaN(ich.Tenkan[i]) || math.IsNaN(ich.Kijun[i]) {
			continue
		}
		switch {
		case ich.Tenkan[i-1] <= ich.Kijun[i-1] && ich.Tenkan[i] > ich.Kijun[i]:
			events = append(events, Event{
				Type:      "tenkan_kijun_bullish_cross",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  0.7,
				Direction: Bullish,
			})
		case ich.Tenkan[i-1] >= ich.Kijun[i-1] && ich.Tenkan[i] < ich.Kijun[i]:
			events = append(events, Event{
				Type:      "tenkan_kijun_bearish_cross",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  0.7,
				Direction: Bearish,
			})
		}
	}
	return events, nil
}
