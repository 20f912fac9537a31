// Package pattern implements detectors that scan an OHLCV candle
// series for technical conditions and emit typed events. Detectors are
// independent and composable; a detector that cannot run on the given
// history degrades to an empty event list.
package pattern

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/amirphl/signal-bot/internal/candle"
)

// Direction classifies what an event implies about price direction.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Event represents a detected pattern occurrence.
type Event struct {
	Type      string
	Index     int
	Timestamp time.Time
	Strength  float64 // 0.0 to 1.0
	Direction Direction
}

// Detector is the interface for all pattern detectors.
type Detector interface {
	Name() string
	Description() string
	Detect(candles []candle.Candle) ([]Event, error)
}

// Strength presets shared by detectors.
const (
	StrengthWeak   = 0.3
	StrengthMedium = 0.6
	StrengthStrong = 0.9
)

// Defaults returns the standard detector set with default parameters.
func Defaults() []Detector {
	return []Detector{
		NewMACrossover(20, 50),
		NewVolumeSpike(20, 2.0),
		NewRSIExtremes(14, 30, 70),
		NewBollingerBreakout(20, 2.0),
		NewIchimokuCross(),
		NewEngulfing(),
		NewDoji(),
	}
}

// Scan runs every detector over the candle series and aggregates the
// events. A failing detector is logged and contributes nothing; it
// must not abort the others.
func Scan(candles []candle.Candle, detectors []Detector, logger zerolog.Logger) []Event {
	var events []Event
	for _, d := range detectors {
		matches, err := d.Detect(candles)
		if err != nil {
			logger.Debug().Err(err).Str("detector", d.Name()).Msg("detector skipped")
			continue
		}
		events = append(events, matches...)
	}
	return events
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
