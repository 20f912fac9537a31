package pattern

import (
	"fmt"
	"math"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/indicator"
)

// VolumeSpike detects bars whose volume exceeds a multiple of the
// rolling average volume.
type VolumeSpike struct {
	period     int
	multiplier float64
}

// NewVolumeSpike creates a volume spike detector.
func NewVolumeSpike(period int, multiplier float64) *VolumeSpike {
	return &VolumeSpike{period: period, multiplier: multiplier}
}

// Name returns the detector name
func (v *VolumeSpike) Name() string { return "Volume Spike" }

// Description returns the detector description
func (v *VolumeSpike) Description() string {
	return fmt.Sprintf("Detects volume above %.1fx the rolling %d period average", v.multiplier, v.period)
}

// Detect finds volume spike events. Spikes carry a neutral direction;
// strength scales with how far volume runs past the threshold.
func (v *VolumeSpike) Detect(candles []candle.Candle) ([]Event, error) {
	if len(candles) < v.period {
		return nil, fmt.Errorf("need at least %d candles to detect volume spikes", v.period)
	}

	volumes := candle.Volumes(candles)
	avg := indicator.CalculateSMA(volumes, v.period)
	if avg == nil {
		return nil, fmt.Errorf("volume average unavailable")
	}

	var events []Event
	for i := v.period - 1; i < len(candles); i++ {
		if math.IsNaN(avg[i]) || avg[i] <= 0 {
			continue
		}
		ratio := volumes[i] / avg[i]
		if ratio > v.multiplier {
			events = append(events, Event{
				Type:      "volume_spike",
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Strength:  clamp01(ratio / (v.multiplier * 2)),
				Direction: Neutral,
			})
		}
	}
	return events, nil
}
