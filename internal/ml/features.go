// Package ml implements a random-forest signal classifier over
// feature vectors derived from the technical indicator set.
package ml

import (
	"math"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/indicator"
)

// Indicator periods used for feature construction.
const (
	rsiPeriod     = 14
	macdFast      = 12
	macdSlow      = 26
	macdSignal    = 9
	maShortPeriod = 20
	maLongPeriod  = 50
	bbPeriod      = 20
	bbStdDev      = 2.0
	srWindow      = 20
	volumeWindow  = 20

	// MinHistory is the smallest candle series a snapshot can be built
	// from; shorter input yields no snapshot at all rather than a
	// partial one.
	MinHistory = maLongPeriod
)

// FeatureCount is the dimensionality of the model input.
const FeatureCount = 10

// Snapshot captures the indicator state at the latest bar of a candle
// series.
type Snapshot struct {
	Price         float64
	PriceChange   float64 // percent vs previous close
	VolumeRatio   float64 // volume vs rolling average
	RSI           float64
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	MAShort       float64
	MALong        float64
	BBUpper       float64
	BBMiddle      float64
	BBLower       float64
	Support       float64
	Resistance    float64
}

// BuildSnapshot computes the indicator snapshot for the latest bar.
// Returns false when the series is shorter than MinHistory.
func BuildSnapshot(candles []candle.Candle) (Snapshot, bool) {
	if len(candles) < MinHistory {
		return Snapshot{}, false
	}

	closes := candle.Closes(candles)
	volumes := candle.Volumes(candles)
	last := len(candles) - 1
	price := closes[last]

	snap := Snapshot{Price: price}

	snap.PriceChange = (price - closes[last-1]) / closes[last-1] * 100

	if avg := indicator.CalculateSMA(volumes, volumeWindow); avg != nil && avg[last] > 0 {
		snap.VolumeRatio = volumes[last] / avg[last]
	} else {
		snap.VolumeRatio = 1
	}

	if rsi := indicator.CalculateRSI(closes, rsiPeriod); rsi != nil && !math.IsNaN(rsi[last]) {
		snap.RSI = rsi[last]
	} else {
		snap.RSI = 50
	}

	if macd := indicator.CalculateMACD(closes, macdFast, macdSlow, macdSignal); macd != nil {
		if !math.IsNaN(macd.Line[last]) {
			snap.MACD = macd.Line[last]
		}
		if !math.IsNaN(macd.Signal[last]) {
			snap.MACDSignal = macd.Signal[last]
		}
		if !math.IsNaN(macd.Histogram[last]) {
			snap.MACDHistogram = macd.Histogram[last]
		}
	}

	snap.MAShort = price
	snap.MALong = price
	if ma := indicator.CalculateSMA(closes, maShortPeriod); ma != nil && !math.IsNaN(ma[last]) {
		snap.MAShort = ma[last]
	}
	if ma := indicator.CalculateSMA(closes, maLongPeriod); ma != nil && !math.IsNaN(ma[last]) {
		snap.MALong = ma[last]
	}

	snap.BBUpper = price
	snap.BBMiddle = price
	snap.BBLower = price
	if bb := indicator.CalculateBollingerBands(closes, bbPeriod, bbStdDev); bb != nil && !math.IsNaN(bb.Middle[last]) {
		snap.BBUpper = bb.Upper[last]
		snap.BBMiddle = bb.Middle[last]
		snap.BBLower = bb.Lower[last]
	}

	snap.Support = price
	snap.Resistance = price
	lows := candle.Lows(candles)
	highs := candle.Highs(candles)
	for i := len(candles) - srWindow; i < len(candles); i++ {
		if i == len(candles)-srWindow || lows[i] < snap.Support {
			snap.Support = lows[i]
		}
		if i == len(candles)-srWindow || highs[i] > snap.Resistance {
			snap.Resistance = highs[i]
		}
	}

	return snap, true
}

// Vector flattens the snapshot into the model's feature vector.
func (s Snapshot) Vector() []float64 {
	bbPosition := 0.5
	if s.BBUpper != s.BBLower {
		bbPosition = (s.Price - s.BBLower) / (s.BBUpper - s.BBLower)
	}
	srPosition := 0.5
	if s.Resistance != s.Support {
		srPosition = (s.Price - s.Support) / (s.Resistance - s.Support)
	}
	priceVsShort := 0.0
	if s.MAShort != 0 {
		priceVsShort = (s.Price - s.MAShort) / s.MAShort * 100
	}
	priceVsLong := 0.0
	if s.MALong != 0 {
		priceVsLong = (s.Price - s.MALong) / s.MALong * 100
	}

	return []float64{
		s.PriceChange,
		s.VolumeRatio,
		s.RSI,
		s.MACD,
		s.MACDSignal,
		s.MACDHistogram,
		priceVsShort,
		priceVsLong,
		bbPosition,
		srPosition,
	}
}

// Map returns the snapshot as a flat name/value map for logging and
// delivery payloads.
func (s Snapshot) Map() map[string]float64 {
	return map[string]float64{
		"price":          s.Price,
		"price_change":   s.PriceChange,
		"volume_ratio":   s.VolumeRatio,
		"rsi":            s.RSI,
		"macd":           s.MACD,
		"macd_signal":    s.MACDSignal,
		"macd_histogram": s.MACDHistogram,
		"ma_short":       s.MAShort,
		"ma_long":        s.MALong,
		"bb_upper":       s.BBUpper,
		"bb_middle":      s.BBMiddle,
		"bb_lower":       s.BBLower,
		"support":        s.Support,
		"resistance":     s.Resistance,
	}
}
