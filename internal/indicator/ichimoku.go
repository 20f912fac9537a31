package indicator

import "math"

// Default Ichimoku periods.
const (
	IchimokuTenkanPeriod  = 9
	IchimokuKijunPeriod   = 26
	IchimokuSenkouBPeriod = 52
	IchimokuShift         = 26
)

// Ichimoku holds the five Ichimoku Cloud lines, each aligned to the
// input series. Senkou spans are shifted forward by the standard 26
// bars, the Chikou span backward.
type Ichimoku struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Chikou  []float64
}

// CalculateIchimoku computes the Ichimoku Cloud with the standard
// 9/26/52 periods. Requires enough bars for the Senkou B window; nil
// otherwise.
func CalculateIchimoku(highs, lows, closes []float64) *Ichimoku {
	n := len(closes)
	if n < IchimokuSenkouBPeriod || len(highs) != n || len(lows) != n {
		return nil
	}

	tenkan := midpoint(highs, lows, IchimokuTenkanPeriod)
	kijun := midpoint(highs, lows, IchimokuKijunPeriod)

	senkouA := nanSlice(n)
	for i := IchimokuShift; i < n; i++ {
		src := i - IchimokuShift
		if !math.IsNaN(tenkan[src]) && !math.IsNaN(kijun[src]) {
			senkouA[i] = (tenkan[src] + kijun[src]) / 2
		}
	}

	senkouBBase := midpoint(highs, lows, IchimokuSenkouBPeriod)
	senkouB := nanSlice(n)
	for i := IchimokuShift; i < n; i++ {
		senkouB[i] = senkouBBase[i-IchimokuShift]
	}

	chikou := nanSlice(n)
	for i := 0; i+IchimokuShift < n; i++ {
		chikou[i] = closes[i+IchimokuShift]
	}

	return &Ichimoku{
		Tenkan:  tenkan,
		Kijun:   kijun,
		SenkouA: senkouA,
		SenkouB: senkouB,
		Chikou:  chikou,
	}
}

// midpoint computes (rolling max high + rolling min low) / 2.
func midpoint(highs, lows []float64, period int) []float64 {
	out := nanSlice(len(highs))
	maxes := rollingMax(highs, period)
	mins := rollingMin(lows, period)
	if maxes == nil || mins == nil {
		return out
	}
	for i := period - 1; i < len(highs); i++ {
		out[i] = (maxes[i] + mins[i]) / 2
	}
	return out
}
