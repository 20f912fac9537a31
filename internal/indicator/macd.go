package indicator

import "math"

// MACD holds the MACD line, its signal line and the histogram, each
// aligned to the input price series.
type MACD struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD computes the Moving Average Convergence Divergence:
// line = EMA(fast) - EMA(slow), signal = EMA(line, signalPeriod),
// histogram = line - signal at every aligned index.
func CalculateMACD(prices []float64, fast, slow, signalPeriod int) *MACD {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 || fast >= slow {
		return nil
	}
	if len(prices) < slow {
		return nil
	}

	fastEMA := CalculateEMA(prices, fast)
	slowEMA := CalculateEMA(prices, slow)

	line := nanSlice(len(prices))
	for i := slow - 1; i < len(prices); i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signal := nanSlice(len(prices))
	defined := line[slow-1:]
	if len(defined) >= signalPeriod {
		signalEMA := CalculateEMA(defined, signalPeriod)
		copy(signal[slow-1:], signalEMA)
	}

	histogram := nanSlice(len(prices))
	for i := range prices {
		if !math.IsNaN(line[i]) && !math.IsNaN(signal[i]) {
			histogram[i] = line[i] - signal[i]
		}
	}

	return &MACD{Line: line, Signal: signal, Histogram: histogram}
}
