package indicator

import "gonum.org/v1/gonum/stat"

// CalculateSMA computes the simple moving average over the given period.
func CalculateSMA(prices []float64, period int) []float64 {
	if len(prices) < period || period <= 0 {
		return nil
	}
	sma := nanSlice(len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			sma[i] = sum / float64(period)
		}
	}
	return sma
}

// CalculateEMA computes the exponential moving average over the given
// period. The first value is seeded with the SMA of the initial window.
func CalculateEMA(prices []float64, period int) []float64 {
	if len(prices) < period || period <= 0 {
		return nil
	}
	ema := nanSlice(len(prices))
	ema[period-1] = stat.Mean(prices[:period], nil)
	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema[i] = (prices[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}
