package indicator

import "gonum.org/v1/gonum/stat"

// BollingerBands holds the upper, middle and lower bands, each aligned
// to the input price series.
type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// CalculateBollingerBands computes volatility bands around a simple
// moving average: middle = SMA(period), upper/lower = middle +- k
// sample standard deviations over the same window.
func CalculateBollingerBands(prices []float64, period int, k float64) *BollingerBands {
	if len(prices) < period || period <= 1 {
		return nil
	}

	bb := &BollingerBands{
		Upper:  nanSlice(len(prices)),
		Middle: nanSlice(len(prices)),
		Lower:  nanSlice(len(prices)),
	}
	for i := period - 1; i < len(prices); i++ {
		window := prices[i-period+1 : i+1]
		mean := stat.Mean(window, nil)
		std := stat.StdDev(window, nil)
		bb.Middle[i] = mean
		bb.Upper[i] = mean + k*std
		bb.Lower[i] = mean - k*std
	}
	return bb
}
