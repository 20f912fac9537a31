// Package indicator implements technical indicators as pure functions
// over ordered price series. Every function returns a slice aligned to
// its input, with math.NaN() for indices inside the warm-up window, and
// nil when the input is shorter than the lookback period. Indicators
// never return an error and never panic on short input.
package indicator

import "math"

// nanSlice returns a slice of length n filled with NaN.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rollingMax computes the rolling maximum over a window of the given
// period. Indices before the window is filled are NaN.
func rollingMax(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		max := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] > max {
				max = values[j]
			}
		}
		out[i] = max
	}
	return out
}

// rollingMin computes the rolling minimum over a window of the given
// period. Indices before the window is filled are NaN.
func rollingMin(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		min := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] < min {
				min = values[j]
			}
		}
		out[i] = min
	}
	return out
}
