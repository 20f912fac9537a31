package indicator

// CalculateRSI computes the Relative Strength Index over a rolling
// window of price deltas: RSI = 100 - 100/(1+RS) with
// RS = avg gain / avg loss. When the average loss over the window is
// zero the RSI is 100 (unboundedly bullish). Values are always within
// [0,100]; indices before the window is filled are NaN.
func CalculateRSI(prices []float64, period int) []float64 {
	if len(prices) <= period || period <= 0 {
		return nil
	}
	rsi := nanSlice(len(prices))

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(prices); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			rsi[i] = 100
		} else {
			rs := avgGain / avgLoss
			rsi[i] = 100 - (100 / (1 + rs))
		}
	}
	return rsi
}
