package signal

import "strings"

// Fusion blending constants.
const (
	agreementBonus     = 0.1
	holdDiscount       = 0.7
	conflictConfidence = 0.3
	neutralConfidence  = 0.5

	// DefaultMinConfidence is the delivery threshold for actionable
	// signals.
	DefaultMinConfidence = 0.6
)

// CombineTechnical reduces rule-based signals to one technical signal
// by majority vote between BUY and SELL. The winning side's confidence
// is the mean strength of its votes, capped at 1.0. A tie or an empty
// input yields HOLD at neutral confidence, never an error.
func CombineTechnical(symbol string, signals []Signal) Signal {
	var buys, sells []Signal
	for _, s := range signals {
		switch s.Kind {
		case Buy:
			buys = append(buys, s)
		case Sell:
			sells = append(sells, s)
		}
	}

	switch {
	case len(buys) > len(sells):
		return Signal{
			Symbol:     symbol,
			Kind:       Buy,
			Confidence: meanStrength(buys),
			Reason:     joinReasons(buys),
			Strength:   meanStrength(buys),
		}
	case len(sells) > len(buys):
		return Signal{
			Symbol:     symbol,
			Kind:       Sell,
			Confidence: meanStrength(sells),
			Reason:     joinReasons(sells),
			Strength:   meanStrength(sells),
		}
	default:
		return Signal{
			Symbol:     symbol,
			Kind:       Hold,
			Confidence: neutralConfidence,
			Reason:     "no majority",
			Strength:   neutralConfidence,
		}
	}
}

// Fuse blends the technical signal with an optional ML prediction:
// agreement averages the confidences and adds a bonus, a one-sided
// HOLD defers to the other side at a discount, and a BUY/SELL conflict
// forces HOLD at low confidence. A nil prediction leaves the technical
// signal as-is.
func Fuse(technical Signal, ml *Prediction, price float64, indicators map[string]float64) Combined {
	if ml == nil {
		return NewCombined(technical.Symbol, technical.Kind, clamp01(technical.Confidence),
			technical, nil, price, indicators)
	}

	var kind Kind
	var confidence float64
	switch {
	case technical.Kind == ml.Kind:
		kind = technical.Kind
		confidence = clamp01((technical.Confidence+ml.Confidence)/2 + agreementBonus)
	case technical.Kind == Hold:
		kind = ml.Kind
		confidence = clamp01(ml.Confidence * holdDiscount)
	case ml.Kind == Hold:
		kind = technical.Kind
		confidence = clamp01(technical.Confidence * holdDiscount)
	default:
		kind = Hold
		confidence = conflictConfidence
	}

	return NewCombined(technical.Symbol, kind, confidence, technical, ml, price, indicators)
}

// Actionable reports whether a combined signal should be delivered: a
// non-HOLD kind at or above the minimum confidence threshold.
func Actionable(c Combined, minConfidence float64) bool {
	return c.Kind != Hold && c.Confidence >= minConfidence
}

func meanStrength(signals []Signal) float64 {
	if len(signals) == 0 {
		return neutralConfidence
	}
	sum := 0.0
	for _, s := range signals {
		sum += s.Strength
	}
	return clamp01(sum / float64(len(signals)))
}

func joinReasons(signals []Signal) string {
	reasons := make([]string, 0, len(signals))
	for _, s := range signals {
		reasons = append(reasons, s.Reason)
	}
	return strings.Join(reasons, ", ")
}
