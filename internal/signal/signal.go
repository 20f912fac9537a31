// Package signal turns pattern events into typed trading signals and
// fuses rule-based signals with an optional ML prediction into one
// recommendation.
package signal

import (
	"time"

	"github.com/google/uuid"

	"github.com/amirphl/signal-bot/internal/pattern"
)

// Kind is a trading recommendation.
type Kind string

const (
	Buy  Kind = "BUY"
	Sell Kind = "SELL"
	Hold Kind = "HOLD"
)

// Signal is a single typed recommendation derived from one or more
// pattern events or indicator readings.
type Signal struct {
	Symbol     string  `json:"symbol"`
	Kind       Kind    `json:"kind"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Reason     string  `json:"reason"`
	Strength   float64 `json:"strength"`
}

// Prediction is an ML classifier output.
type Prediction struct {
	Kind          Kind      `json:"kind"`
	Confidence    float64   `json:"confidence"` // max class probability
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// Combined is the fused recommendation for one analysis pass of one
// symbol. It is created once per pass and handed straight to the
// delivery adapters.
type Combined struct {
	ID         string             `json:"id"`
	Symbol     string             `json:"symbol"`
	Kind       Kind               `json:"kind"`
	Confidence float64            `json:"confidence"`
	Technical  Signal             `json:"technical"`
	ML         *Prediction        `json:"ml,omitempty"`
	Price      float64            `json:"price"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewCombined stamps a fused result with an ID and creation time.
func NewCombined(symbol string, kind Kind, confidence float64, technical Signal, ml *Prediction, price float64, indicators map[string]float64) Combined {
	return Combined{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Kind:       kind,
		Confidence: confidence,
		Technical:  technical,
		ML:         ml,
		Price:      price,
		Indicators: indicators,
		CreatedAt:  time.Now().UTC(),
	}
}

// FromEvents converts pattern events into typed signals: bullish
// events vote BUY, bearish SELL, neutral HOLD. Event strength carries
// over as both strength and confidence.
func FromEvents(symbol string, events []pattern.Event) []Signal {
	signals := make([]Signal, 0, len(events))
	for _, e := range events {
		kind := Hold
		switch e.Direction {
		case pattern.Bullish:
			kind = Buy
		case pattern.Bearish:
			kind = Sell
		}
		signals = append(signals, Signal{
			Symbol:     symbol,
			Kind:       kind,
			Confidence: clamp01(e.Strength),
			Reason:     e.Type,
			Strength:   e.Strength,
		})
	}
	return signals
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
