// Package backtest replays historical candles through the pattern and
// fusion pipeline and reports how the resulting signals would have
// traded.
package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/ml"
	"github.com/amirphl/signal-bot/internal/pattern"
	"github.com/amirphl/signal-bot/internal/signal"
)

// Predictor classifies an indicator snapshot. *ml.Model satisfies it.
type Predictor interface {
	Trained() bool
	Predict(snap ml.Snapshot) signal.Prediction
}

// Options configures a replay. Zero values fall back to the defaults
// noted on each field.
type Options struct {
	InitialBalance float64            // 10000
	MinConfidence  float64            // signal.DefaultMinConfidence
	Detectors      []pattern.Detector // pattern.Defaults()
	Model          Predictor          // nil replays technical-only
}

// Trade is one completed long round trip.
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Size       float64   `json:"size"`
	Profit     float64   `json:"profit"`
}

// Result summarizes a replay.
type Result struct {
	Symbol         string  `json:"symbol"`
	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	TotalReturn    float64 `json:"total_return"` // fraction, 0.25 == +25%
	Trades         []Trade `json:"trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	Signals        int     `json:"signals"` // actionable signals seen
}

// Run replays a candle series, long-only: an actionable BUY converts
// the full balance into a position, an actionable SELL closes it. Any
// open position is liquidated at the final close.
func Run(candles []candle.Candle, opts Options) (Result, error) {
	if opts.InitialBalance == 0 {
		opts.InitialBalance = 10000
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = signal.DefaultMinConfidence
	}
	if len(opts.Detectors) == 0 {
		opts.Detectors = pattern.Defaults()
	}
	if len(candles) < ml.MinHistory {
		return Result{}, fmt.Errorf("need at least %d candles, got %d", ml.MinHistory, len(candles))
	}

	logger := log.With().Str("component", "backtest").Logger()
	symbol := candles[0].Symbol

	result := Result{Symbol: symbol, InitialBalance: opts.InitialBalance}
	balance := opts.InitialBalance

	var (
		position   float64
		entryPrice float64
		entryTime  time.Time
	)

	for i := ml.MinHistory; i < len(candles); i++ {
		window := candles[:i+1]
		snap, ok := ml.BuildSnapshot(window)
		if !ok {
			continue
		}

		events := pattern.Scan(window, opts.Detectors, logger)
		latest := make([]pattern.Event, 0, len(events))
		for _, ev := range events {
			if ev.Index == i {
				latest = append(latest, ev)
			}
		}
		technical := signal.CombineTechnical(symbol, signal.FromEvents(symbol, latest))

		var prediction *signal.Prediction
		if opts.Model != nil {
			p := opts.Model.Predict(snap)
			prediction = &p
		}

		combined := signal.Fuse(technical, prediction, snap.Price, nil)
		if !signal.Actionable(combined, opts.MinConfidence) {
			continue
		}
		result.Signals++

		price := candles[i].Close
		switch combined.Kind {
		case signal.Buy:
			if position == 0 && price > 0 {
				position = balance / price
				balance = 0
				entryPrice = price
				entryTime = candles[i].Timestamp
			}
		case signal.Sell:
			if position > 0 {
				balance = position * price
				result.Trades = append(result.Trades, Trade{
					EntryTime:  entryTime,
					ExitTime:   candles[i].Timestamp,
					EntryPrice: entryPrice,
					ExitPrice:  price,
					Size:       position,
					Profit:     position * (price - entryPrice),
				})
				position = 0
			}
		}
	}

	// Liquidate whatever is still open at the last close.
	if position > 0 {
		last := candles[len(candles)-1]
		balance = position * last.Close
		result.Trades = append(result.Trades, Trade{
			EntryTime:  entryTime,
			ExitTime:   last.Timestamp,
			EntryPrice: entryPrice,
			ExitPrice:  last.Close,
			Size:       position,
			Profit:     position * (last.Close - entryPrice),
		})
	}

	result.FinalBalance = balance
	result.TotalReturn = (balance - opts.InitialBalance) / opts.InitialBalance
	for _, trade := range result.Trades {
		if trade.Profit > 0 {
			result.Wins++
		} else {
			result.Losses++
		}
	}
	if len(result.Trades) > 0 {
		result.WinRate = float64(result.Wins) / float64(len(result.Trades))
	}

	logger.Info().
		Str("symbol", symbol).
		Int("trades", len(result.Trades)).
		Float64("final_balance", result.FinalBalance).
		Float64("total_return", result.TotalReturn).
		Msg("replay finished")
	return result, nil
}

// RunCSV loads a candle CSV and an optional saved model, then replays.
// An empty modelPath replays technical-only.
func RunCSV(csvPath, symbol, timeframe, modelPath string, opts Options) (Result, error) {
	candles, err := candle.LoadCSV(csvPath, symbol, timeframe)
	if err != nil {
		return Result{}, fmt.Errorf("loading candles: %w", err)
	}
	if modelPath != "" {
		model, err := ml.Load(modelPath)
		if err != nil {
			return Result{}, fmt.Errorf("loading model: %w", err)
		}
		opts.Model = model
	}
	return Run(candles, opts)
}
