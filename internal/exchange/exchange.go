// Package exchange fetches candle history from market data providers.
package exchange

import (
	"context"
	"errors"

	"github.com/amirphl/signal-bot/internal/candle"
)

// ErrNoData marks a provider response that carried no usable candles.
// Callers can treat it as an empty series rather than a hard failure.
var ErrNoData = errors.New("exchange: no data")

// Fetcher is the interface for all supported market data providers.
// Candles returns the most recent bars for a symbol, oldest first.
// The interval is a canonical timeframe string ("1m", "5m", "15m",
// "30m", "1h", "4h", "1d"); each provider maps it to its own wire
// format and rejects intervals it cannot serve.
type Fetcher interface {
	Name() string
	Candles(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error)
}
