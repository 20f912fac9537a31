// Package journal persists fused signals for later review and
// backtesting.
package journal

import (
	"context"

	"github.com/amirphl/signal-bot/internal/signal"
)

// Journal records every fused signal and serves them back newest
// first.
type Journal interface {
	LogSignal(ctx context.Context, c signal.Combined) error
	Signals(ctx context.Context, symbol string, limit int) ([]signal.Combined, error)
	Close() error
}
