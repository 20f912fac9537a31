// Package notifier delivers fused signals to messaging channels.
package notifier

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/signal"
)

// Notifier is the interface for a delivery channel.
type Notifier interface {
	Name() string
	SendSignal(ctx context.Context, c signal.Combined) error
}

// Multi fans a signal out to several channels concurrently. Delivery
// failures are logged per target and never propagate; a dead channel
// must not stall the analysis loop.
type Multi struct {
	targets []Notifier
	logger  zerolog.Logger
}

// NewMulti wraps a set of delivery channels.
func NewMulti(targets ...Notifier) *Multi {
	return &Multi{
		targets: targets,
		logger:  log.With().Str("component", "notifier").Logger(),
	}
}

func (m *Multi) Name() string { return "multi" }

// SendSignal delivers to every target and waits for all of them.
func (m *Multi) SendSignal(ctx context.Context, c signal.Combined) error {
	var wg sync.WaitGroup
	for _, target := range m.targets {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			if err := n.SendSignal(ctx, c); err != nil {
				m.logger.Error().Err(err).
					Str("target", n.Name()).
					Str("symbol", c.Symbol).
					Str("signal_id", c.ID).
					Msg("delivery failed")
				return
			}
			m.logger.Debug().
				Str("target", n.Name()).
				Str("symbol", c.Symbol).
				Msg("signal delivered")
		}(target)
	}
	wg.Wait()
	return nil
}

var kindEmoji = map[signal.Kind]string{
	signal.Buy:  "🟢",
	signal.Sell: "🔴",
	signal.Hold: "🟡",
}

// FormatSignal renders a fused signal as the plain-text message shared
// by all channels.
func FormatSignal(c signal.Combined) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n", kindEmoji[c.Kind], c.Kind, c.Symbol)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", c.Confidence*100)
	fmt.Fprintf(&b, "Price: %.4f\n", c.Price)

	if c.Technical.Reason != "" {
		fmt.Fprintf(&b, "Technical: %s (%.0f%%) via %s\n", c.Technical.Kind, c.Technical.Confidence*100, c.Technical.Reason)
	} else {
		fmt.Fprintf(&b, "Technical: %s (%.0f%%)\n", c.Technical.Kind, c.Technical.Confidence*100)
	}
	if c.ML != nil {
		fmt.Fprintf(&b, "Model: %s (%.0f%%)\n", c.ML.Kind, c.ML.Confidence*100)
	}

	if len(c.Indicators) > 0 {
		names := make([]string, 0, len(c.Indicators))
		for name := range c.Indicators {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%.2f", name, c.Indicators[name]))
		}
		fmt.Fprintf(&b, "Indicators: %s\n", strings.Join(parts, " "))
	}

	fmt.Fprintf(&b, "Time: %s", c.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
