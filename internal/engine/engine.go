// Package engine runs the per-symbol analysis pass: fetch candles,
// scan patterns, fuse with the model prediction and deliver whatever
// clears the confidence threshold.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/exchange"
	"github.com/amirphl/signal-bot/internal/journal"
	"github.com/amirphl/signal-bot/internal/ml"
	"github.com/amirphl/signal-bot/internal/notifier"
	"github.com/amirphl/signal-bot/internal/pattern"
	"github.com/amirphl/signal-bot/internal/signal"
)

// Predictor classifies an indicator snapshot. *ml.Model satisfies it;
// tests substitute fakes.
type Predictor interface {
	Trained() bool
	Predict(snap ml.Snapshot) signal.Prediction
}

// Source binds one symbol to the provider that serves its candles.
type Source struct {
	Symbol  string
	Fetcher exchange.Fetcher
}

// Options configures an Engine. Zero values fall back to the defaults
// noted on each field.
type Options struct {
	Sources       []Source
	Detectors     []pattern.Detector // pattern.Defaults()
	Model         Predictor          // nil runs technical-only
	Notifier      notifier.Notifier
	Journal       journal.Journal
	Interval      string  // "1h"
	FetchLimit    int     // 200
	MinConfidence float64 // signal.DefaultMinConfidence
}

// Engine drives analysis passes over a fixed set of symbol sources.
// Symbols are processed sequentially within a pass; no state is shared
// between them.
type Engine struct {
	sources       []Source
	detectors     []pattern.Detector
	model         Predictor
	notifier      notifier.Notifier
	journal       journal.Journal
	interval      string
	fetchLimit    int
	minConfidence float64
	logger        zerolog.Logger
}

// New creates an engine from options, applying defaults.
func New(opts Options) *Engine {
	if len(opts.Detectors) == 0 {
		opts.Detectors = pattern.Defaults()
	}
	if opts.Interval == "" {
		opts.Interval = "1h"
	}
	if opts.FetchLimit == 0 {
		opts.FetchLimit = 200
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = signal.DefaultMinConfidence
	}
	return &Engine{
		sources:       opts.Sources,
		detectors:     opts.Detectors,
		model:         opts.Model,
		notifier:      opts.Notifier,
		journal:       opts.Journal,
		interval:      opts.Interval,
		fetchLimit:    opts.FetchLimit,
		minConfidence: opts.MinConfidence,
		logger:        log.With().Str("component", "engine").Logger(),
	}
}

// Run polls every interval until the context is cancelled. A pass runs
// immediately on start.
func (e *Engine) Run(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		e.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce analyzes every source once. Per-symbol failures are logged
// and skipped; a pass never aborts because one symbol misbehaved.
func (e *Engine) RunOnce(ctx context.Context) {
	for _, src := range e.sources {
		if ctx.Err() != nil {
			return
		}
		e.analyze(ctx, src)
	}
}

// analyze runs the full pipeline for one symbol.
func (e *Engine) analyze(ctx context.Context, src Source) {
	logger := e.logger.With().Str("symbol", src.Symbol).Logger()

	candles, err := src.Fetcher.Candles(ctx, src.Symbol, e.interval, e.fetchLimit)
	if err != nil {
		if errors.Is(err, exchange.ErrNoData) {
			logger.Warn().Err(err).Msg("no data this pass")
		} else {
			logger.Error().Err(err).Msg("fetch failed")
		}
		return
	}

	snap, ok := ml.BuildSnapshot(candles)
	if !ok {
		logger.Debug().Int("candles", len(candles)).Msg("series too short, skipping")
		return
	}

	events := pattern.Scan(candles, e.detectors, logger)
	latest := latestEvents(events, len(candles)-1)
	technical := signal.CombineTechnical(src.Symbol, signal.FromEvents(src.Symbol, latest))

	var prediction *signal.Prediction
	if e.model != nil {
		p := e.model.Predict(snap)
		prediction = &p
	}

	combined := signal.Fuse(technical, prediction, snap.Price, snap.Map())
	logger.Info().
		Str("kind", string(combined.Kind)).
		Float64("confidence", combined.Confidence).
		Int("events", len(latest)).
		Msg("pass complete")

	if !signal.Actionable(combined, e.minConfidence) {
		return
	}

	if e.journal != nil {
		if err := e.journal.LogSignal(ctx, combined); err != nil {
			logger.Error().Err(err).Str("signal_id", combined.ID).Msg("journaling failed")
		}
	}
	if e.notifier != nil {
		if err := e.notifier.SendSignal(ctx, combined); err != nil {
			logger.Error().Err(err).Str("signal_id", combined.ID).Msg("delivery failed")
		}
	}
}

// latestEvents keeps only events on the newest bar; older occurrences
// were already reported on previous passes.
func latestEvents(events []pattern.Event, lastIndex int) []pattern.Event {
	var latest []pattern.Event
	for _, ev := range events {
		if ev.Index == lastIndex {
			latest = append(latest, ev)
		}
	}
	return latest
}
